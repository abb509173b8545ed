package optimistic

import (
	"context"
	"slices"
	"sync"

	"circles/internal/querycache"
)

// scopeLocks serializes mutations that share a query scope. Keys are taken in
// sorted order so two mutations over overlapping scopes cannot deadlock.
type scopeLocks struct {
	mu    sync.Mutex
	locks map[querycache.Key]*scopeLock
}

type scopeLock struct {
	sem  chan struct{}
	refs int
}

func newScopeLocks() *scopeLocks {
	return &scopeLocks{locks: make(map[querycache.Key]*scopeLock)}
}

func (s *scopeLocks) ref(k querycache.Key) *scopeLock {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[k]
	if !ok {
		l = &scopeLock{sem: make(chan struct{}, 1)}
		s.locks[k] = l
	}
	l.refs++
	return l
}

func (s *scopeLocks) unref(k querycache.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l := s.locks[k]; l != nil {
		l.refs--
		if l.refs == 0 {
			delete(s.locks, k)
		}
	}
}

// acquire locks every key or none. It gives up when ctx is done.
func (s *scopeLocks) acquire(ctx context.Context, keys []querycache.Key) (release func(), err error) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	held := make([]querycache.Key, 0, len(sorted))
	release = func() {
		for i := len(held) - 1; i >= 0; i-- {
			k := held[i]
			l := s.lookup(k)
			<-l.sem
			s.unref(k)
		}
		held = held[:0]
	}

	for _, k := range sorted {
		l := s.ref(k)
		select {
		case l.sem <- struct{}{}:
			held = append(held, k)
		case <-ctx.Done():
			s.unref(k)
			release()
			return nil, ctx.Err()
		}
	}
	return release, nil
}

func (s *scopeLocks) lookup(k querycache.Key) *scopeLock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locks[k]
}

// size is the number of scopes currently locked or waited on.
func (s *scopeLocks) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

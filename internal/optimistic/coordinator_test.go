package optimistic

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"circles/internal/models"
	"circles/internal/querycache"
	"circles/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDataService is a mock of the DataService interface
type MockDataService struct {
	mock.Mock
}

func (m *MockDataService) ListCircles(ctx context.Context) ([]models.Circle, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Circle), args.Error(1)
}

func (m *MockDataService) GetCircle(ctx context.Context, slug string) (models.Circle, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(models.Circle), args.Error(1)
}

func (m *MockDataService) ListMembers(ctx context.Context, slug string) ([]models.CircleMembership, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).([]models.CircleMembership), args.Error(1)
}

func (m *MockDataService) JoinCircle(ctx context.Context, slug string) error {
	return m.Called(ctx, slug).Error(0)
}

func (m *MockDataService) LeaveCircle(ctx context.Context, slug string) error {
	return m.Called(ctx, slug).Error(0)
}

func (m *MockDataService) ListPosts(ctx context.Context, slug, sort string) ([]models.Post, error) {
	args := m.Called(ctx, slug, sort)
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockDataService) GetPost(ctx context.Context, id string) (models.Post, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Post), args.Error(1)
}

func (m *MockDataService) CreatePost(ctx context.Context, slug string, req models.CreatePostRequest) (models.Post, error) {
	args := m.Called(ctx, slug, req)
	return args.Get(0).(models.Post), args.Error(1)
}

func (m *MockDataService) UpdatePost(ctx context.Context, id string, req models.UpdatePostRequest) (models.Post, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(models.Post), args.Error(1)
}

func (m *MockDataService) DeletePost(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDataService) TogglePostLike(ctx context.Context, id string) (models.Post, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Post), args.Error(1)
}

func (m *MockDataService) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *MockDataService) CreateComment(ctx context.Context, postID string, req models.CreateCommentRequest) (models.Comment, error) {
	args := m.Called(ctx, postID, req)
	return args.Get(0).(models.Comment), args.Error(1)
}

func (m *MockDataService) UpdateComment(ctx context.Context, id string, req models.UpdateCommentRequest) (models.Comment, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(models.Comment), args.Error(1)
}

func (m *MockDataService) DeleteComment(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDataService) ToggleCommentLike(ctx context.Context, id string) (models.Comment, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Comment), args.Error(1)
}

var (
	testNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	ada     = session.Session{UserID: "u1", DisplayName: "Ada", ImageURL: "https://img/ada.png"}
)

func newTestCoordinator(t *testing.T, sess session.Provider) (*Coordinator, *MockDataService) {
	t.Helper()
	data := new(MockDataService)
	cache := querycache.New(querycache.Options{
		StaleTime: time.Hour,
		Now:       func() time.Time { return testNow },
	})
	coord := New(Options{
		Cache:   cache,
		Data:    data,
		Session: sess,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:     func() time.Time { return testNow },
	})
	return coord, data
}

// gate lets a test hold a data service call open while it inspects the cache.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 8), release: make(chan struct{})}
}

func (g *gate) run(mock.Arguments) {
	g.entered <- struct{}{}
	<-g.release
}

func (g *gate) waitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("data service was not called")
	}
}

func entryOf(t *testing.T, c *Coordinator, key querycache.Key) querycache.Entry {
	t.Helper()
	e, ok := c.Cache().Get(key)
	require.True(t, ok, "expected %s to be cached", key)
	return e
}

func TestTempIDs(t *testing.T) {
	id := NewTempID()
	assert.True(t, IsTempID(id))
	assert.False(t, IsTempID(models.NewID()))
	assert.NotEqual(t, id, NewTempID())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"server validation", models.NewValidationError("title is required"), KindValidation},
		{"unauthorized", models.NewUnauthorizedError("login"), KindAuthorization},
		{"forbidden", models.NewForbiddenError("not yours"), KindAuthorization},
		{"not found", models.NewNotFoundError("Post", "p1"), KindTransport},
		{"internal", models.NewInternalError(io.ErrUnexpectedEOF), KindTransport},
		{"network", io.ErrUnexpectedEOF, KindTransport},
		{"cancelled", context.Canceled, KindTransport},
		{"no session", session.ErrNoSession, KindAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
			merr := mutationError("op", tt.err)
			assert.True(t, merr.Retryable)
			assert.ErrorIs(t, merr, tt.err)
		})
	}
}

func TestScopeLocks(t *testing.T) {
	locks := newScopeLocks()
	ctx := context.Background()

	release, err := locks.acquire(ctx, []querycache.Key{"b", "a", "a"})
	require.NoError(t, err)
	assert.Equal(t, 2, locks.size())

	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = locks.acquire(timeout, []querycache.Key{"a"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := locks.acquire(ctx, []querycache.Key{"c"})
	require.NoError(t, err, "disjoint scopes do not wait")
	other()

	release()
	assert.Equal(t, 0, locks.size())

	again, err := locks.acquire(ctx, []querycache.Key{"a"})
	require.NoError(t, err)
	again()
}

func TestApplyEvent(t *testing.T) {
	c, _ := newTestCoordinator(t, session.Static(ada))
	cache := c.Cache()
	cache.Set(querycache.PostsKey("inkers", "new"), []models.Post{})
	cache.Set(querycache.PostsKey("inkers", "top"), []models.Post{})
	cache.Set(querycache.PostKey("p1"), models.Post{ID: "p1"})
	cache.Set(querycache.CommentsKey("p1"), []models.Comment{})
	cache.Set(querycache.CirclesKey(), []models.Circle{})
	cache.Set(querycache.MembersKey("inkers"), []models.CircleMembership{})

	c.ApplyEvent(models.ChangeEvent{Type: models.EventCommentLiked, CircleSlug: "inkers", PostID: "p1"})
	assert.False(t, cache.IsFresh(querycache.CommentsKey("p1")))
	assert.True(t, cache.IsFresh(querycache.PostKey("p1")), "a like does not change the post")

	c.ApplyEvent(models.ChangeEvent{Type: models.EventCommentCreated, CircleSlug: "inkers", PostID: "p1"})
	assert.False(t, cache.IsFresh(querycache.PostKey("p1")))
	assert.False(t, cache.IsFresh(querycache.PostsKey("inkers", "top")))

	c.ApplyEvent(models.ChangeEvent{Type: models.EventCircleJoined, CircleSlug: "inkers"})
	assert.False(t, cache.IsFresh(querycache.CirclesKey()))
	assert.False(t, cache.IsFresh(querycache.MembersKey("inkers")))
}

func TestReads_FetchAndServeFromCache(t *testing.T) {
	c, data := newTestCoordinator(t, session.Static(ada))
	ctx := context.Background()

	parent := "c1"
	data.On("ListComments", mock.Anything, "p1").Return([]models.Comment{
		{ID: "c1", PostID: "p1"},
		{ID: "c2", PostID: "p1", ParentID: &parent},
	}, nil).Once()
	data.On("ListCircles", mock.Anything).Return([]models.Circle{{ID: "ci1", Slug: "inkers"}}, nil).Once()

	forest, err := c.Thread(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, forest, 1)
	require.Len(t, forest[0].Replies, 1)

	_, err = c.Thread(ctx, "p1")
	require.NoError(t, err)

	circles, err := c.Circles(ctx)
	require.NoError(t, err)
	assert.Len(t, circles, 1)

	data.AssertExpectations(t)
}

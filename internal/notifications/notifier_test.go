package notifications

import (
	"context"
	"testing"
	"time"

	"circles/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestNotifier_NilClientIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.Publish(context.Background(), models.ChangeEvent{Type: models.EventPostCreated}))
	assert.NoError(t, n.Subscribe(context.Background(), EventsChannel, func(models.ChangeEvent) {}))
}

func TestCircleChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "circles:events:circle:inkers", CircleChannel("inkers"))
}

func TestNotifier_PublishSubscribe(t *testing.T) {
	n := NewNotifier(newRedis(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	all := make(chan models.ChangeEvent, 4)
	scoped := make(chan models.ChangeEvent, 4)
	require.NoError(t, n.Subscribe(ctx, EventsChannel, func(ev models.ChangeEvent) { all <- ev }))
	require.NoError(t, n.Subscribe(ctx, CircleChannel("inkers"), func(ev models.ChangeEvent) { scoped <- ev }))

	ev := models.ChangeEvent{Type: models.EventCommentCreated, CircleSlug: "inkers", PostID: "p1", CommentID: "c1"}
	require.NoError(t, n.Publish(ctx, ev))
	require.NoError(t, n.Publish(ctx, models.ChangeEvent{Type: models.EventCircleCreated, CircleSlug: "other"}))

	select {
	case got := <-all:
		assert.Equal(t, ev.Type, got.Type)
		assert.Equal(t, "c1", got.CommentID)
	case <-time.After(time.Second):
		t.Fatal("no event on global channel")
	}
	select {
	case got := <-scoped:
		assert.Equal(t, "p1", got.PostID)
	case <-time.After(time.Second):
		t.Fatal("no event on circle channel")
	}
	assert.Never(t, func() bool { return len(scoped) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestNotifier_HandlerPanicDoesNotStopLoop(t *testing.T) {
	rdb := newRedis(t)
	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan models.ChangeEventType, 2)
	require.NoError(t, n.Subscribe(ctx, EventsChannel, func(ev models.ChangeEvent) {
		if ev.Type == models.EventPostDeleted {
			panic("boom")
		}
		got <- ev.Type
	}))

	require.NoError(t, rdb.Publish(ctx, EventsChannel, "not json").Err())
	require.NoError(t, n.Publish(ctx, models.ChangeEvent{Type: models.EventPostDeleted}))
	require.NoError(t, n.Publish(ctx, models.ChangeEvent{Type: models.EventPostLiked}))

	select {
	case typ := <-got:
		assert.Equal(t, models.EventPostLiked, typ)
	case <-time.After(time.Second):
		t.Fatal("subscriber stopped after panic")
	}
}

func TestNotifier_StopsOnCancel(t *testing.T) {
	n := NewNotifier(newRedis(t))
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan models.ChangeEvent, 2)
	require.NoError(t, n.Subscribe(ctx, EventsChannel, func(ev models.ChangeEvent) { got <- ev }))
	cancel()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, n.Publish(context.Background(), models.ChangeEvent{Type: models.EventPostCreated}))
	assert.Never(t, func() bool { return len(got) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

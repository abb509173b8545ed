package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *payload) func() error {
		return func() error {
			calls++
			*dest = payload{ID: "p1", Count: 3}
			return nil
		}
	}

	var first payload
	require.NoError(t, Aside(ctx, PostKey("p1"), &first, PostTTL, fetch(&first)))
	assert.Equal(t, payload{ID: "p1", Count: 3}, first)
	assert.True(t, mr.Exists("post:p1"))
	assert.Equal(t, PostTTL, mr.TTL("post:p1"))

	var second payload
	require.NoError(t, Aside(ctx, PostKey("p1"), &second, PostTTL, fetch(&second)))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr := setupRedis(t)
	var dest payload
	err := Aside(context.Background(), CircleKey("inkers"), &dest, CircleTTL, func() error {
		return errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
	assert.False(t, mr.Exists("circle:inkers"))
}

func TestAside_RedisDownFallsBackToFetch(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	t.Cleanup(func() { SetClient(nil) })
	mr.Close()

	var dest payload
	err = Aside(context.Background(), PostKey("p2"), &dest, time.Minute, func() error {
		dest = payload{ID: "p2"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "p2", dest.ID)
}

func TestNilClientIsNoop(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	found, err := GetJSON(ctx, "k", &payload{})
	assert.False(t, found)
	assert.NoError(t, err)
	assert.NoError(t, SetJSON(ctx, "k", payload{}, time.Minute))
	Invalidate(ctx, "k")
}

func TestInvalidate(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()
	require.NoError(t, SetJSON(ctx, CircleKey("inkers"), payload{ID: "c"}, CircleTTL))
	require.NoError(t, SetJSON(ctx, PostKey("p1"), payload{ID: "p"}, PostTTL))

	InvalidateCircle(ctx, "inkers")
	InvalidatePost(ctx, "p1")
	assert.False(t, mr.Exists("circle:inkers"))
	assert.False(t, mr.Exists("post:p1"))
}

func TestNewClient_ParsesURL(t *testing.T) {
	c, err := NewClient("redis://localhost:6390/2")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6390", c.Options().Addr)
	assert.Equal(t, 2, c.Options().DB)

	_, err = NewClient("redis://%zz")
	assert.Error(t, err)
}

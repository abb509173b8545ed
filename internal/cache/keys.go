package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	CircleKeyPrefix = "circle:%s"
	PostKeyPrefix   = "post:%s"
)

const (
	CircleTTL = 10 * time.Minute
	PostTTL   = 5 * time.Minute
)

func CircleKey(slug string) string {
	return fmt.Sprintf(CircleKeyPrefix, slug)
}

func PostKey(postID string) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

// Invalidate deletes keys; a nil client or a Redis error is ignored.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateCircle(ctx context.Context, slug string) {
	Invalidate(ctx, CircleKey(slug))
}

func InvalidatePost(ctx context.Context, postID string) {
	Invalidate(ctx, PostKey(postID))
}

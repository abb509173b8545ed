package optimistic

import (
	"context"

	"circles/internal/models"
	"circles/internal/querycache"
	"circles/internal/thread"
)

// Circles returns the circle directory.
func (c *Coordinator) Circles(ctx context.Context) ([]models.Circle, error) {
	return querycache.FetchData(ctx, c.cache, querycache.CirclesKey(), c.data.ListCircles)
}

// Circle returns one circle by slug.
func (c *Coordinator) Circle(ctx context.Context, slug string) (models.Circle, error) {
	return querycache.FetchData(ctx, c.cache, querycache.CircleKey(slug), func(ctx context.Context) (models.Circle, error) {
		return c.data.GetCircle(ctx, slug)
	})
}

// Members returns the join roster of a circle.
func (c *Coordinator) Members(ctx context.Context, slug string) ([]models.CircleMembership, error) {
	return querycache.FetchData(ctx, c.cache, querycache.MembersKey(slug), func(ctx context.Context) ([]models.CircleMembership, error) {
		return c.data.ListMembers(ctx, slug)
	})
}

// Posts returns the posts of a circle in the given sort order ("new" when empty).
func (c *Coordinator) Posts(ctx context.Context, slug, sort string) ([]models.Post, error) {
	if sort == "" {
		sort = "new"
	}
	return querycache.FetchData(ctx, c.cache, querycache.PostsKey(slug, sort), func(ctx context.Context) ([]models.Post, error) {
		return c.data.ListPosts(ctx, slug, sort)
	})
}

// Post returns one post by id.
func (c *Coordinator) Post(ctx context.Context, id string) (models.Post, error) {
	return querycache.FetchData(ctx, c.cache, querycache.PostKey(id), func(ctx context.Context) (models.Post, error) {
		return c.data.GetPost(ctx, id)
	})
}

// Comments returns the flat comment list of a post in creation order.
func (c *Coordinator) Comments(ctx context.Context, postID string) ([]models.Comment, error) {
	return querycache.FetchData(ctx, c.cache, querycache.CommentsKey(postID), func(ctx context.Context) ([]models.Comment, error) {
		return c.data.ListComments(ctx, postID)
	})
}

// Thread returns the comments of a post as a reply forest. The forest is
// rebuilt from the cached list on every call.
func (c *Coordinator) Thread(ctx context.Context, postID string) ([]*thread.Node, error) {
	comments, err := c.Comments(ctx, postID)
	if err != nil {
		return nil, err
	}
	return thread.Build(comments), nil
}

// ApplyEvent marks the scopes touched by a change committed elsewhere as
// stale. Unobserved scopes are only marked; they refetch on their next read.
func (c *Coordinator) ApplyEvent(ev models.ChangeEvent) {
	switch ev.Type {
	case models.EventCircleCreated, models.EventCircleUpdated, models.EventCircleDeleted:
		c.cache.Invalidate(querycache.CirclesKey())
		c.cache.Invalidate(querycache.CircleKey(ev.CircleSlug))
	case models.EventCircleJoined, models.EventCircleLeft:
		c.cache.Invalidate(querycache.CirclesKey())
		c.cache.Invalidate(querycache.CircleKey(ev.CircleSlug))
		c.cache.Invalidate(querycache.MembersKey(ev.CircleSlug))
	case models.EventPostCreated, models.EventPostUpdated, models.EventPostDeleted, models.EventPostLiked:
		if ev.CircleSlug != "" {
			c.cache.InvalidatePrefix(querycache.PostsPrefix(ev.CircleSlug))
		}
		c.cache.Invalidate(querycache.PostKey(ev.PostID))
	case models.EventCommentCreated, models.EventCommentUpdated, models.EventCommentDeleted, models.EventCommentLiked:
		c.cache.Invalidate(querycache.CommentsKey(ev.PostID))
		if ev.Type == models.EventCommentCreated || ev.Type == models.EventCommentDeleted {
			c.cache.Invalidate(querycache.PostKey(ev.PostID))
			if ev.CircleSlug != "" {
				c.cache.InvalidatePrefix(querycache.PostsPrefix(ev.CircleSlug))
			}
		}
	}
}

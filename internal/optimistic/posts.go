package optimistic

import (
	"context"
	"strings"

	"circles/internal/models"
	"circles/internal/querycache"
	"circles/internal/validation"
)

var errNotSaved = &validation.FieldError{Field: "id", Message: "record has not been saved yet"}

// CreatePost adds a post to the circle. Until the data service answers,
// every cached post list of the circle shows a speculative post with a
// temporary id at the top; the newest-first list is created if it was not
// cached. On failure the lists are restored and req is kept under
// PostDraftKey(slug).
func (c *Coordinator) CreatePost(ctx context.Context, slug string, req models.CreatePostRequest) (models.Post, error) {
	const op = "create_post"
	if err := validation.ValidatePostTitle(req.Title); err != nil {
		return models.Post{}, c.reject(op, err)
	}
	if err := validation.ValidatePostContent(req.Content); err != nil {
		return models.Post{}, c.reject(op, err)
	}
	tags, err := validation.NormalizeTags(req.Tags)
	if err != nil {
		return models.Post{}, c.reject(op, err)
	}
	me, err := c.session.Current(ctx)
	if err != nil {
		return models.Post{}, c.reject(op, err)
	}

	now := c.now()
	tmp := models.Post{
		ID:                NewTempID(),
		AuthorID:          me.UserID,
		AuthorDisplayName: me.DisplayName,
		AuthorImageURL:    me.ImageURL,
		Title:             strings.TrimSpace(req.Title),
		Content:           req.Content,
		URL:               req.URL,
		ImageURL:          req.ImageURL,
		Tags:              models.Tags(tags),
		LikedBy:           []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if circle, ok := querycache.GetData[models.Circle](c.cache, querycache.CircleKey(slug)); ok {
		tmp.CircleID = circle.ID
	}

	newest := querycache.PostsKey(slug, "new")
	scopes := appendUnique(c.cache.KeysWithPrefix(querycache.PostsPrefix(slug)), newest)

	commitReq := req
	commitReq.Tags = tags
	var created models.Post
	err = c.run(ctx, mutation{
		kind:     op,
		scopes:   scopes,
		draftKey: PostDraftKey(slug),
		draft:    req,
		apply: func() {
			for _, k := range scopes {
				if k == newest {
					querycache.UpsertData(c.cache, k, func(old []models.Post, _ bool) []models.Post {
						return prepend(old, tmp)
					})
					continue
				}
				querycache.UpdateData(c.cache, k, func(old []models.Post) []models.Post {
					return prepend(old, tmp)
				})
			}
		},
		commit: func(ctx context.Context) error {
			var err error
			created, err = c.data.CreatePost(ctx, slug, commitReq)
			return err
		},
		reconcile: func() {
			for _, k := range scopes {
				querycache.UpdateData(c.cache, k, func(old []models.Post) []models.Post {
					out, _ := mapByID(old, tmp.ID, postID, func(models.Post) models.Post { return created })
					return out
				})
			}
		},
	})
	if err != nil {
		return models.Post{}, err
	}
	return created, nil
}

// UpdatePost patches a post the current user authored. Nil request fields
// are left unchanged.
func (c *Coordinator) UpdatePost(ctx context.Context, id string, req models.UpdatePostRequest) (models.Post, error) {
	const op = "update_post"
	draft := req
	if IsTempID(id) {
		return models.Post{}, c.reject(op, errNotSaved)
	}
	if req.Title != nil {
		if err := validation.ValidatePostTitle(*req.Title); err != nil {
			return models.Post{}, c.reject(op, err)
		}
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	if req.Content != nil {
		if err := validation.ValidatePostContent(*req.Content); err != nil {
			return models.Post{}, c.reject(op, err)
		}
	}
	var tags []string
	if req.Tags != nil {
		var err error
		if tags, err = validation.NormalizeTags(*req.Tags); err != nil {
			return models.Post{}, c.reject(op, err)
		}
		req.Tags = &tags
	}
	if err := c.requirePostAuthor(ctx, id); err != nil {
		return models.Post{}, c.reject(op, err)
	}

	scopes := c.postScopes(id)
	var updated models.Post
	err := c.run(ctx, mutation{
		kind:     op,
		scopes:   scopes,
		draftKey: PostEditDraftKey(id),
		draft:    draft,
		apply: func() {
			c.eachPost(scopes, id, func(p models.Post) models.Post { return patchPost(p, req, tags) })
		},
		commit: func(ctx context.Context) error {
			var err error
			updated, err = c.data.UpdatePost(ctx, id, req)
			return err
		},
		reconcile: func() {
			c.eachPost(scopes, id, func(p models.Post) models.Post { return withCounts(updated, p) })
		},
	})
	if err != nil {
		return models.Post{}, err
	}
	return updated, nil
}

// DeletePost removes a post the current user authored from every cached
// list and drops its detail scope.
func (c *Coordinator) DeletePost(ctx context.Context, id string) error {
	const op = "delete_post"
	if IsTempID(id) {
		return c.reject(op, errNotSaved)
	}
	if err := c.requirePostAuthor(ctx, id); err != nil {
		return c.reject(op, err)
	}

	scopes := c.postScopes(id)
	detail := querycache.PostKey(id)
	return c.run(ctx, mutation{
		kind:   op,
		scopes: scopes,
		apply: func() {
			for _, k := range scopes {
				if k == detail {
					c.cache.Remove(k)
					continue
				}
				querycache.UpdateData(c.cache, k, func(old []models.Post) []models.Post {
					out, _ := removeByID(old, id, postID)
					return out
				})
			}
		},
		commit: func(ctx context.Context) error { return c.data.DeletePost(ctx, id) },
	})
}

// TogglePostLike flips the current user's like on a post in every cached
// copy of it. Toggling twice restores the original like state.
func (c *Coordinator) TogglePostLike(ctx context.Context, id string) (models.Post, error) {
	const op = "toggle_post_like"
	if IsTempID(id) {
		return models.Post{}, c.reject(op, errNotSaved)
	}
	me, err := c.session.Current(ctx)
	if err != nil {
		return models.Post{}, c.reject(op, err)
	}

	scopes := c.postScopes(id)
	var result models.Post
	err = c.run(ctx, mutation{
		kind:   op,
		scopes: scopes,
		apply: func() {
			c.eachPost(scopes, id, func(p models.Post) models.Post { return togglePost(p, me.UserID) })
		},
		commit: func(ctx context.Context) error {
			var err error
			result, err = c.data.TogglePostLike(ctx, id)
			return err
		},
		reconcile: func() {
			c.eachPost(scopes, id, func(p models.Post) models.Post {
				p.LikedBy, p.UpvoteCount = result.LikedBy, result.UpvoteCount
				return p
			})
		},
	})
	if err != nil {
		return models.Post{}, err
	}
	return result, nil
}

// postScopes is the detail scope of a post plus every cached list holding it.
func (c *Coordinator) postScopes(id string) []querycache.Key {
	scopes := []querycache.Key{querycache.PostKey(id)}
	for _, k := range c.cache.KeysWithPrefix("posts:") {
		if list, ok := querycache.GetData[[]models.Post](c.cache, k); ok && containsID(list, id, postID) {
			scopes = append(scopes, k)
		}
	}
	return scopes
}

// eachPost rewrites post id wherever it is cached among scopes.
func (c *Coordinator) eachPost(scopes []querycache.Key, id string, fn func(models.Post) models.Post) {
	detail := querycache.PostKey(id)
	for _, k := range scopes {
		if k == detail {
			querycache.UpdateData(c.cache, k, fn)
			continue
		}
		querycache.UpdateData(c.cache, k, func(old []models.Post) []models.Post {
			out, _ := mapByID(old, id, postID, fn)
			return out
		})
	}
}

// findPost looks a post up in the cache without fetching.
func (c *Coordinator) findPost(id string) (models.Post, bool) {
	if p, ok := querycache.GetData[models.Post](c.cache, querycache.PostKey(id)); ok {
		return p, true
	}
	for _, k := range c.cache.KeysWithPrefix("posts:") {
		list, _ := querycache.GetData[[]models.Post](c.cache, k)
		for _, p := range list {
			if p.ID == id {
				return p, true
			}
		}
	}
	return models.Post{}, false
}

// requirePostAuthor refuses edits to a cached post authored by someone else.
// Posts that are not cached are left to the data service to judge.
func (c *Coordinator) requirePostAuthor(ctx context.Context, id string) error {
	me, err := c.session.Current(ctx)
	if err != nil {
		return err
	}
	if p, ok := c.findPost(id); ok && p.AuthorID != me.UserID {
		return models.NewForbiddenError("only the author can change this post")
	}
	return nil
}

// withCounts keeps the derived counters of the cached copy when the server
// response omits them.
func withCounts(server, cached models.Post) models.Post {
	if server.LikedBy == nil {
		server.LikedBy, server.UpvoteCount = cached.LikedBy, cached.UpvoteCount
	}
	if server.CommentCount == 0 {
		server.CommentCount = cached.CommentCount
	}
	return server
}

func appendUnique(keys []querycache.Key, k querycache.Key) []querycache.Key {
	for _, have := range keys {
		if have == k {
			return keys
		}
	}
	return append(keys, k)
}

package optimistic

import (
	"context"

	"circles/internal/models"
	"circles/internal/querycache"
	"circles/internal/validation"
)

// CreateComment appends a speculative comment to the post's cached comment
// list and bumps the post's comment count wherever the post is cached. A
// reply to a comment that is itself still speculative is rejected.
func (c *Coordinator) CreateComment(ctx context.Context, postID string, req models.CreateCommentRequest) (models.Comment, error) {
	const op = "create_comment"
	if IsTempID(postID) {
		return models.Comment{}, c.reject(op, errNotSaved)
	}
	if req.ParentID != nil && IsTempID(*req.ParentID) {
		return models.Comment{}, c.reject(op, errNotSaved)
	}
	if err := validation.ValidateCommentContent(req.Content); err != nil {
		return models.Comment{}, c.reject(op, err)
	}
	me, err := c.session.Current(ctx)
	if err != nil {
		return models.Comment{}, c.reject(op, err)
	}

	now := c.now()
	tmp := models.Comment{
		ID:                NewTempID(),
		PostID:            postID,
		ParentID:          req.ParentID,
		AuthorID:          me.UserID,
		AuthorDisplayName: me.DisplayName,
		AuthorImageURL:    me.ImageURL,
		Content:           req.Content,
		LikedBy:           []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	list := querycache.CommentsKey(postID)
	postScopes := c.postScopes(postID)
	scopes := append([]querycache.Key{list}, postScopes...)

	var created models.Comment
	err = c.run(ctx, mutation{
		kind:     op,
		scopes:   scopes,
		draftKey: CommentDraftKey(postID, req.ParentID),
		draft:    req,
		apply: func() {
			querycache.UpdateData(c.cache, list, func(old []models.Comment) []models.Comment {
				return appendCopy(old, tmp)
			})
			c.eachPost(postScopes, postID, func(p models.Post) models.Post {
				p.CommentCount++
				return p
			})
		},
		commit: func(ctx context.Context) error {
			var err error
			created, err = c.data.CreateComment(ctx, postID, req)
			return err
		},
		reconcile: func() {
			querycache.UpdateData(c.cache, list, func(old []models.Comment) []models.Comment {
				out, _ := mapByID(old, tmp.ID, commentID, func(models.Comment) models.Comment { return created })
				return out
			})
		},
	})
	if err != nil {
		return models.Comment{}, err
	}
	return created, nil
}

// UpdateComment replaces the content of a comment the current user authored.
func (c *Coordinator) UpdateComment(ctx context.Context, postID, id string, req models.UpdateCommentRequest) (models.Comment, error) {
	const op = "update_comment"
	if IsTempID(id) {
		return models.Comment{}, c.reject(op, errNotSaved)
	}
	if err := validation.ValidateCommentContent(req.Content); err != nil {
		return models.Comment{}, c.reject(op, err)
	}
	if err := c.requireCommentAuthor(ctx, postID, id); err != nil {
		return models.Comment{}, c.reject(op, err)
	}

	list := querycache.CommentsKey(postID)
	var updated models.Comment
	err := c.run(ctx, mutation{
		kind:     op,
		scopes:   []querycache.Key{list},
		draftKey: CommentEditDraftKey(id),
		draft:    req,
		apply: func() {
			c.eachComment(list, id, func(cm models.Comment) models.Comment {
				cm.Content = req.Content
				return cm
			})
		},
		commit: func(ctx context.Context) error {
			var err error
			updated, err = c.data.UpdateComment(ctx, id, req)
			return err
		},
		reconcile: func() {
			c.eachComment(list, id, func(cm models.Comment) models.Comment {
				cm.Content, cm.UpdatedAt = updated.Content, updated.UpdatedAt
				return cm
			})
		},
	})
	if err != nil {
		return models.Comment{}, err
	}
	return updated, nil
}

// DeleteComment removes a comment the current user authored. Its replies
// stay cached and surface as top-level comments in the thread.
func (c *Coordinator) DeleteComment(ctx context.Context, postID, id string) error {
	const op = "delete_comment"
	if IsTempID(id) {
		return c.reject(op, errNotSaved)
	}
	if err := c.requireCommentAuthor(ctx, postID, id); err != nil {
		return c.reject(op, err)
	}

	list := querycache.CommentsKey(postID)
	postScopes := c.postScopes(postID)
	return c.run(ctx, mutation{
		kind:   op,
		scopes: append([]querycache.Key{list}, postScopes...),
		apply: func() {
			querycache.UpdateData(c.cache, list, func(old []models.Comment) []models.Comment {
				out, _ := removeByID(old, id, commentID)
				return out
			})
			c.eachPost(postScopes, postID, func(p models.Post) models.Post {
				if p.CommentCount > 0 {
					p.CommentCount--
				}
				return p
			})
		},
		commit: func(ctx context.Context) error { return c.data.DeleteComment(ctx, id) },
	})
}

// ToggleCommentLike flips the current user's like on a comment of postID.
func (c *Coordinator) ToggleCommentLike(ctx context.Context, postID, id string) (models.Comment, error) {
	const op = "toggle_comment_like"
	if IsTempID(id) {
		return models.Comment{}, c.reject(op, errNotSaved)
	}
	me, err := c.session.Current(ctx)
	if err != nil {
		return models.Comment{}, c.reject(op, err)
	}

	list := querycache.CommentsKey(postID)
	var result models.Comment
	err = c.run(ctx, mutation{
		kind:   op,
		scopes: []querycache.Key{list},
		apply: func() {
			c.eachComment(list, id, func(cm models.Comment) models.Comment { return toggleComment(cm, me.UserID) })
		},
		commit: func(ctx context.Context) error {
			var err error
			result, err = c.data.ToggleCommentLike(ctx, id)
			return err
		},
		reconcile: func() {
			c.eachComment(list, id, func(cm models.Comment) models.Comment {
				cm.LikedBy, cm.UpvoteCount = result.LikedBy, result.UpvoteCount
				return cm
			})
		},
	})
	if err != nil {
		return models.Comment{}, err
	}
	return result, nil
}

func (c *Coordinator) eachComment(list querycache.Key, id string, fn func(models.Comment) models.Comment) {
	querycache.UpdateData(c.cache, list, func(old []models.Comment) []models.Comment {
		out, _ := mapByID(old, id, commentID, fn)
		return out
	})
}

func (c *Coordinator) requireCommentAuthor(ctx context.Context, postID, id string) error {
	me, err := c.session.Current(ctx)
	if err != nil {
		return err
	}
	list, _ := querycache.GetData[[]models.Comment](c.cache, querycache.CommentsKey(postID))
	for _, cm := range list {
		if cm.ID == id && cm.AuthorID != me.UserID {
			return models.NewForbiddenError("only the author can change this comment")
		}
	}
	return nil
}

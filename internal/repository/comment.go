package repository

import (
	"context"
	"log/slog"

	"circles/internal/cache"
	"circles/internal/models"
	"circles/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, comment *models.Comment) error
	ToggleLike(ctx context.Context, commentID, userID string) (bool, error)
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("create", "comments")()
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	comment.LikedBy = []string{}
	cache.InvalidatePost(ctx, comment.PostID)
	r.log.LogWrite(ctx, "create", slog.String("comment_id", comment.ID), slog.String("post_id", comment.PostID))
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	if err := r.decorate(ctx, []*models.Comment{&comment}); err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByPost returns the post's comments in creation order so that the tree
// builder sees parents before their replies.
func (r *commentRepository) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	defer observability.TrackQuery("list_by_post", "comments")()
	var comments []*models.Comment
	err := readDB(r.db).WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	if err := r.decorate(ctx, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("update", "comments")()
	err := r.db.WithContext(ctx).Model(comment).Select("content", "updated_at").Updates(comment).Error
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return err
	}
	r.log.LogWrite(ctx, "update", slog.String("comment_id", comment.ID))
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("delete", "comments")()
	if err := r.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", comment.ID).Error; err != nil {
		r.log.LogError(ctx, err, "delete")
		return err
	}
	cache.InvalidatePost(ctx, comment.PostID)
	r.log.LogWrite(ctx, "delete", slog.String("comment_id", comment.ID))
	return nil
}

func (r *commentRepository) ToggleLike(ctx context.Context, commentID, userID string) (bool, error) {
	defer observability.TrackQuery("toggle_like", "likes")()
	liked, err := toggleLike(ctx, r.db, models.LikeTargetComment, commentID, userID)
	if err != nil {
		r.log.LogError(ctx, err, "toggle_like")
	}
	return liked, err
}

func (r *commentRepository) decorate(ctx context.Context, comments []*models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	likes, err := loadLikes(ctx, readDB(r.db), models.LikeTargetComment, ids)
	if err != nil {
		return err
	}
	for _, c := range comments {
		c.LikedBy = likes[c.ID]
		if c.LikedBy == nil {
			c.LikedBy = []string{}
		}
		c.UpvoteCount = len(c.LikedBy)
	}
	return nil
}

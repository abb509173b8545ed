package repository

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"circles/internal/cache"
	"circles/internal/models"
	"circles/internal/observability"

	"gorm.io/gorm"
)

// Post list orders accepted by ListByCircle.
const (
	SortNew = "new"
	SortTop = "top"
	SortHot = "hot"
)

// hotWindow bounds how many recent posts are ranked in memory for SortHot.
const hotWindow = 500

// NormalizeSort maps unknown or empty sort names to SortNew.
func NormalizeSort(s string) string {
	switch s {
	case SortTop, SortHot:
		return s
	default:
		return SortNew
	}
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	ListByCircle(ctx context.Context, circleID, sort string, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, postID, userID string) (bool, error)
}

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
	now func() time.Time
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts"), now: time.Now}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	post.LikedBy = []string{}
	r.log.LogWrite(ctx, "create", slog.String("post_id", post.ID))
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	defer observability.TrackQuery("get_by_id", "posts")()
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
			return err
		}
		return r.decorate(ctx, []*models.Post{&post})
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ListByCircle(ctx context.Context, circleID, sortBy string, limit, offset int) ([]*models.Post, error) {
	defer observability.TrackQuery("list_by_circle", "posts")()
	limit, offset = clampPage(limit, offset)
	base := readDB(r.db).WithContext(ctx).Where("circle_id = ?", circleID)

	var posts []*models.Post
	switch NormalizeSort(sortBy) {
	case SortHot:
		if err := base.Order("created_at DESC").Limit(hotWindow).Find(&posts).Error; err != nil {
			return nil, err
		}
		if err := r.decorate(ctx, posts); err != nil {
			return nil, err
		}
		rankHot(posts, r.now())
		if offset >= len(posts) {
			return []*models.Post{}, nil
		}
		end := min(offset+limit, len(posts))
		return posts[offset:end], nil
	case SortTop:
		base = base.Order("(SELECT COUNT(*) FROM likes WHERE likes.target_type = 'post' AND likes.target_id = posts.id) DESC, created_at DESC")
	default:
		base = base.Order("created_at DESC")
	}

	if err := base.Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		return nil, err
	}
	if err := r.decorate(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("update", "posts")()
	err := r.db.WithContext(ctx).Model(post).
		Select("title", "content", "url", "image_url", "tags", "updated_at").
		Updates(post).Error
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return err
	}
	cache.InvalidatePost(ctx, post.ID)
	r.log.LogWrite(ctx, "update", slog.String("post_id", post.ID))
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	defer observability.TrackQuery("delete", "posts")()
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, "id = ?", id).Error; err != nil {
		r.log.LogError(ctx, err, "delete")
		return err
	}
	cache.InvalidatePost(ctx, id)
	r.log.LogWrite(ctx, "delete", slog.String("post_id", id))
	return nil
}

func (r *postRepository) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	defer observability.TrackQuery("toggle_like", "likes")()
	liked, err := toggleLike(ctx, r.db, models.LikeTargetPost, postID, userID)
	if err != nil {
		r.log.LogError(ctx, err, "toggle_like")
		return false, err
	}
	cache.InvalidatePost(ctx, postID)
	return liked, nil
}

// decorate fills the derived LikedBy, UpvoteCount and CommentCount fields.
func (r *postRepository) decorate(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	db := readDB(r.db)
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	likes, err := loadLikes(ctx, db, models.LikeTargetPost, ids)
	if err != nil {
		return err
	}

	var rows []struct {
		PostID string
		Total  int
	}
	err = db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("count comments: %w", err)
	}
	comments := make(map[string]int, len(rows))
	for _, row := range rows {
		comments[row.PostID] = row.Total
	}

	for _, p := range posts {
		p.LikedBy = likes[p.ID]
		if p.LikedBy == nil {
			p.LikedBy = []string{}
		}
		p.UpvoteCount = len(p.LikedBy)
		p.CommentCount = comments[p.ID]
	}
	return nil
}

// hotScore decays engagement with age: (upvotes + 2*comments) / (hours+2)^1.5.
func hotScore(p *models.Post, now time.Time) float64 {
	hours := now.Sub(p.CreatedAt).Hours()
	if hours < 0 {
		hours = 0
	}
	return float64(p.UpvoteCount+2*p.CommentCount) / math.Pow(hours+2, 1.5)
}

// rankHot sorts posts by hotScore, newest first on ties.
func rankHot(posts []*models.Post, now time.Time) {
	sort.SliceStable(posts, func(i, j int) bool {
		si, sj := hotScore(posts[i], now), hotScore(posts[j], now)
		if si != sj {
			return si > sj
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

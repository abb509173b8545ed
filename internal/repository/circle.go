package repository

import (
	"context"
	"fmt"
	"log/slog"

	"circles/internal/cache"
	"circles/internal/models"
	"circles/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CircleRepository defines the interface for circle and membership data operations.
type CircleRepository interface {
	Create(ctx context.Context, circle *models.Circle, owner models.CircleMembership) error
	GetBySlug(ctx context.Context, slug, viewerID string) (*models.Circle, error)
	GetByID(ctx context.Context, id string) (*models.Circle, error)
	List(ctx context.Context, viewerID string, limit, offset int) ([]*models.Circle, error)
	Update(ctx context.Context, circle *models.Circle) error
	Delete(ctx context.Context, circle *models.Circle) error
	Join(ctx context.Context, membership *models.CircleMembership) (bool, error)
	Leave(ctx context.Context, circleID, userID string) (bool, error)
	GetMembership(ctx context.Context, circleID, userID string) (*models.CircleMembership, error)
	ListMembers(ctx context.Context, circleID string) ([]*models.CircleMembership, error)
}

type circleRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCircleRepository creates a new circle repository
func NewCircleRepository(db *gorm.DB) CircleRepository {
	return &circleRepository{db: db, log: observability.NewRepoLogger("circles")}
}

// Create inserts the circle and its owner membership in one transaction.
func (r *circleRepository) Create(ctx context.Context, circle *models.Circle, owner models.CircleMembership) error {
	defer observability.TrackQuery("create", "circles")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(circle).Error; err != nil {
			return err
		}
		owner.CircleID = circle.ID
		owner.Role = models.MembershipRoleOwner
		return tx.Create(&owner).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	circle.MemberCount = 1
	circle.Joined = true
	r.log.LogWrite(ctx, "create", slog.String("slug", circle.Slug))
	return nil
}

// GetBySlug returns the circle with its member count. The shared part is
// cached in Redis; Joined is resolved per viewer.
func (r *circleRepository) GetBySlug(ctx context.Context, slug, viewerID string) (*models.Circle, error) {
	defer observability.TrackQuery("get_by_slug", "circles")()
	var circle models.Circle
	err := cache.Aside(ctx, cache.CircleKey(slug), &circle, cache.CircleTTL, func() error {
		db := readDB(r.db).WithContext(ctx)
		if err := db.Where("slug = ?", slug).First(&circle).Error; err != nil {
			return err
		}
		counts, err := r.memberCounts(ctx, []string{circle.ID})
		if err != nil {
			return err
		}
		circle.MemberCount = counts[circle.ID]
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := r.resolveJoined(ctx, viewerID, []*models.Circle{&circle}); err != nil {
		return nil, err
	}
	return &circle, nil
}

func (r *circleRepository) GetByID(ctx context.Context, id string) (*models.Circle, error) {
	var circle models.Circle
	if err := readDB(r.db).WithContext(ctx).Where("id = ?", id).First(&circle).Error; err != nil {
		return nil, err
	}
	return &circle, nil
}

func (r *circleRepository) List(ctx context.Context, viewerID string, limit, offset int) ([]*models.Circle, error) {
	defer observability.TrackQuery("list", "circles")()
	limit, offset = clampPage(limit, offset)
	var circles []*models.Circle
	err := readDB(r.db).WithContext(ctx).
		Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&circles).Error
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(circles))
	for i, c := range circles {
		ids[i] = c.ID
	}
	counts, err := r.memberCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range circles {
		c.MemberCount = counts[c.ID]
	}
	if err := r.resolveJoined(ctx, viewerID, circles); err != nil {
		return nil, err
	}
	return circles, nil
}

func (r *circleRepository) Update(ctx context.Context, circle *models.Circle) error {
	defer observability.TrackQuery("update", "circles")()
	err := r.db.WithContext(ctx).Model(circle).Select("name", "description", "image_url", "updated_at").Updates(circle).Error
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return err
	}
	cache.InvalidateCircle(ctx, circle.Slug)
	r.log.LogWrite(ctx, "update", slog.String("slug", circle.Slug))
	return nil
}

// Delete removes the circle and its memberships and soft-deletes its posts.
func (r *circleRepository) Delete(ctx context.Context, circle *models.Circle) error {
	defer observability.TrackQuery("delete", "circles")()
	var postIDs []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("circle_id = ?", circle.ID).Delete(&models.CircleMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("circle_id = ?", circle.ID).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("circle_id = ?", circle.ID).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Circle{}, "id = ?", circle.ID).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return err
	}
	cache.InvalidateCircle(ctx, circle.Slug)
	for _, id := range postIDs {
		cache.InvalidatePost(ctx, id)
	}
	r.log.LogWrite(ctx, "delete", slog.String("slug", circle.Slug))
	return nil
}

// Join inserts the membership unless it already exists and reports whether
// a row was created.
func (r *circleRepository) Join(ctx context.Context, membership *models.CircleMembership) (bool, error) {
	defer observability.TrackQuery("join", "circle_memberships")()
	if membership.Role == "" {
		membership.Role = models.MembershipRoleMember
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(membership)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "join")
		return false, res.Error
	}
	r.invalidateCircleByID(ctx, membership.CircleID)
	return res.RowsAffected > 0, nil
}

func (r *circleRepository) Leave(ctx context.Context, circleID, userID string) (bool, error) {
	defer observability.TrackQuery("leave", "circle_memberships")()
	res := r.db.WithContext(ctx).
		Where("circle_id = ? AND user_id = ?", circleID, userID).
		Delete(&models.CircleMembership{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "leave")
		return false, res.Error
	}
	r.invalidateCircleByID(ctx, circleID)
	return res.RowsAffected > 0, nil
}

func (r *circleRepository) GetMembership(ctx context.Context, circleID, userID string) (*models.CircleMembership, error) {
	var m models.CircleMembership
	err := r.db.WithContext(ctx).
		Where("circle_id = ? AND user_id = ?", circleID, userID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMembers returns the roster with the owner first, then by join time.
func (r *circleRepository) ListMembers(ctx context.Context, circleID string) ([]*models.CircleMembership, error) {
	var members []*models.CircleMembership
	err := readDB(r.db).WithContext(ctx).
		Where("circle_id = ?", circleID).
		Order("CASE WHEN role = 'owner' THEN 0 ELSE 1 END, created_at ASC").
		Find(&members).Error
	return members, err
}

func (r *circleRepository) memberCounts(ctx context.Context, circleIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(circleIDs))
	if len(circleIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		CircleID string
		Total    int
	}
	err := readDB(r.db).WithContext(ctx).
		Model(&models.CircleMembership{}).
		Select("circle_id, COUNT(*) AS total").
		Where("circle_id IN ?", circleIDs).
		Group("circle_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}
	for _, row := range rows {
		out[row.CircleID] = row.Total
	}
	return out, nil
}

func (r *circleRepository) resolveJoined(ctx context.Context, viewerID string, circles []*models.Circle) error {
	for _, c := range circles {
		c.Joined = false
	}
	if viewerID == "" || len(circles) == 0 {
		return nil
	}
	ids := make([]string, len(circles))
	for i, c := range circles {
		ids[i] = c.ID
	}
	var joined []string
	err := r.db.WithContext(ctx).
		Model(&models.CircleMembership{}).
		Where("user_id = ? AND circle_id IN ?", viewerID, ids).
		Pluck("circle_id", &joined).Error
	if err != nil {
		return fmt.Errorf("resolve joined: %w", err)
	}
	set := make(map[string]struct{}, len(joined))
	for _, id := range joined {
		set[id] = struct{}{}
	}
	for _, c := range circles {
		_, c.Joined = set[c.ID]
	}
	return nil
}

func (r *circleRepository) invalidateCircleByID(ctx context.Context, circleID string) {
	var slugs []string
	if err := r.db.WithContext(ctx).Model(&models.Circle{}).Where("id = ?", circleID).Pluck("slug", &slugs).Error; err == nil && len(slugs) > 0 {
		cache.InvalidateCircle(ctx, slugs[0])
	}
}

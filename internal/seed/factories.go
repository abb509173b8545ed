package seed

import (
	"context"
	"fmt"
	"time"

	"circles/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Member is a seeded identity. Accounts live with the identity provider, so
// only the fields the data service denormalises onto records are generated.
type Member struct {
	ID          string
	DisplayName string
	ImageURL    string
}

// Membership returns the roster row for m in circle.
func (m Member) Membership(circle *models.Circle, role models.MembershipRole) models.CircleMembership {
	return models.CircleMembership{
		CircleID:    circle.ID,
		UserID:      m.ID,
		DisplayName: m.DisplayName,
		ImageURL:    m.ImageURL,
		Role:        role,
	}
}

// Factory builds domain records and persists them to the database.
// It is a thin helper used by the seeder, presets and tests.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	now   func() time.Time
}

// NewFactory creates a Factory bound to db. A zero Options.RandomSeed seeds
// from the clock.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed), now: time.Now}
}

// NewMember generates a fake identity.
func (f *Factory) NewMember() Member {
	id := f.faker.UUID()
	return Member{
		ID:          id,
		DisplayName: f.faker.Name(),
		ImageURL:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", id),
	}
}

func (f *Factory) window() time.Duration {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	return time.Duration(maxDays) * 24 * time.Hour
}

// backdate picks a created_at within the last MaxDays days, never before notBefore.
func (f *Factory) backdate(notBefore time.Time) time.Time {
	now := f.now()
	start := now.Add(-f.window())
	if notBefore.After(start) {
		start = notBefore
	}
	if !start.Before(now) {
		return now
	}
	return start.Add(time.Duration(f.faker.Float64Range(0, 1) * float64(now.Sub(start))))
}

// CreateCircle persists a circle owned by owner together with the owner's membership.
func (f *Factory) CreateCircle(ctx context.Context, owner Member, name, slug, description string) (*models.Circle, error) {
	circle := &models.Circle{
		Name:        name,
		Slug:        slug,
		Description: description,
		ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s/400/400", slug),
		OwnerID:     owner.ID,
		CreatedAt:   f.now().Add(-f.window()),
	}
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(circle).Error; err != nil {
			return err
		}
		m := owner.Membership(circle, models.MembershipRoleOwner)
		return tx.Create(&m).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create circle %s: %w", slug, err)
	}
	return circle, nil
}

// Join adds m to circle as a member. Existing memberships are left alone.
func (f *Factory) Join(ctx context.Context, circle *models.Circle, m Member) error {
	row := m.Membership(circle, models.MembershipRoleMember)
	return f.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// BuildPost constructs a post in circle by author without persisting it.
// Roughly a third of posts carry a link and a third an image.
func (f *Factory) BuildPost(circle *models.Circle, author Member, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		CircleID:          circle.ID,
		AuthorID:          author.ID,
		AuthorDisplayName: author.DisplayName,
		AuthorImageURL:    author.ImageURL,
		Title:             f.faker.Sentence(f.faker.Number(3, 9)),
		Content:           f.faker.Paragraph(1, f.faker.Number(1, 4), 12, "\n\n"),
		Tags:              models.Tags{f.faker.Word(), f.faker.Word()},
	}
	post.CreatedAt = f.backdate(circle.CreatedAt)
	post.UpdatedAt = post.CreatedAt

	switch f.faker.Number(0, 2) {
	case 0:
		post.URL = f.faker.URL()
	case 1:
		post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost builds and persists a single post.
func (f *Factory) CreatePost(ctx context.Context, circle *models.Circle, author Member, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(circle, author, overrides...)
	if err := f.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// CreatePostsBatch persists posts in chunks of 100.
func (f *Factory) CreatePostsBatch(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.WithContext(ctx).CreateInBatches(posts, 100).Error
}

// BuildComment constructs a comment on post, replying to parent when non-nil.
func (f *Factory) BuildComment(post *models.Post, author Member, parent *models.Comment) *models.Comment {
	comment := &models.Comment{
		PostID:            post.ID,
		AuthorID:          author.ID,
		AuthorDisplayName: author.DisplayName,
		AuthorImageURL:    author.ImageURL,
		Content:           f.faker.Sentence(f.faker.Number(4, 20)),
	}
	after := post.CreatedAt
	if parent != nil {
		id := parent.ID
		comment.ParentID = &id
		after = parent.CreatedAt
	}
	comment.CreatedAt = f.backdate(after)
	comment.UpdatedAt = comment.CreatedAt
	return comment
}

// CreateComment builds and persists a comment.
func (f *Factory) CreateComment(ctx context.Context, post *models.Post, author Member, parent *models.Comment) (*models.Comment, error) {
	comment := f.BuildComment(post, author, parent)
	if err := f.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// Like records m's like on the target. Repeated likes are ignored.
func (f *Factory) Like(ctx context.Context, target models.LikeTarget, targetID string, m Member) error {
	like := models.Like{TargetType: target, TargetID: targetID, UserID: m.ID}
	return f.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error
}

// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"circles/internal/models"
	"circles/internal/observability"

	"gorm.io/gorm"
)

// SystemOwnerID owns the built-in circles.
const SystemOwnerID = "system"

// Options configures the seeder.
type Options struct {
	NumMembers      int
	NumCircles      int
	PostsPerCircle  int
	CommentsPerPost int
	// MaxDepth bounds reply nesting; 1 means top-level comments only.
	MaxDepth    int
	LikeRatio   float64
	MaxDays     int
	ShouldClean bool
	// RandomSeed makes runs reproducible when non-zero.
	RandomSeed int64
}

// DefaultOptions is the demo population used by cmd/seed without a preset.
func DefaultOptions() Options {
	return Options{
		NumMembers:      25,
		NumCircles:      4,
		PostsPerCircle:  12,
		CommentsPerPost: 8,
		MaxDepth:        4,
		LikeRatio:       0.3,
		MaxDays:         60,
	}
}

// BuiltInCircle is a permanent system circle.
type BuiltInCircle struct {
	Name        string
	Slug        string
	Description string
}

// BuiltInCircles defines the permanent system circles.
var BuiltInCircles = []BuiltInCircle{
	{Name: "Front Porch", Slug: "front-porch", Description: "Introductions and general chatter."},
	{Name: "Announcements", Slug: "announcements", Description: "Platform news and updates."},
	{Name: "Help Desk", Slug: "help-desk", Description: "Questions about using circles."},
	{Name: "Show and Tell", Slug: "show-and-tell", Description: "Share what you made this week."},
}

var systemOwner = Member{ID: SystemOwnerID, DisplayName: "Circles"}

// BuiltIns creates the built-in circles, refreshing name and description of
// the ones that already exist. It is safe to run on every start.
func BuiltIns(ctx context.Context, db *gorm.DB) error {
	for _, item := range BuiltInCircles {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var existing models.Circle
			err := tx.Where("slug = ?", item.Slug).First(&existing).Error
			switch {
			case err == nil:
				return tx.Model(&existing).Updates(map[string]any{
					"name":        item.Name,
					"description": item.Description,
				}).Error
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}

			circle := models.Circle{
				Name:        item.Name,
				Slug:        item.Slug,
				Description: item.Description,
				OwnerID:     SystemOwnerID,
			}
			if err := tx.Create(&circle).Error; err != nil {
				return err
			}
			owner := systemOwner.Membership(&circle, models.MembershipRoleOwner)
			return tx.Create(&owner).Error
		})
		if err != nil {
			return fmt.Errorf("seed built-in circle %s: %w", item.Slug, err)
		}
	}
	return nil
}

// Result counts what a Seed run created.
type Result struct {
	Members  int
	Circles  int
	Posts    int
	Comments int
	Likes    int
}

// Seeder populates a database with demo circles, posts and comment threads.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
	log     *slog.Logger
}

// NewSeeder creates a Seeder.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{
		db:      db,
		opts:    opts,
		factory: NewFactory(db, opts),
		log:     observability.GlobalLogger.With(slog.String("component", "seed")),
	}
}

// Factory exposes the seeder's factory.
func (s *Seeder) Factory() *Factory { return s.factory }

// ClearAll removes every circle, post, comment, like and membership.
func (s *Seeder) ClearAll(ctx context.Context) error {
	s.log.InfoContext(ctx, "Clearing existing data")
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Like{}, &models.Comment{}, &models.Post{}, &models.CircleMembership{}, &models.Circle{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Seed generates members, circles, posts, nested comment threads and likes
// according to the seeder's options.
func (s *Seeder) Seed(ctx context.Context) (Result, error) {
	var res Result
	if s.opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return res, fmt.Errorf("clear data: %w", err)
		}
	}

	f := s.factory
	numMembers := max(s.opts.NumMembers, 1)
	members := make([]Member, numMembers)
	for i := range members {
		members[i] = f.NewMember()
	}
	res.Members = len(members)

	for range s.opts.NumCircles {
		owner := members[f.faker.Number(0, len(members)-1)]
		name := f.faker.Hobby()
		slug := fmt.Sprintf("%s-%d", slugify(name), f.faker.Number(100, 999))
		circle, err := f.CreateCircle(ctx, owner, name, slug, f.faker.Sentence(10))
		if err != nil {
			return res, err
		}
		res.Circles++

		roster := []Member{owner}
		for _, m := range members {
			if m.ID != owner.ID && f.faker.Bool() {
				if err := f.Join(ctx, circle, m); err != nil {
					return res, fmt.Errorf("join circle: %w", err)
				}
				roster = append(roster, m)
			}
		}

		posts := make([]*models.Post, 0, s.opts.PostsPerCircle)
		for range s.opts.PostsPerCircle {
			posts = append(posts, f.BuildPost(circle, pick(f, roster)))
		}
		if err := f.CreatePostsBatch(ctx, posts); err != nil {
			return res, fmt.Errorf("create posts: %w", err)
		}
		res.Posts += len(posts)

		for _, post := range posts {
			n, err := s.seedThread(ctx, post, roster)
			if err != nil {
				return res, err
			}
			res.Comments += n

			likes, err := s.seedLikes(ctx, models.LikeTargetPost, post.ID, roster)
			if err != nil {
				return res, err
			}
			res.Likes += likes
		}
		s.log.InfoContext(ctx, "Seeded circle",
			slog.String("slug", circle.Slug),
			slog.Int("members", len(roster)),
			slog.Int("posts", len(posts)),
		)
	}
	return res, nil
}

// seedThread writes CommentsPerPost comments, each replying to a random
// earlier comment whose depth is below MaxDepth, or to the post itself.
func (s *Seeder) seedThread(ctx context.Context, post *models.Post, roster []Member) (int, error) {
	f := s.factory
	maxDepth := max(s.opts.MaxDepth, 1)
	type node struct {
		comment *models.Comment
		depth   int
	}
	var nodes []node
	for range s.opts.CommentsPerPost {
		var parent *node
		if len(nodes) > 0 && f.faker.Number(0, 2) > 0 {
			candidate := nodes[f.faker.Number(0, len(nodes)-1)]
			if candidate.depth < maxDepth {
				parent = &candidate
			}
		}

		depth := 1
		var parentComment *models.Comment
		if parent != nil {
			depth = parent.depth + 1
			parentComment = parent.comment
		}
		comment, err := f.CreateComment(ctx, post, pick(f, roster), parentComment)
		if err != nil {
			return len(nodes), err
		}
		nodes = append(nodes, node{comment: comment, depth: depth})

		if _, err := s.seedLikes(ctx, models.LikeTargetComment, comment.ID, roster); err != nil {
			return len(nodes), err
		}
	}
	return len(nodes), nil
}

func (s *Seeder) seedLikes(ctx context.Context, target models.LikeTarget, id string, roster []Member) (int, error) {
	if s.opts.LikeRatio <= 0 {
		return 0, nil
	}
	n := 0
	for _, m := range roster {
		if s.factory.faker.Float64Range(0, 1) >= s.opts.LikeRatio {
			continue
		}
		if err := s.factory.Like(ctx, target, id, m); err != nil {
			return n, fmt.Errorf("like %s %s: %w", target, id, err)
		}
		n++
	}
	return n, nil
}

func pick(f *Factory, members []Member) Member {
	return members[f.faker.Number(0, len(members)-1)]
}

// slugify lowercases name and keeps letters and digits, joining words with
// dashes and capping the result so a numeric suffix still fits a circle slug.
func slugify(name string) string {
	out := make([]byte, 0, len(name))
	dash := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, byte(r))
			dash = false
		case r >= 'A' && r <= 'Z':
			out = append(out, byte(r-'A'+'a'))
			dash = false
		default:
			if len(out) > 0 && !dash {
				out = append(out, '-')
				dash = true
			}
		}
		if len(out) >= 18 {
			break
		}
	}
	for len(out) > 0 && out[len(out)-1] == '-' {
		out = out[:len(out)-1]
	}
	if len(out) < 3 {
		return "circle"
	}
	return string(out)
}

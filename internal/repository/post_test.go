package repository

import (
	"context"
	"testing"
	"time"

	"circles/internal/models"
	"circles/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedPost(t *testing.T, repo PostRepository, circleID, title string, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{CircleID: circleID, AuthorID: "u1", AuthorDisplayName: "Ada", Title: title, Tags: models.Tags{"ink"}, CreatedAt: at}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestPostRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	p := seedPost(t, repo, "c1", "Hello", base)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, []string{}, p.LikedBy)

	require.NoError(t, comments.Create(ctx, &models.Comment{PostID: p.ID, AuthorID: "u2", Content: "hi"}))
	liked, err := repo.ToggleLike(ctx, p.ID, "u2")
	require.NoError(t, err)
	assert.True(t, liked)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, models.Tags{"ink"}, got.Tags)
	assert.Equal(t, []string{"u2"}, got.LikedBy)
	assert.Equal(t, 1, got.UpvoteCount)
	assert.Equal(t, 1, got.CommentCount)
}

func TestPostRepository_ToggleLikeIsIdempotentPerUser(t *testing.T) {
	repo := NewPostRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()
	p := seedPost(t, repo, "c1", "Hello", base)

	liked, err := repo.ToggleLike(ctx, p.ID, "u2")
	require.NoError(t, err)
	assert.True(t, liked)
	liked, err = repo.ToggleLike(ctx, p.ID, "u2")
	require.NoError(t, err)
	assert.False(t, liked)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.LikedBy)
	assert.Equal(t, 0, got.UpvoteCount)
}

func TestPostRepository_ListByCircleSorts(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db).(*postRepository)
	repo.now = func() time.Time { return base.Add(48 * time.Hour) }
	ctx := context.Background()

	old := seedPost(t, repo, "c1", "old but loved", base)
	mid := seedPost(t, repo, "c1", "middle", base.Add(24*time.Hour))
	fresh := seedPost(t, repo, "c1", "fresh", base.Add(47*time.Hour))
	seedPost(t, repo, "c2", "elsewhere", base)

	for _, u := range []string{"a", "b", "c", "d"} {
		_, err := repo.ToggleLike(ctx, old.ID, u)
		require.NoError(t, err)
	}
	_, err := repo.ToggleLike(ctx, mid.ID, "a")
	require.NoError(t, err)
	_, err = repo.ToggleLike(ctx, fresh.ID, "a")
	require.NoError(t, err)

	ids := func(posts []*models.Post) []string {
		out := make([]string, len(posts))
		for i, p := range posts {
			out[i] = p.ID
		}
		return out
	}

	newest, err := repo.ListByCircle(ctx, "c1", SortNew, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{fresh.ID, mid.ID, old.ID}, ids(newest))

	top, err := repo.ListByCircle(ctx, "c1", SortTop, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{old.ID, fresh.ID, mid.ID}, ids(top))

	hot, err := repo.ListByCircle(ctx, "c1", SortHot, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, hot[0].ID, "recent engagement outranks old likes")

	page, err := repo.ListByCircle(ctx, "c1", SortHot, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, hot[1].ID, page[0].ID)

	beyond, err := repo.ListByCircle(ctx, "c1", SortHot, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond)

	unknown, err := repo.ListByCircle(ctx, "c1", "rising", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, unknown[0].ID)
}

func TestPostRepository_UpdateDelete(t *testing.T) {
	repo := NewPostRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()
	p := seedPost(t, repo, "c1", "Hello", base)

	p.Title = "Hello again"
	p.Tags = models.Tags{"ink", "paper"}
	require.NoError(t, repo.Update(ctx, p))
	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello again", got.Title)
	assert.Equal(t, models.Tags{"ink", "paper"}, got.Tags)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.GetByID(ctx, p.ID)
	assert.True(t, IsNotFound(err))
}

func TestRankHot(t *testing.T) {
	now := base.Add(10 * time.Hour)
	a := &models.Post{ID: "a", UpvoteCount: 10, CreatedAt: base}
	b := &models.Post{ID: "b", UpvoteCount: 2, CommentCount: 1, CreatedAt: now.Add(-time.Hour)}
	c := &models.Post{ID: "c", CreatedAt: now}
	d := &models.Post{ID: "d", CreatedAt: now.Add(-time.Minute)}
	posts := []*models.Post{c, a, d, b}

	rankHot(posts, now)
	assert.Equal(t, "b", posts[0].ID)
	assert.Equal(t, "a", posts[1].ID)
	assert.Equal(t, "c", posts[2].ID, "zero-score ties go newest first")
	assert.Equal(t, "d", posts[3].ID)
}

func TestNormalizeSort(t *testing.T) {
	assert.Equal(t, SortNew, NormalizeSort(""))
	assert.Equal(t, SortNew, NormalizeSort("best"))
	assert.Equal(t, SortTop, NormalizeSort("top"))
	assert.Equal(t, SortHot, NormalizeSort("hot"))
}

package client

import (
	"context"
	"net"
	"testing"
	"time"

	"circles/internal/config"
	"circles/internal/models"
	"circles/internal/optimistic"
	"circles/internal/querycache"
	"circles/internal/server"
	"circles/internal/session"
	"circles/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const e2eSecret = "e2e-secret-key-1234567890123456789012345678"

// startServer runs the real API over SQLite on a loopback port.
func startServer(t *testing.T) string {
	t.Helper()

	srv, err := server.NewServerWithDeps(&config.Config{JWTSecret: e2eSecret}, testutil.NewSQLiteDB(t), nil)
	require.NoError(t, err)
	app := srv.App()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.ShutdownWithTimeout(time.Second) })

	return "http://" + ln.Addr().String() + "/api"
}

func clientFor(t *testing.T, baseURL string, s session.Session) *Client {
	t.Helper()
	tok, err := session.IssueToken(e2eSecret, s, time.Hour)
	require.NoError(t, err)
	return New(baseURL, WithToken(tok))
}

func TestCoordinatorOverHTTP(t *testing.T) {
	base := startServer(t)
	ctx := context.Background()
	ada := session.Session{UserID: "u-ada", DisplayName: "Ada"}
	grace := session.Session{UserID: "u-grace", DisplayName: "Grace"}

	adaClient := clientFor(t, base, ada)
	_, err := adaClient.CreateCircle(ctx, models.CreateCircleRequest{Name: "Inkers", Slug: "inkers"})
	require.NoError(t, err)

	coord := optimistic.New(optimistic.Options{
		Cache:   querycache.New(querycache.Options{StaleTime: time.Minute}),
		Data:    clientFor(t, base, grace),
		Session: session.Static(grace),
	})

	_, err = coord.Posts(ctx, "inkers", "new")
	require.NoError(t, err)

	post, err := coord.CreatePost(ctx, "inkers", models.CreatePostRequest{Title: "Hello"})
	require.NoError(t, err)
	assert.False(t, optimistic.IsTempID(post.ID))

	posts, err := coord.Posts(ctx, "inkers", "new")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, post.ID, posts[0].ID, "temp id replaced by the server id")

	root, err := coord.CreateComment(ctx, post.ID, models.CreateCommentRequest{Content: "first"})
	require.NoError(t, err)
	_, err = coord.CreateComment(ctx, post.ID, models.CreateCommentRequest{ParentID: &root.ID, Content: "reply"})
	require.NoError(t, err)

	forest, err := coord.Thread(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	require.Len(t, forest[0].Replies, 1)

	liked, err := coord.TogglePostLike(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.UpvoteCount)

	require.NoError(t, coord.JoinCircle(ctx, "inkers"))
	circle, err := adaClient.GetCircle(ctx, "inkers")
	require.NoError(t, err)
	assert.Equal(t, 2, circle.MemberCount)
}

func TestCoordinatorOverHTTP_ServerRejectionRollsBack(t *testing.T) {
	base := startServer(t)
	ctx := context.Background()
	ada := session.Session{UserID: "u-ada", DisplayName: "Ada"}
	grace := session.Session{UserID: "u-grace", DisplayName: "Grace"}

	adaClient := clientFor(t, base, ada)
	_, err := adaClient.CreateCircle(ctx, models.CreateCircleRequest{Name: "Inkers", Slug: "inkers"})
	require.NoError(t, err)
	post, err := adaClient.CreatePost(ctx, "inkers", models.CreatePostRequest{Title: "Ada's"})
	require.NoError(t, err)

	cache := querycache.New(querycache.Options{StaleTime: time.Minute})
	coord := optimistic.New(optimistic.Options{
		Cache:   cache,
		Data:    clientFor(t, base, grace),
		Session: session.Static(grace),
	})

	before, err := coord.Comments(ctx, post.ID)
	require.NoError(t, err)
	require.Empty(t, before)

	// The server rejects a reply to a comment that does not exist.
	missing := "does-not-exist"
	_, err = coord.CreateComment(ctx, post.ID, models.CreateCommentRequest{ParentID: &missing, Content: "lost"})
	require.Error(t, err)
	assert.True(t, optimistic.IsKind(err, optimistic.KindValidation))

	after, ok := querycache.GetData[[]models.Comment](cache, querycache.CommentsKey(post.ID))
	require.True(t, ok)
	assert.Empty(t, after)
	draft, ok := coord.Drafts().CommentDraft(post.ID, &missing)
	require.True(t, ok)
	assert.Equal(t, "lost", draft.Content)

	// Grace is not the author; the server forbids the edit.
	title := "hijacked"
	_, err = optimistic.New(optimistic.Options{
		Cache:   querycache.New(querycache.Options{}),
		Data:    clientFor(t, base, grace),
		Session: session.Static(session.Session{UserID: ada.UserID}),
	}).UpdatePost(ctx, post.ID, models.UpdatePostRequest{Title: &title})
	require.Error(t, err)
	assert.True(t, optimistic.IsKind(err, optimistic.KindAuthorization))
}

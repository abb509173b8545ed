package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"circles/internal/models"
	"circles/internal/optimistic"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ optimistic.DataService = (*Client)(nil)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithRetries(2, time.Millisecond)}, opts...)
	return New(srv.URL+"/api/", opts...)
}

func TestClient_SendsTokenAndDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/circles/inkers/posts", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req models.CreatePostRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Hello", req.Title)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.Post{ID: "p1", Title: req.Title, LikedBy: []string{}})
	}, WithToken("tok-1"))

	post, err := c.CreatePost(context.Background(), "inkers", models.CreatePostRequest{Title: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "p1", post.ID)
	assert.Equal(t, "Hello", post.Title)
}

func TestClient_ListPostsEncodesSort(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/circles/inkers/posts", r.URL.Path)
		assert.Equal(t, "top", r.URL.Query().Get("sort"))
		_, _ = w.Write([]byte(`[{"id":"p2"},{"id":"p1"}]`))
	})

	posts, err := c.ListPosts(context.Background(), "inkers", "top")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "p2", posts[0].ID)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   string
		msg    string
	}{
		{"code from body", http.StatusNotFound, `{"error":"Post with ID x not found","code":"NOT_FOUND"}`, models.CodeNotFound, "Post with ID x not found"},
		{"code from status", http.StatusForbidden, `{"error":"nope"}`, models.CodeForbidden, "nope"},
		{"plain text body", http.StatusUnauthorized, "go away", models.CodeUnauthorized, "go away"},
		{"empty body", http.StatusConflict, "", models.CodeConflict, "Conflict"},
		{"validation", http.StatusBadRequest, `{"error":"title is required","code":"VALIDATION_ERROR"}`, models.CodeValidation, "title is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.GetPost(context.Background(), "x")
			require.Error(t, err)
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.msg, appErr.Message)
			assert.Equal(t, tt.status, models.StatusFor(err))
		})
	}
}

func TestClient_RetriesReadsOnly(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.Method == http.MethodGet && n == 3 {
			_, _ = w.Write([]byte(`{"id":"c1","slug":"inkers"}`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"try later"}`))
	})

	circle, err := c.GetCircle(context.Background(), "inkers")
	require.NoError(t, err)
	assert.Equal(t, "inkers", circle.Slug)
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(0)
	err = c.JoinCircle(context.Background(), "inkers")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "writes are never retried")
	assert.True(t, models.HasCode(err, models.CodeInternal))
}

func TestClient_RetriesGiveUp(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.ListCircles(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.True(t, models.HasCode(err, models.CodeInternal))
}

func TestClient_NoContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/comments/c%2F1", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.DeleteComment(context.Background(), "c/1"))
}

func TestClient_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.ListComments(ctx, "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

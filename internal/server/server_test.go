package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"circles/internal/cache"
	"circles/internal/config"
	"circles/internal/models"
	"circles/internal/notifications"
	"circles/internal/session"
	"circles/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

var (
	ada   = session.Session{UserID: "u-ada", DisplayName: "Ada"}
	grace = session.Session{UserID: "u-grace", DisplayName: "Grace"}
)

type testEnv struct {
	srv *Server
	app *fiber.App
	mr  *miniredis.Miniredis
	rdb *redis.Client
}

// newTestEnv wires a full server over in-memory SQLite and miniredis, with the
// Redis cache enabled so reads go through cache-aside.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nil)
}

// newTestEnvWith is newTestEnv with a hook to adjust the config first.
func newTestEnvWith(t *testing.T, configure func(*config.Config)) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cache.SetClient(rdb)
	t.Cleanup(func() { cache.SetClient(nil) })

	cfg := &config.Config{
		JWTSecret:              testSecret,
		AllowedOrigins:         "http://localhost:5173",
		RateLimitWrites:        60,
		RateLimitWindowSeconds: 60,
	}
	if configure != nil {
		configure(cfg)
	}
	srv, err := NewServerWithDeps(cfg, testutil.NewSQLiteDB(t), rdb)
	require.NoError(t, err)

	return &testEnv{srv: srv, app: srv.App(), mr: mr, rdb: rdb}
}

func bearer(t *testing.T, s session.Session) string {
	t.Helper()
	tok, err := session.IssueToken(testSecret, s, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

// do sends a JSON request as who (anonymous when who is nil) and decodes the
// response into out when out is non-nil.
func (e *testEnv) do(t *testing.T, method, path string, who *session.Session, body any, out any) int {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if who != nil {
		req.Header.Set("Authorization", bearer(t, *who))
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *testEnv) createCircle(t *testing.T, owner session.Session, slug string) models.Circle {
	t.Helper()
	var circle models.Circle
	status := e.do(t, http.MethodPost, "/api/circles", &owner,
		models.CreateCircleRequest{Name: "Circle " + slug, Slug: slug}, &circle)
	require.Equal(t, http.StatusCreated, status)
	return circle
}

func (e *testEnv) createPost(t *testing.T, author session.Session, slug, title string) models.Post {
	t.Helper()
	var post models.Post
	status := e.do(t, http.MethodPost, "/api/circles/"+slug+"/posts", &author,
		models.CreatePostRequest{Title: title}, &post)
	require.Equal(t, http.StatusCreated, status)
	return post
}

// subscribe returns a channel of events published on the global events
// channel. The subscription is confirmed before returning.
func (e *testEnv) subscribe(t *testing.T) <-chan models.ChangeEvent {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	events := make(chan models.ChangeEvent, 16)
	n := notifications.NewNotifier(e.rdb)
	require.NoError(t, n.Subscribe(ctx, notifications.EventsChannel, func(ev models.ChangeEvent) {
		events <- ev
	}))
	return events
}

func nextEvent(t *testing.T, events <-chan models.ChangeEvent) models.ChangeEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
		return models.ChangeEvent{}
	}
}

func TestNewServerWithDeps_RequiresDB(t *testing.T) {
	_, err := NewServerWithDeps(&config.Config{}, nil, nil)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)

	var body map[string]any
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/health/live", nil, nil, &body))
	assert.Equal(t, "up", body["status"])

	body = nil
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/health", nil, nil, &body))
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "healthy", checks["redis"])
}

func TestReadiness_DegradedWithoutRedis(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, e.rdb.Close())

	var body map[string]any
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/health/ready", nil, nil, &body))
	assert.Equal(t, "degraded", body["status"])
}

func TestReadiness_DatabaseDown(t *testing.T) {
	e := newTestEnv(t)
	sqlDB, err := e.srv.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	var body map[string]any
	assert.Equal(t, http.StatusServiceUnavailable, e.do(t, http.MethodGet, "/health/ready", nil, nil, &body))
	assert.Equal(t, "unhealthy", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodGet, "/health/live", nil, nil, nil)

	resp, err := e.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "http_requests_total")
}

func TestWritesRequireAuth(t *testing.T) {
	e := newTestEnv(t)
	e.createCircle(t, ada, "inkers")

	writes := []struct{ method, path string }{
		{http.MethodPost, "/api/circles"},
		{http.MethodPatch, "/api/circles/inkers"},
		{http.MethodDelete, "/api/circles/inkers"},
		{http.MethodPost, "/api/circles/inkers/join"},
		{http.MethodPost, "/api/circles/inkers/leave"},
		{http.MethodPost, "/api/circles/inkers/posts"},
		{http.MethodPatch, "/api/posts/p1"},
		{http.MethodDelete, "/api/posts/p1"},
		{http.MethodPost, "/api/posts/p1/like"},
		{http.MethodPost, "/api/posts/p1/comments"},
		{http.MethodPatch, "/api/comments/c1"},
		{http.MethodDelete, "/api/comments/c1"},
		{http.MethodPost, "/api/comments/c1/like"},
	}
	for _, w := range writes {
		t.Run(w.method+" "+w.path, func(t *testing.T) {
			var body models.ErrorResponse
			assert.Equal(t, http.StatusUnauthorized, e.do(t, w.method, w.path, nil, map[string]string{}, &body))
			assert.Equal(t, models.CodeUnauthorized, body.Code)
		})
	}
}

func TestWriteRateLimit(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	e := newTestEnv(t)
	e.srv.config.RateLimitWrites = 1
	e.app = e.srv.App()
	e.createCircle(t, ada, "inkers")

	// Budgets are per user: ada spent hers creating the circle.

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/circles/inkers/join", &grace, nil, nil))
	var body models.ErrorResponse
	assert.Equal(t, http.StatusTooManyRequests, e.do(t, http.MethodPost, "/api/circles/inkers/leave", &grace, nil, &body))
	assert.Equal(t, "RATE_LIMITED", body.Code)

	// Reads are not counted against the write budget.
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/circles/inkers", &grace, nil, nil))
}

func TestUnknownRoute(t *testing.T) {
	e := newTestEnv(t)
	var body models.ErrorResponse
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/nope", nil, nil, &body))
	assert.Equal(t, models.CodeNotFound, body.Code)
}

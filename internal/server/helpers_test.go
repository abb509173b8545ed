package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"circles/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		p := parsePagination(c, 25)
		return c.JSON(fiber.Map{"limit": p.Limit, "offset": p.Offset})
	})

	tests := []struct {
		query         string
		limit, offset float64
	}{
		{"", 25, 0},
		{"?limit=10&offset=30", 10, 30},
		{"?limit=0", 25, 0},
		{"?limit=1000", maxPaginationLimit, 0},
		{"?offset=-5", 25, 0},
		{"?limit=abc", 25, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body map[string]float64
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.limit, body["limit"])
			assert.Equal(t, tt.offset, body["offset"])
		})
	}
}

func TestViewerAndActor(t *testing.T) {
	app := fiber.New()
	app.Get("/anon", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"viewer": viewerID(c), "actor": actor(c).UserID})
	})
	app.Get("/authed", func(c *fiber.Ctx) error {
		c.Locals("userID", "u1")
		c.Locals("session", session.Session{UserID: "u1", DisplayName: "Ada"})
		return c.JSON(fiber.Map{"viewer": viewerID(c), "actor": actor(c).DisplayName})
	})

	for path, want := range map[string]map[string]string{
		"/anon":   {"viewer": "", "actor": ""},
		"/authed": {"viewer": "u1", "actor": "Ada"},
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		_ = resp.Body.Close()
		assert.Equal(t, want, body, path)
	}
}

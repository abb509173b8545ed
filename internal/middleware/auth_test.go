package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"circles/internal/config"
	"circles/internal/models"
	"circles/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestAuthRequired(t *testing.T) {
	app := fiber.New()
	InitMiddleware(&config.Config{JWTSecret: testSecret})

	app.Get("/test", AuthRequired, func(c *fiber.Ctx) error {
		s, _ := SessionFrom(c)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"userID": c.Locals("userID"), "name": s.DisplayName})
	})

	generateToken := func(userID string, ttl time.Duration) string {
		tok, err := session.IssueToken(testSecret, session.Session{UserID: userID, DisplayName: "Ada"}, ttl)
		require.NoError(t, err)
		return tok
	}
	foreign := func() string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()})
		s, _ := tok.SignedString([]byte("some-other-secret"))
		return s
	}

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUserID string
	}{
		{"Happy Path", "Bearer " + generateToken("u-123", time.Hour), http.StatusOK, "u-123"},
		{"Missing Header", "", http.StatusUnauthorized, ""},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, ""},
		{"Malformed Token", "Bearer malformed.token.here", http.StatusUnauthorized, ""},
		{"Expired Token", "Bearer " + generateToken("u-123", -time.Hour), http.StatusUnauthorized, ""},
		{"Wrong Secret", "Bearer " + foreign(), http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]string
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expectedUserID, body["userID"])
				assert.Equal(t, "Ada", body["name"])
			} else {
				var body models.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, models.CodeUnauthorized, body.Code)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	app := fiber.New()
	InitMiddleware(&config.Config{JWTSecret: testSecret})

	app.Get("/feed", OptionalAuth, func(c *fiber.Ctx) error {
		if s, ok := SessionFrom(c); ok {
			return c.SendString(s.UserID)
		}
		return c.SendString("anonymous")
	})

	tok, err := session.IssueToken(testSecret, session.Session{UserID: "u7"}, time.Hour)
	require.NoError(t, err)

	for header, want := range map[string]string{
		"":                   "anonymous",
		"Bearer " + tok:      "u7",
		"Bearer not-a-token": "anonymous",
	} {
		req := httptest.NewRequest(http.MethodGet, "/feed", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		buf := make([]byte, 32)
		n, _ := resp.Body.Read(buf)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, want, string(buf[:n]))
	}
}

package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"circles/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextMiddleware_CorrelationID(t *testing.T) {
	app := fiber.New()
	app.Use(ContextMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(observability.ExtractCorrelationID(c.UserContext()))
	})

	get := func(header string) string {
		req := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			req.Header.Set("X-Correlation-ID", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}

	assert.Equal(t, "abc-123", get("abc-123"))

	first, second := get(""), get("")
	assert.Len(t, first, 36, "generated ids are UUIDs")
	assert.NotEqual(t, first, second)
}

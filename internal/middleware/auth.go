// Package middleware provides the HTTP middleware of the data service.
package middleware

import (
	"context"

	"circles/internal/config"
	"circles/internal/models"
	"circles/internal/observability"
	"circles/internal/session"

	"github.com/gofiber/fiber/v2"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

const sessionLocal = "session"

func authenticate(c *fiber.Ctx) (session.Session, error) {
	token, ok := session.BearerToken(c.Get("Authorization"))
	if !ok {
		return session.Session{}, models.NewUnauthorizedError("Authorization header required")
	}
	if cfg == nil {
		return session.Session{}, models.NewUnauthorizedError("Authentication is not configured")
	}
	s, err := session.ParseToken(cfg.JWTSecret, token)
	if err != nil {
		return session.Session{}, models.NewUnauthorizedError("Invalid or expired token")
	}
	return s, nil
}

func setSession(c *fiber.Ctx, s session.Session) {
	c.Locals("userID", s.UserID)
	c.Locals(sessionLocal, s)
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(context.WithValue(c.UserContext(), observability.UserIDKey, s.UserID))
}

// AuthRequired is a middleware that enforces authentication for protected routes.
// The verified session is stored in c.Locals("session") and the user id in c.Locals("userID").
func AuthRequired(c *fiber.Ctx) error {
	s, err := authenticate(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	setSession(c, s)
	return c.Next()
}

// OptionalAuth attaches the session when a valid bearer token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(c *fiber.Ctx) error {
	if c.Get("Authorization") != "" {
		if s, err := authenticate(c); err == nil {
			setSession(c, s)
		}
	}
	return c.Next()
}

// SessionFrom returns the session attached by AuthRequired or OptionalAuth.
func SessionFrom(c *fiber.Ctx) (session.Session, bool) {
	s, ok := c.Locals(sessionLocal).(session.Session)
	return s, ok
}

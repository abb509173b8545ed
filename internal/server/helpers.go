package server

import (
	"circles/internal/middleware"
	"circles/internal/models"
	"circles/internal/session"

	"github.com/gofiber/fiber/v2"
)

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// viewerID is the caller's user id, or "" for anonymous reads.
func viewerID(c *fiber.Ctx) string {
	uid, _ := c.Locals("userID").(string)
	return uid
}

// actor is the authenticated session. Only valid behind AuthRequired.
func actor(c *fiber.Ctx) session.Session {
	s, _ := middleware.SessionFrom(c)
	return s
}

// parseBody decodes the JSON body into dst and reports a validation error otherwise.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}

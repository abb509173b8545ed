package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags returns the configured flags evaluated for the viewer.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"flags": s.features.Snapshot(viewerID(c))})
}

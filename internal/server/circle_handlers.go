package server

import (
	"circles/internal/models"
	"circles/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListCircles handles GET /api/circles
func (s *Server) ListCircles(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	circles, err := s.circleService.ListCircles(c.UserContext(), viewerID(c), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(circles)
}

// CreateCircle handles POST /api/circles
func (s *Server) CreateCircle(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req models.CreateCircleRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithAppError(c, err)
	}

	who := actor(c)
	circle, err := s.circleService.CreateCircle(ctx, service.CreateCircleInput{Actor: who, CreateCircleRequest: req})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishEvent(ctx, models.ChangeEvent{Type: models.EventCircleCreated, CircleSlug: circle.Slug, ActorID: who.UserID})
	return c.Status(fiber.StatusCreated).JSON(circle)
}

// GetCircle handles GET /api/circles/:slug
func (s *Server) GetCircle(c *fiber.Ctx) error {
	circle, err := s.circleService.GetCircle(c.UserContext(), c.Params("slug"), viewerID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(circle)
}

// UpdateCircle handles PATCH /api/circles/:slug
func (s *Server) UpdateCircle(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req models.UpdateCircleRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithAppError(c, err)
	}

	userID := viewerID(c)
	circle, err := s.circleService.UpdateCircle(ctx, service.UpdateCircleInput{
		UserID:              userID,
		Slug:                c.Params("slug"),
		UpdateCircleRequest: req,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishEvent(ctx, models.ChangeEvent{Type: models.EventCircleUpdated, CircleSlug: circle.Slug, ActorID: userID})
	return c.JSON(circle)
}

// DeleteCircle handles DELETE /api/circles/:slug
func (s *Server) DeleteCircle(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := viewerID(c)
	circle, err := s.circleService.DeleteCircle(ctx, userID, c.Params("slug"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishEvent(ctx, models.ChangeEvent{Type: models.EventCircleDeleted, CircleSlug: circle.Slug, ActorID: userID})
	return c.SendStatus(fiber.StatusNoContent)
}

// JoinCircle handles POST /api/circles/:slug/join
func (s *Server) JoinCircle(c *fiber.Ctx) error {
	ctx := c.UserContext()
	who := actor(c)
	circle, err := s.circleService.JoinCircle(ctx, who, c.Params("slug"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishEvent(ctx, models.ChangeEvent{Type: models.EventCircleJoined, CircleSlug: circle.Slug, ActorID: who.UserID})
	return c.JSON(circle)
}

// LeaveCircle handles POST /api/circles/:slug/leave
func (s *Server) LeaveCircle(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := viewerID(c)
	circle, err := s.circleService.LeaveCircle(ctx, userID, c.Params("slug"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishEvent(ctx, models.ChangeEvent{Type: models.EventCircleLeft, CircleSlug: circle.Slug, ActorID: userID})
	return c.JSON(circle)
}

// ListCircleMembers handles GET /api/circles/:slug/members
func (s *Server) ListCircleMembers(c *fiber.Ctx) error {
	members, err := s.circleService.ListMembers(c.UserContext(), c.Params("slug"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(members)
}

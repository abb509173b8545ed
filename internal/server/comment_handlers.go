package server

import (
	"circles/internal/models"
	"circles/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListComments handles GET /api/posts/:id/comments. Comments are returned
// flat in creation order; clients assemble the reply tree.
func (s *Server) ListComments(c *fiber.Ctx) error {
	comments, err := s.commentService.ListComments(c.UserContext(), c.Params("id"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req models.CreateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithAppError(c, err)
	}

	who := actor(c)
	created, err := s.commentService.CreateComment(ctx, service.CreateCommentInput{
		Author:               who,
		PostID:               c.Params("id"),
		CreateCommentRequest: req,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishEvent(ctx, s.commentEvent(ctx, models.EventCommentCreated, created, who.UserID))
	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateComment handles PATCH /api/comments/:id
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req models.UpdateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithAppError(c, err)
	}

	userID := viewerID(c)
	updated, err := s.commentService.UpdateComment(ctx, service.UpdateCommentInput{
		UserID:    userID,
		CommentID: c.Params("id"),
		Content:   req.Content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishEvent(ctx, s.commentEvent(ctx, models.EventCommentUpdated, updated, userID))
	return c.JSON(updated)
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := viewerID(c)
	deleted, err := s.commentService.DeleteComment(ctx, userID, c.Params("id"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishEvent(ctx, s.commentEvent(ctx, models.EventCommentDeleted, deleted, userID))
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleCommentLike handles POST /api/comments/:id/like
func (s *Server) ToggleCommentLike(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := viewerID(c)
	comment, err := s.commentService.ToggleCommentLike(ctx, userID, c.Params("id"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishEvent(ctx, s.commentEvent(ctx, models.EventCommentLiked, comment, userID))
	return c.JSON(comment)
}

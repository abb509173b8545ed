package server

import (
	"circles/internal/models"
	"circles/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListCirclePosts handles GET /api/circles/:slug/posts?sort=new|top|hot
func (s *Server) ListCirclePosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	posts, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		CircleSlug: c.Params("slug"),
		Sort:       c.Query("sort"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/circles/:slug/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req models.CreatePostRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithAppError(c, err)
	}

	who := actor(c)
	slug := c.Params("slug")
	post, err := s.postService.CreatePost(ctx, service.CreatePostInput{
		Author:            who,
		CircleSlug:        slug,
		CreatePostRequest: req,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishEvent(ctx, models.ChangeEvent{
		Type:       models.EventPostCreated,
		CircleSlug: slug,
		PostID:     post.ID,
		ActorID:    who.UserID,
	})
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.postService.GetPost(c.UserContext(), c.Params("id"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(post)
}

// UpdatePost handles PATCH /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req models.UpdatePostRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithAppError(c, err)
	}

	userID := viewerID(c)
	post, err := s.postService.UpdatePost(ctx, service.UpdatePostInput{
		UserID:            userID,
		PostID:            c.Params("id"),
		UpdatePostRequest: req,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishEvent(ctx, s.postEvent(ctx, models.EventPostUpdated, post, userID))
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := viewerID(c)
	post, err := s.postService.DeletePost(ctx, userID, c.Params("id"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishEvent(ctx, s.postEvent(ctx, models.EventPostDeleted, post, userID))
	return c.SendStatus(fiber.StatusNoContent)
}

// TogglePostLike handles POST /api/posts/:id/like. Calling it again undoes the like.
func (s *Server) TogglePostLike(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := viewerID(c)
	post, err := s.postService.TogglePostLike(ctx, userID, c.Params("id"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishEvent(ctx, s.postEvent(ctx, models.EventPostLiked, post, userID))
	return c.JSON(post)
}

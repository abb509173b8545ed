package service

import (
	"context"
	"strings"

	"circles/internal/models"
	"circles/internal/repository"
	"circles/internal/session"
	"circles/internal/validation"
)

type CircleService struct {
	circleRepo repository.CircleRepository
}

type CreateCircleInput struct {
	Actor session.Session
	models.CreateCircleRequest
}

type UpdateCircleInput struct {
	UserID string
	Slug   string
	models.UpdateCircleRequest
}

func NewCircleService(circleRepo repository.CircleRepository) *CircleService {
	return &CircleService{circleRepo: circleRepo}
}

func (s *CircleService) CreateCircle(ctx context.Context, in CreateCircleInput) (*models.Circle, error) {
	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateCircleSlug(slug); err != nil {
		return nil, asValidation(err)
	}
	if err := validation.ValidateCircleName(name); err != nil {
		return nil, asValidation(err)
	}

	if _, err := s.circleRepo.GetBySlug(ctx, slug, ""); err == nil {
		return nil, models.NewConflictError("A circle with slug '" + slug + "' already exists")
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	circle := &models.Circle{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(in.Description),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		OwnerID:     in.Actor.UserID,
	}
	owner := models.CircleMembership{
		UserID:      in.Actor.UserID,
		DisplayName: in.Actor.DisplayName,
		ImageURL:    in.Actor.ImageURL,
	}
	if err := s.circleRepo.Create(ctx, circle, owner); err != nil {
		return nil, err
	}
	return circle, nil
}

func (s *CircleService) ListCircles(ctx context.Context, viewerID string, limit, offset int) ([]*models.Circle, error) {
	return s.circleRepo.List(ctx, viewerID, limit, offset)
}

func (s *CircleService) GetCircle(ctx context.Context, slug, viewerID string) (*models.Circle, error) {
	circle, err := s.circleRepo.GetBySlug(ctx, slug, viewerID)
	if err != nil {
		return nil, notFound(err, "Circle", slug)
	}
	return circle, nil
}

// CircleSlug resolves a circle id to its slug, or "" when it no longer exists.
func (s *CircleService) CircleSlug(ctx context.Context, circleID string) string {
	circle, err := s.circleRepo.GetByID(ctx, circleID)
	if err != nil {
		return ""
	}
	return circle.Slug
}

func (s *CircleService) UpdateCircle(ctx context.Context, in UpdateCircleInput) (*models.Circle, error) {
	circle, err := s.GetCircle(ctx, in.Slug, in.UserID)
	if err != nil {
		return nil, err
	}
	if circle.OwnerID != in.UserID {
		return nil, models.NewForbiddenError("Only the circle owner can edit it")
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validation.ValidateCircleName(name); err != nil {
			return nil, asValidation(err)
		}
		circle.Name = name
	}
	if in.Description != nil {
		circle.Description = strings.TrimSpace(*in.Description)
	}
	if in.ImageURL != nil {
		circle.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if err := s.circleRepo.Update(ctx, circle); err != nil {
		return nil, err
	}
	return circle, nil
}

func (s *CircleService) DeleteCircle(ctx context.Context, userID, slug string) (*models.Circle, error) {
	circle, err := s.GetCircle(ctx, slug, userID)
	if err != nil {
		return nil, err
	}
	if circle.OwnerID != userID {
		return nil, models.NewForbiddenError("Only the circle owner can delete it")
	}
	if err := s.circleRepo.Delete(ctx, circle); err != nil {
		return nil, err
	}
	return circle, nil
}

// JoinCircle is idempotent: joining a circle twice leaves one membership.
func (s *CircleService) JoinCircle(ctx context.Context, actor session.Session, slug string) (*models.Circle, error) {
	circle, err := s.GetCircle(ctx, slug, actor.UserID)
	if err != nil {
		return nil, err
	}
	if circle.Joined {
		return circle, nil
	}
	_, err = s.circleRepo.Join(ctx, &models.CircleMembership{
		CircleID:    circle.ID,
		UserID:      actor.UserID,
		DisplayName: actor.DisplayName,
		ImageURL:    actor.ImageURL,
		Role:        models.MembershipRoleMember,
	})
	if err != nil {
		return nil, err
	}
	return s.GetCircle(ctx, slug, actor.UserID)
}

// LeaveCircle removes the caller's membership. The owner cannot leave.
func (s *CircleService) LeaveCircle(ctx context.Context, userID, slug string) (*models.Circle, error) {
	circle, err := s.GetCircle(ctx, slug, userID)
	if err != nil {
		return nil, err
	}
	if circle.OwnerID == userID {
		return nil, models.NewValidationError("The owner cannot leave their circle")
	}
	if _, err := s.circleRepo.Leave(ctx, circle.ID, userID); err != nil {
		return nil, err
	}
	return s.GetCircle(ctx, slug, userID)
}

func (s *CircleService) ListMembers(ctx context.Context, slug string) ([]*models.CircleMembership, error) {
	circle, err := s.GetCircle(ctx, slug, "")
	if err != nil {
		return nil, err
	}
	return s.circleRepo.ListMembers(ctx, circle.ID)
}

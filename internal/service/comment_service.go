package service

import (
	"context"
	"strings"

	"circles/internal/models"
	"circles/internal/repository"
	"circles/internal/session"
	"circles/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	Author session.Session
	PostID string
	models.CreateCommentRequest
}

type UpdateCommentInput struct {
	UserID    string
	CommentID string
	Content   string
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo}
}

// CreateComment stores a comment; a parent must be a comment of the same post.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := validation.ValidateCommentContent(in.Content); err != nil {
		return nil, asValidation(err)
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, notFound(err, "Post", in.PostID)
	}

	var parentID *string
	if in.ParentID != nil && *in.ParentID != "" {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, models.NewValidationError("parent comment does not exist")
			}
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewValidationError("parent comment belongs to another post")
		}
		id := parent.ID
		parentID = &id
	}

	comment := &models.Comment{
		PostID:            in.PostID,
		ParentID:          parentID,
		AuthorID:          in.Author.UserID,
		AuthorDisplayName: in.Author.DisplayName,
		AuthorImageURL:    in.Author.ImageURL,
		Content:           strings.TrimSpace(in.Content),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, notFound(err, "Post", postID)
	}
	return s.commentRepo.ListByPost(ctx, postID)
}

func (s *CommentService) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Comment", id)
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.GetComment(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}
	if err := validation.ValidateCommentContent(in.Content); err != nil {
		return nil, asValidation(err)
	}

	comment.Content = strings.TrimSpace(in.Content)
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.GetComment(ctx, comment.ID)
}

func (s *CommentService) DeleteComment(ctx context.Context, userID, id string) (*models.Comment, error) {
	comment, err := s.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != userID {
		return nil, models.NewForbiddenError("You can only delete your own comments")
	}
	if err := s.commentRepo.Delete(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) ToggleCommentLike(ctx context.Context, userID, id string) (*models.Comment, error) {
	if _, err := s.GetComment(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.commentRepo.ToggleLike(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.GetComment(ctx, id)
}

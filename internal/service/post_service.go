package service

import (
	"context"
	"net/url"
	"strings"

	"circles/internal/models"
	"circles/internal/repository"
	"circles/internal/session"
	"circles/internal/validation"
)

type PostService struct {
	postRepo   repository.PostRepository
	circleRepo repository.CircleRepository
}

type CreatePostInput struct {
	Author     session.Session
	CircleSlug string
	models.CreatePostRequest
}

type ListPostsInput struct {
	CircleSlug string
	Sort       string
	Limit      int
	Offset     int
}

type UpdatePostInput struct {
	UserID string
	PostID string
	models.UpdatePostRequest
}

func NewPostService(postRepo repository.PostRepository, circleRepo repository.CircleRepository) *PostService {
	return &PostService{postRepo: postRepo, circleRepo: circleRepo}
}

func validateLink(field, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return models.NewValidationError(field + " must be a valid http(s) URL")
	}
	return nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	if err := validation.ValidatePostTitle(title); err != nil {
		return nil, asValidation(err)
	}
	if err := validation.ValidatePostContent(in.Content); err != nil {
		return nil, asValidation(err)
	}
	tags, err := validation.NormalizeTags(in.Tags)
	if err != nil {
		return nil, asValidation(err)
	}
	if err := validateLink("url", in.URL); err != nil {
		return nil, err
	}
	if err := validateLink("image_url", in.ImageURL); err != nil {
		return nil, err
	}

	circle, err := s.circleRepo.GetBySlug(ctx, in.CircleSlug, "")
	if err != nil {
		return nil, notFound(err, "Circle", in.CircleSlug)
	}

	post := &models.Post{
		CircleID:          circle.ID,
		AuthorID:          in.Author.UserID,
		AuthorDisplayName: in.Author.DisplayName,
		AuthorImageURL:    in.Author.ImageURL,
		Title:             title,
		Content:           in.Content,
		URL:               in.URL,
		ImageURL:          in.ImageURL,
		Tags:              tags,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	circle, err := s.circleRepo.GetBySlug(ctx, in.CircleSlug, "")
	if err != nil {
		return nil, notFound(err, "Circle", in.CircleSlug)
	}
	return s.postRepo.ListByCircle(ctx, circle.ID, repository.NormalizeSort(in.Sort), in.Limit, in.Offset)
}

func (s *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Post", id)
	}
	return post, nil
}

// UpdatePost applies the non-nil fields of the request. Only the author may edit.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.GetPost(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := validation.ValidatePostTitle(title); err != nil {
			return nil, asValidation(err)
		}
		post.Title = title
	}
	if in.Content != nil {
		if err := validation.ValidatePostContent(*in.Content); err != nil {
			return nil, asValidation(err)
		}
		post.Content = *in.Content
	}
	if in.URL != nil {
		if err := validateLink("url", *in.URL); err != nil {
			return nil, err
		}
		post.URL = *in.URL
	}
	if in.ImageURL != nil {
		if err := validateLink("image_url", *in.ImageURL); err != nil {
			return nil, err
		}
		post.ImageURL = *in.ImageURL
	}
	if in.Tags != nil {
		tags, err := validation.NormalizeTags(*in.Tags)
		if err != nil {
			return nil, asValidation(err)
		}
		post.Tags = tags
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, post.ID)
}

func (s *PostService) DeletePost(ctx context.Context, userID, id string) (*models.Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, models.NewForbiddenError("You can only delete your own posts")
	}
	if err := s.postRepo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return post, nil
}

// TogglePostLike flips the caller's like and returns the post with fresh counts.
func (s *PostService) TogglePostLike(ctx context.Context, userID, id string) (*models.Post, error) {
	if _, err := s.GetPost(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.postRepo.ToggleLike(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, id)
}

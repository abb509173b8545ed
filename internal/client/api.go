package client

import (
	"context"
	"net/http"
	"net/url"

	"circles/internal/models"
)

// Circles

func (c *Client) ListCircles(ctx context.Context) ([]models.Circle, error) {
	var out []models.Circle
	err := c.do(ctx, http.MethodGet, "/circles", nil, &out)
	return out, err
}

func (c *Client) GetCircle(ctx context.Context, slug string) (models.Circle, error) {
	var out models.Circle
	err := c.do(ctx, http.MethodGet, "/circles/"+esc(slug), nil, &out)
	return out, err
}

func (c *Client) CreateCircle(ctx context.Context, req models.CreateCircleRequest) (models.Circle, error) {
	var out models.Circle
	err := c.do(ctx, http.MethodPost, "/circles", req, &out)
	return out, err
}

func (c *Client) UpdateCircle(ctx context.Context, slug string, req models.UpdateCircleRequest) (models.Circle, error) {
	var out models.Circle
	err := c.do(ctx, http.MethodPatch, "/circles/"+esc(slug), req, &out)
	return out, err
}

func (c *Client) DeleteCircle(ctx context.Context, slug string) error {
	return c.do(ctx, http.MethodDelete, "/circles/"+esc(slug), nil, nil)
}

func (c *Client) ListMembers(ctx context.Context, slug string) ([]models.CircleMembership, error) {
	var out []models.CircleMembership
	err := c.do(ctx, http.MethodGet, "/circles/"+esc(slug)+"/members", nil, &out)
	return out, err
}

func (c *Client) JoinCircle(ctx context.Context, slug string) error {
	return c.do(ctx, http.MethodPost, "/circles/"+esc(slug)+"/join", nil, nil)
}

func (c *Client) LeaveCircle(ctx context.Context, slug string) error {
	return c.do(ctx, http.MethodPost, "/circles/"+esc(slug)+"/leave", nil, nil)
}

// Posts

func (c *Client) ListPosts(ctx context.Context, slug, sort string) ([]models.Post, error) {
	path := "/circles/" + esc(slug) + "/posts"
	if sort != "" {
		path += "?" + url.Values{"sort": {sort}}.Encode()
	}
	var out []models.Post
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) GetPost(ctx context.Context, id string) (models.Post, error) {
	var out models.Post
	err := c.do(ctx, http.MethodGet, "/posts/"+esc(id), nil, &out)
	return out, err
}

func (c *Client) CreatePost(ctx context.Context, slug string, req models.CreatePostRequest) (models.Post, error) {
	var out models.Post
	err := c.do(ctx, http.MethodPost, "/circles/"+esc(slug)+"/posts", req, &out)
	return out, err
}

func (c *Client) UpdatePost(ctx context.Context, id string, req models.UpdatePostRequest) (models.Post, error) {
	var out models.Post
	err := c.do(ctx, http.MethodPatch, "/posts/"+esc(id), req, &out)
	return out, err
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/posts/"+esc(id), nil, nil)
}

func (c *Client) TogglePostLike(ctx context.Context, id string) (models.Post, error) {
	var out models.Post
	err := c.do(ctx, http.MethodPost, "/posts/"+esc(id)+"/like", nil, &out)
	return out, err
}

// Comments

func (c *Client) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	var out []models.Comment
	err := c.do(ctx, http.MethodGet, "/posts/"+esc(postID)+"/comments", nil, &out)
	return out, err
}

func (c *Client) CreateComment(ctx context.Context, postID string, req models.CreateCommentRequest) (models.Comment, error) {
	var out models.Comment
	err := c.do(ctx, http.MethodPost, "/posts/"+esc(postID)+"/comments", req, &out)
	return out, err
}

func (c *Client) UpdateComment(ctx context.Context, id string, req models.UpdateCommentRequest) (models.Comment, error) {
	var out models.Comment
	err := c.do(ctx, http.MethodPatch, "/comments/"+esc(id), req, &out)
	return out, err
}

func (c *Client) DeleteComment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/comments/"+esc(id), nil, nil)
}

func (c *Client) ToggleCommentLike(ctx context.Context, id string) (models.Comment, error) {
	var out models.Comment
	err := c.do(ctx, http.MethodPost, "/comments/"+esc(id)+"/like", nil, &out)
	return out, err
}

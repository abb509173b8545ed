package models

// CreateCircleRequest is the body of POST /circles.
type CreateCircleRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// UpdateCircleRequest is the body of PATCH /circles/:slug. Nil fields are left unchanged.
type UpdateCircleRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// CreatePostRequest is the body of POST /circles/:slug/posts.
type CreatePostRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content,omitempty"`
	URL      string   `json:"url,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// UpdatePostRequest is the body of PATCH /posts/:id. Nil fields are left unchanged.
type UpdatePostRequest struct {
	Title    *string   `json:"title,omitempty"`
	Content  *string   `json:"content,omitempty"`
	URL      *string   `json:"url,omitempty"`
	ImageURL *string   `json:"image_url,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
}

// CreateCommentRequest is the body of POST /posts/:id/comments.
type CreateCommentRequest struct {
	ParentID *string `json:"parent_id,omitempty"`
	Content  string  `json:"content"`
}

// UpdateCommentRequest is the body of PATCH /comments/:id.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

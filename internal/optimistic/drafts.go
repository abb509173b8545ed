package optimistic

import (
	"sync"

	"circles/internal/models"
)

// Drafts keeps the input of mutations that failed so the view can reopen the
// form pre-filled. A successful mutation clears its draft.
type Drafts struct {
	mu sync.Mutex
	m  map[string]any
}

func newDrafts() *Drafts { return &Drafts{m: make(map[string]any)} }

// Get returns the draft stored under key.
func (d *Drafts) Get(key string) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.m[key]
	return v, ok
}

// Take returns and removes the draft stored under key.
func (d *Drafts) Take(key string) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.m[key]
	delete(d.m, key)
	return v, ok
}

// Len returns the number of stored drafts.
func (d *Drafts) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.m)
}

func (d *Drafts) put(key string, v any) {
	if key == "" {
		return
	}
	d.mu.Lock()
	d.m[key] = v
	d.mu.Unlock()
}

func (d *Drafts) clear(key string) {
	if key == "" {
		return
	}
	d.mu.Lock()
	delete(d.m, key)
	d.mu.Unlock()
}

// PostDraftKey is where a failed CreatePost in a circle leaves its input.
func PostDraftKey(slug string) string { return "post:new:" + slug }

// PostEditDraftKey is where a failed UpdatePost leaves its input.
func PostEditDraftKey(postID string) string { return "post:edit:" + postID }

// CommentDraftKey is where a failed CreateComment leaves its input. Replies
// are keyed by their parent so each reply box keeps its own draft.
func CommentDraftKey(postID string, parentID *string) string {
	if parentID == nil {
		return "comment:new:" + postID
	}
	return "comment:new:" + postID + ":" + *parentID
}

// CommentEditDraftKey is where a failed UpdateComment leaves its input.
func CommentEditDraftKey(commentID string) string { return "comment:edit:" + commentID }

// PostDraft returns the stored compose input for a circle.
func (d *Drafts) PostDraft(slug string) (models.CreatePostRequest, bool) {
	v, ok := d.Get(PostDraftKey(slug))
	req, typed := v.(models.CreatePostRequest)
	return req, ok && typed
}

// CommentDraft returns the stored reply input for a post or parent comment.
func (d *Drafts) CommentDraft(postID string, parentID *string) (models.CreateCommentRequest, bool) {
	v, ok := d.Get(CommentDraftKey(postID, parentID))
	req, typed := v.(models.CreateCommentRequest)
	return req, ok && typed
}

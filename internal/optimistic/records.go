package optimistic

import "circles/internal/models"

// Cached collections are shared with readers, so every helper here returns a
// new slice and leaves its input untouched.

func postID(p models.Post) string       { return p.ID }
func commentID(c models.Comment) string { return c.ID }

func mapByID[T any](list []T, id string, idOf func(T) string, fn func(T) T) ([]T, bool) {
	out := make([]T, len(list))
	found := false
	for i, v := range list {
		if idOf(v) == id {
			v = fn(v)
			found = true
		}
		out[i] = v
	}
	return out, found
}

func removeByID[T any](list []T, id string, idOf func(T) string) ([]T, bool) {
	out := make([]T, 0, len(list))
	found := false
	for _, v := range list {
		if idOf(v) == id {
			found = true
			continue
		}
		out = append(out, v)
	}
	return out, found
}

func containsID[T any](list []T, id string, idOf func(T) string) bool {
	for _, v := range list {
		if idOf(v) == id {
			return true
		}
	}
	return false
}

func prepend[T any](list []T, v T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, v)
	return append(out, list...)
}

func appendCopy[T any](list []T, v T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, list...)
	return append(out, v)
}

func togglePost(p models.Post, userID string) models.Post {
	p.LikedBy, p.UpvoteCount = models.ToggleLike(p.LikedBy, p.UpvoteCount, userID)
	return p
}

func toggleComment(c models.Comment, userID string) models.Comment {
	c.LikedBy, c.UpvoteCount = models.ToggleLike(c.LikedBy, c.UpvoteCount, userID)
	return c
}

func patchPost(p models.Post, req models.UpdatePostRequest, tags []string) models.Post {
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Content != nil {
		p.Content = *req.Content
	}
	if req.URL != nil {
		p.URL = *req.URL
	}
	if req.ImageURL != nil {
		p.ImageURL = *req.ImageURL
	}
	if req.Tags != nil {
		p.Tags = models.Tags(tags)
	}
	return p
}

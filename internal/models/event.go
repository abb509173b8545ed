package models

import "time"

// ChangeEventType names a committed mutation on the data service.
type ChangeEventType string

const (
	EventCircleCreated  ChangeEventType = "circle.created"
	EventCircleUpdated  ChangeEventType = "circle.updated"
	EventCircleDeleted  ChangeEventType = "circle.deleted"
	EventCircleJoined   ChangeEventType = "circle.joined"
	EventCircleLeft     ChangeEventType = "circle.left"
	EventPostCreated    ChangeEventType = "post.created"
	EventPostUpdated    ChangeEventType = "post.updated"
	EventPostDeleted    ChangeEventType = "post.deleted"
	EventPostLiked      ChangeEventType = "post.liked"
	EventCommentCreated ChangeEventType = "comment.created"
	EventCommentUpdated ChangeEventType = "comment.updated"
	EventCommentDeleted ChangeEventType = "comment.deleted"
	EventCommentLiked   ChangeEventType = "comment.liked"
)

// ChangeEvent is published after every successful mutation so that other
// clients can invalidate the query scopes it affects.
type ChangeEvent struct {
	Type       ChangeEventType `json:"type"`
	CircleSlug string          `json:"circle_slug,omitempty"`
	PostID     string          `json:"post_id,omitempty"`
	CommentID  string          `json:"comment_id,omitempty"`
	ActorID    string          `json:"actor_id,omitempty"`
	At         time.Time       `json:"at"`
}

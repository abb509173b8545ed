package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// LikeTarget identifies what kind of record a like points at.
type LikeTarget string

const (
	LikeTargetPost    LikeTarget = "post"
	LikeTargetComment LikeTarget = "comment"
)

// Like represents a user's like on a post or comment.
// The combination of TargetType, TargetID and UserID is unique.
type Like struct {
	TargetType LikeTarget `gorm:"primaryKey;size:16" json:"target_type"`
	TargetID   string     `gorm:"primaryKey;size:36" json:"target_id"`
	UserID     string     `gorm:"primaryKey;size:64" json:"user_id"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewID returns a fresh server-side record id.
func NewID() string {
	return uuid.NewString()
}

// HasLiked reports whether userID is present in likedBy.
func HasLiked(likedBy []string, userID string) bool {
	return slices.Contains(likedBy, userID)
}

// ToggleLike flips userID's like. When the user already liked the record the
// id is removed and the count decremented (never below zero); otherwise the
// id is appended and the count incremented. The input slice is not modified.
func ToggleLike(likedBy []string, count int, userID string) ([]string, int) {
	if HasLiked(likedBy, userID) {
		next := make([]string, 0, len(likedBy)-1)
		for _, id := range likedBy {
			if id != userID {
				next = append(next, id)
			}
		}
		count--
		if count < 0 {
			count = 0
		}
		return next, count
	}
	next := make([]string, len(likedBy), len(likedBy)+1)
	copy(next, likedBy)
	return append(next, userID), count + 1
}

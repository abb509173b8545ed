package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on a post. ParentID, when set, references
// another comment of the same post; nil means top level.
type Comment struct {
	ID                string  `gorm:"primaryKey;size:36" json:"id"`
	PostID            string  `gorm:"size:36;not null;index" json:"post_id"`
	ParentID          *string `gorm:"size:36;index" json:"parent_id,omitempty"`
	AuthorID          string  `gorm:"size:64;not null" json:"author_id"`
	AuthorDisplayName string  `gorm:"size:120" json:"author_display_name"`
	AuthorImageURL    string  `json:"author_image_url,omitempty"`
	Content           string  `gorm:"type:text;not null" json:"content"`
	// UpvoteCount and LikedBy are not persisted; derived from the likes relation
	UpvoteCount int            `gorm:"-" json:"upvote_count"`
	LikedBy     []string       `gorm:"-" json:"liked_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a server id when none was provided.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}

// IsReply reports whether the comment has a parent reference.
func (c Comment) IsReply() bool {
	return c.ParentID != nil && *c.ParentID != ""
}

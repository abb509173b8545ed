// Package models contains data structures for the application's domain models.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Post represents a post inside a circle.
type Post struct {
	ID                string `gorm:"primaryKey;size:36" json:"id"`
	CircleID          string `gorm:"size:36;not null;index" json:"circle_id"`
	AuthorID          string `gorm:"size:64;not null;index" json:"author_id"`
	AuthorDisplayName string `gorm:"size:120" json:"author_display_name"`
	AuthorImageURL    string `json:"author_image_url,omitempty"`
	Title             string `gorm:"size:300;not null" json:"title"`
	Content           string `gorm:"type:text" json:"content,omitempty"`
	URL               string `json:"url,omitempty"`
	ImageURL          string `json:"image_url,omitempty"`
	Tags              Tags   `gorm:"type:text" json:"tags,omitempty"`
	// UpvoteCount and LikedBy are not persisted; derived from the likes relation
	UpvoteCount int      `gorm:"-" json:"upvote_count"`
	LikedBy     []string `gorm:"-" json:"liked_by"`
	// CommentCount is not persisted; computed at query time
	CommentCount int            `gorm:"-" json:"comment_count"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a server id when none was provided.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}

// Tags is a list of post tags stored as a JSON array column.
type Tags []string

// Value implements driver.Valuer.
func (t Tags) Value() (driver.Value, error) {
	if len(t) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (t *Tags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("tags: unsupported scan type %T", src)
	}
	if len(raw) == 0 {
		*t = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	*t = out
	return nil
}

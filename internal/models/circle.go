package models

import (
	"time"

	"gorm.io/gorm"
)

// Circle represents a community namespace that groups posts by topic.
type Circle struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Name        string `gorm:"size:120;not null" json:"name"`
	Slug        string `gorm:"size:24;not null;uniqueIndex" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	ImageURL    string `json:"image_url,omitempty"`
	OwnerID     string `gorm:"size:64;not null;index" json:"owner_id"`
	// MemberCount is not persisted; derived from circle_memberships
	MemberCount int `gorm:"-" json:"member_count"`
	// Joined indicates whether the requesting user is a member (computed)
	Joined    bool      `gorm:"-" json:"joined"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Circle) TableName() string {
	return "circles"
}

// BeforeCreate assigns a server id when none was provided.
func (c *Circle) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}

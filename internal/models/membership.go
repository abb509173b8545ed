package models

import "time"

// MembershipRole defines a member's role in a circle.
type MembershipRole string

const (
	// MembershipRoleOwner is the circle owner role.
	MembershipRoleOwner MembershipRole = "owner"
	// MembershipRoleMember is the default member role.
	MembershipRoleMember MembershipRole = "member"
)

// CircleMembership maps users to circles and tracks role. The join roster of a
// circle is derived from this relation rather than embedded in the circle.
type CircleMembership struct {
	CircleID    string         `gorm:"primaryKey;size:36" json:"circle_id"`
	UserID      string         `gorm:"primaryKey;size:64" json:"user_id"`
	DisplayName string         `gorm:"size:120" json:"display_name"`
	ImageURL    string         `json:"image_url,omitempty"`
	Role        MembershipRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

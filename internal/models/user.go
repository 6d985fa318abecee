package models

import (
	"time"
)

// Roles understood by the application.
const (
	RoleAdministrator = "Administrator"
	RoleUser          = "User"
)

// User represents an operator of the stock application.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username string `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password string `gorm:"size:255;not null" json:"-"` // bcrypt hash, never exposed in JSON
	FullName string `gorm:"size:255;not null" json:"full_name"`
	Role     string `gorm:"size:50;not null" json:"role"`

	LastActivity *time.Time `json:"last_activity,omitempty"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
}

// IsAdmin returns true for active administrators.
func (u *User) IsAdmin() bool {
	return u.IsActive && u.Role == RoleAdministrator
}

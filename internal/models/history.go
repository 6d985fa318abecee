package models

import "time"

// History is an append-only audit row describing a user action.
type History struct {
	ID     uint      `gorm:"primaryKey" json:"id"`
	Action string    `gorm:"type:text;not null" json:"action"`
	Date   time.Time `gorm:"not null;index" json:"date"`

	UserID uint  `gorm:"index;not null" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"user,omitempty"`
}

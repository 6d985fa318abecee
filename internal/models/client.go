package models

import "time"

// Client is the customer an order is placed for.
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name          string `gorm:"size:255;not null" json:"name"`
	Phone         string `gorm:"size:50" json:"phone,omitempty"`
	Address       string `gorm:"size:500" json:"address,omitempty"`
	ContactPerson string `gorm:"size:255" json:"contact_person,omitempty"`

	Orders []Order `gorm:"foreignKey:ClientID" json:"orders,omitempty"`
}

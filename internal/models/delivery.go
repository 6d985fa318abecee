package models

import "time"

// DeliveryStatus represents the shipping state of an order.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "Pending"
	DeliveryInTransit DeliveryStatus = "In Transit"
	DeliveryDelivered DeliveryStatus = "Delivered"
	DeliveryCanceled  DeliveryStatus = "Canceled"
)

// DeliveryStatuses lists every valid status in workflow order.
var DeliveryStatuses = []DeliveryStatus{DeliveryPending, DeliveryInTransit, DeliveryDelivered, DeliveryCanceled}

// Valid reports whether s is one of the known statuses.
func (s DeliveryStatus) Valid() bool {
	for _, known := range DeliveryStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal returns true for Delivered and Canceled.
func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryDelivered || s == DeliveryCanceled
}

// CanTransitionTo reports whether a delivery in status s may move to next.
// Pending -> In Transit -> Delivered, and Canceled from any non-terminal
// status. Keeping the same status is always allowed.
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	switch s {
	case DeliveryPending:
		return next == DeliveryInTransit || next == DeliveryCanceled
	case DeliveryInTransit:
		return next == DeliveryDelivered || next == DeliveryCanceled
	default:
		return false
	}
}

// Delivery is the optional one-to-one shipping record of an order.
type Delivery struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// OrderID is unique and never changes after creation.
	OrderID uint   `gorm:"uniqueIndex;not null" json:"order_id"`
	Order   *Order `gorm:"foreignKey:OrderID" json:"-"`

	DeliveryDate time.Time      `gorm:"not null" json:"delivery_date"`
	Status       DeliveryStatus `gorm:"size:20;not null;default:'Pending'" json:"status"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultOrderStatus is assigned to orders created without an explicit status.
const DefaultOrderStatus = "Pending"

// Order groups line items for a client. Total is derived from the items and is
// written only by the reconciliation commit.
type Order struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OrderDate time.Time `gorm:"not null" json:"order_date"`

	ClientID uint    `gorm:"index;not null" json:"client_id"`
	Client   *Client `gorm:"foreignKey:ClientID;constraint:OnDelete:RESTRICT" json:"client,omitempty"`

	Total  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total"`
	Status string          `gorm:"size:50" json:"status"`

	Items    []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Delivery *Delivery   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"delivery,omitempty"`
}

// ComputeTotal returns the sum of quantity * price over the loaded items.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].Subtotal())
	}
	return total
}

// UnitCount returns the number of units ordered across all items.
func (o *Order) UnitCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// OrderItem is one product line of an order. Price is the product price
// captured when the line was added.
type OrderItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OrderID uint `gorm:"index;not null" json:"order_id"`

	ProductID uint     `gorm:"index;not null" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"product,omitempty"`

	Quantity int             `gorm:"not null" json:"quantity"`
	Price    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
}

// Subtotal calculates the line total.
func (item *OrderItem) Subtotal() decimal.Decimal {
	return item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultThreshold is the low-stock threshold applied to new products.
const DefaultThreshold = 10

// Product is a catalog entry with its on-hand quantity.
//
// Quantity is only ever changed by order reconciliation; Version is bumped on
// every quantity write and is used to detect concurrent editors.
type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string `gorm:"size:255;not null" json:"name"`
	Reference   string `gorm:"size:100;not null;index" json:"reference"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	Quantity  int             `gorm:"not null" json:"quantity"`
	Threshold int             `gorm:"not null;default:10" json:"threshold"`
	Price     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`

	ExpiryDate *time.Time `json:"expiry_date,omitempty"`

	// Weak reference, nulled when the supplier goes away.
	SupplierID *uint     `gorm:"index" json:"supplier_id,omitempty"`
	Supplier   *Supplier `gorm:"foreignKey:SupplierID;constraint:OnDelete:SET NULL" json:"supplier,omitempty"`

	Version int `gorm:"not null;default:0" json:"version"`
}

// IsLowStock reports whether the quantity has reached the alert threshold.
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.Threshold
}

// IsExpired reports whether the product has an expiry date at or before now.
func (p *Product) IsExpired(now time.Time) bool {
	return p.ExpiryDate != nil && !p.ExpiryDate.After(now)
}

// ExpiresWithin reports whether the product expires in (now, now+window].
func (p *Product) ExpiresWithin(now time.Time, window time.Duration) bool {
	if p.ExpiryDate == nil || p.IsExpired(now) {
		return false
	}
	return !p.ExpiryDate.After(now.Add(window))
}

// Supplier provides products. Products keep a nullable reference to it.
type Supplier struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name          string `gorm:"size:255;not null" json:"name"`
	Phone         string `gorm:"size:50;not null" json:"phone"`
	Address       string `gorm:"size:500;not null" json:"address"`
	Email         string `gorm:"size:255" json:"email,omitempty"`
	ContactPerson string `gorm:"size:255" json:"contact_person,omitempty"`
	IsActive      bool   `gorm:"not null;default:true" json:"is_active"`

	Products []Product `gorm:"foreignKey:SupplierID" json:"products,omitempty"`
}

package inventory

import (
	"context"

	"github.com/diewo77/stock-manager/internal/models"
)

// Catalog reads current stock and persists quantity changes.
type Catalog interface {
	// GetProduct returns a *NotFoundError when the product does not exist.
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	// SaveProducts writes the quantities of the given products. It fails with
	// ErrConflict if any of them changed since it was read.
	SaveProducts(ctx context.Context, updated []models.Product) error
}

// Orders persists orders together with their items.
type Orders interface {
	GetOrderWithItems(ctx context.Context, id uint) (*models.Order, error)
	// SaveOrder creates or updates the order header and replaces its item set
	// with items.
	SaveOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error
	// DeleteOrder removes the order, its items and its delivery.
	DeleteOrder(ctx context.Context, id uint) error
	ClientExists(ctx context.Context, id uint) (bool, error)
}

// Repository is the full set of accessors a reconciliation commit needs.
type Repository interface {
	Catalog
	Orders
}

// UnitOfWork runs fn against a Repository bound to a single transaction. If fn
// returns an error, nothing fn wrote is kept.
type UnitOfWork interface {
	Atomic(ctx context.Context, fn func(repo Repository) error) error
}

// Package store implements the inventory repository ports on GORM.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/stock-manager/internal/inventory"
	"github.com/diewo77/stock-manager/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store reads and writes products and orders. A Store handed to the callback
// of Atomic is bound to that transaction.
type Store struct {
	db   *gorm.DB
	inTx bool
}

var (
	_ inventory.Repository = (*Store)(nil)
	_ inventory.UnitOfWork = (*Store)(nil)
)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Atomic runs fn inside one database transaction. Any error returned by fn
// rolls the transaction back.
func (s *Store) Atomic(ctx context.Context, fn func(repo inventory.Repository) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, inTx: true})
	})
}

// rowLocks reports whether product reads should take row locks. SQLite has no
// SELECT ... FOR UPDATE; its transactions already serialize writers.
func (s *Store) rowLocks() bool {
	return s.inTx && s.db.Dialector.Name() == "postgres"
}

// GetProduct loads a product, locking its row for the rest of the transaction
// on Postgres.
func (s *Store) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	q := s.db.WithContext(ctx)
	if s.rowLocks() {
		q = q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	var p models.Product
	if err := q.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &inventory.NotFoundError{Entity: "product", ID: id}
		}
		return nil, &inventory.PersistenceError{Op: "load product", Err: err}
	}
	return &p, nil
}

// SaveProducts writes quantities guarded by the version read with the
// product. A product modified by someone else in the meantime fails the whole
// call with inventory.ErrConflict.
func (s *Store) SaveProducts(ctx context.Context, updated []models.Product) error {
	for i := range updated {
		p := &updated[i]
		res := s.db.WithContext(ctx).Model(&models.Product{}).
			Where("id = ? AND version = ?", p.ID, p.Version).
			Updates(map[string]any{
				"quantity": p.Quantity,
				"version":  gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return &inventory.PersistenceError{Op: "save product", Err: res.Error}
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product %d changed since it was read: %w", p.ID, inventory.ErrConflict)
		}
		p.Version++
	}
	return nil
}

// GetOrderWithItems loads an order with its items (and their products) and
// its delivery.
func (s *Store) GetOrderWithItems(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Product").
		Preload("Client").
		Preload("Delivery").
		First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &inventory.NotFoundError{Entity: "order", ID: id}
		}
		return nil, &inventory.PersistenceError{Op: "load order", Err: err}
	}
	return &o, nil
}

// SaveOrder inserts or updates the order header, deletes items of the order
// that are not in items, updates the ones that are and inserts the new ones
// (zero id). order.Items is set to the stored items.
func (s *Store) SaveOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	db := s.db.WithContext(ctx)
	if order.ID == 0 {
		if err := db.Omit(clause.Associations).Create(order).Error; err != nil {
			return &inventory.PersistenceError{Op: "create order", Err: err}
		}
	} else {
		res := db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
			"order_date": order.OrderDate,
			"client_id":  order.ClientID,
			"status":     order.Status,
			"total":      order.Total,
		})
		if res.Error != nil {
			return &inventory.PersistenceError{Op: "update order", Err: res.Error}
		}
		if res.RowsAffected == 0 {
			return &inventory.NotFoundError{Entity: "order", ID: order.ID}
		}
	}

	keep := make([]uint, 0, len(items))
	for _, it := range items {
		if it.ID != 0 {
			keep = append(keep, it.ID)
		}
	}
	del := db.Where("order_id = ?", order.ID)
	if len(keep) > 0 {
		del = del.Where("id NOT IN ?", keep)
	}
	if err := del.Delete(&models.OrderItem{}).Error; err != nil {
		return &inventory.PersistenceError{Op: "delete order items", Err: err}
	}

	stored := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		it.OrderID = order.ID
		it.Product = nil
		if it.ID == 0 {
			if err := db.Create(&it).Error; err != nil {
				return &inventory.PersistenceError{Op: "create order item", Err: err}
			}
		} else {
			res := db.Model(&models.OrderItem{}).
				Where("id = ? AND order_id = ?", it.ID, order.ID).
				Updates(map[string]any{"quantity": it.Quantity, "price": it.Price})
			if res.Error != nil {
				return &inventory.PersistenceError{Op: "update order item", Err: res.Error}
			}
			if res.RowsAffected == 0 {
				return &inventory.NotFoundError{Entity: "order item", ID: it.ID}
			}
		}
		stored = append(stored, it)
	}
	order.Items = stored
	return nil
}

// DeleteOrder removes the order with its items and delivery.
func (s *Store) DeleteOrder(ctx context.Context, id uint) error {
	return s.Atomic(ctx, func(repo inventory.Repository) error {
		db := repo.(*Store).db.WithContext(ctx)
		if err := db.Where("order_id = ?", id).Delete(&models.Delivery{}).Error; err != nil {
			return &inventory.PersistenceError{Op: "delete delivery", Err: err}
		}
		if err := db.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return &inventory.PersistenceError{Op: "delete order items", Err: err}
		}
		res := db.Delete(&models.Order{}, id)
		if res.Error != nil {
			return &inventory.PersistenceError{Op: "delete order", Err: res.Error}
		}
		if res.RowsAffected == 0 {
			return &inventory.NotFoundError{Entity: "order", ID: id}
		}
		return nil
	})
}

func (s *Store) ClientExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, &inventory.PersistenceError{Op: "check client", Err: err}
	}
	return count > 0, nil
}

// ListOrders returns a page of orders, newest first, with their client and
// delivery, and the total number of orders.
func (s *Store) ListOrders(ctx context.Context, limit, offset int) ([]models.Order, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).Count(&total).Error; err != nil {
		return nil, 0, &inventory.PersistenceError{Op: "count orders", Err: err}
	}
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Client").
		Preload("Delivery").
		Order("order_date desc, id desc").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, 0, &inventory.PersistenceError{Op: "list orders", Err: err}
	}
	return orders, total, nil
}

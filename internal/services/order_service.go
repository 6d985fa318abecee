package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/diewo77/stock-manager/internal/audit"
	"github.com/diewo77/stock-manager/internal/inventory"
	"github.com/diewo77/stock-manager/internal/models"
	"github.com/diewo77/stock-manager/validation"
)

// OrderStore is what OrderService needs from storage: transactional access
// for commits plus plain reads.
type OrderStore interface {
	inventory.UnitOfWork
	inventory.Repository
	ListOrders(ctx context.Context, limit, offset int) ([]models.Order, int64, error)
}

// OrderDraft is a snapshot of an order header and its lines. A zero ID means
// the order has not been stored yet. The price of a new line is taken from
// the product at commit time; persisted lines keep their stored price.
type OrderDraft struct {
	ID        uint
	ClientID  uint
	OrderDate time.Time
	Status    string
	Lines     []inventory.Line
}

// DraftOf builds the snapshot of a stored order.
func DraftOf(o *models.Order) OrderDraft {
	return OrderDraft{
		ID:        o.ID,
		ClientID:  o.ClientID,
		OrderDate: o.OrderDate,
		Status:    o.Status,
		Lines:     inventory.LinesFromItems(o.Items),
	}
}

// OrderService commits and deletes orders while keeping product stock in
// step with their line items.
type OrderService struct {
	store OrderStore
	audit *audit.Recorder
	log   *slog.Logger
	now   func() time.Time
}

func NewOrderService(store OrderStore, rec *audit.Recorder, log *slog.Logger) *OrderService {
	if log == nil {
		log = slog.Default()
	}
	return &OrderService{store: store, audit: rec, log: log, now: time.Now}
}

// CommitOrder stores proposed as the new state of the order that the caller
// last saw as original. original is the zero draft for a new order.
//
// Stock checks, product updates, item changes and the order total are
// applied in one transaction; on any error nothing is written. If the stored
// items no longer match original the commit fails with inventory.ErrConflict.
func (s *OrderService) CommitOrder(ctx context.Context, userID uint, original, proposed OrderDraft) (*models.Order, error) {
	v := make(validation.Violations)
	validation.RequiredID("client_id", proposed.ClientID, v)
	if len(proposed.Lines) == 0 {
		v["items"] = "required"
	}
	if original.ID != proposed.ID {
		v["id"] = "mismatch"
	}
	if proposed.ID == 0 && len(original.Lines) > 0 {
		v["original"] = "must_be_empty"
	}
	if err := inventory.Invalid(v); err != nil {
		return nil, err
	}
	if proposed.OrderDate.IsZero() {
		proposed.OrderDate = s.now()
	}
	if proposed.Status == "" {
		proposed.Status = models.DefaultOrderStatus
	}

	var saved models.Order
	var plan inventory.Plan
	err := s.store.Atomic(ctx, func(repo inventory.Repository) error {
		ok, err := repo.ClientExists(ctx, proposed.ClientID)
		if err != nil {
			return err
		}
		if !ok {
			return &inventory.NotFoundError{Entity: "client", ID: proposed.ClientID}
		}

		var stored []inventory.Line
		if proposed.ID != 0 {
			current, err := repo.GetOrderWithItems(ctx, proposed.ID)
			if err != nil {
				return err
			}
			stored = inventory.LinesFromItems(current.Items)
			if !sameLines(stored, original.Lines) {
				return fmt.Errorf("order %d changed since it was opened: %w", proposed.ID, inventory.ErrConflict)
			}
		}

		plan, err = reconcileAndApply(ctx, repo, stored, proposed.Lines)
		if err != nil {
			return err
		}

		saved = models.Order{
			ID:        proposed.ID,
			ClientID:  proposed.ClientID,
			OrderDate: proposed.OrderDate,
			Status:    proposed.Status,
			Total:     plan.Total,
		}
		return repo.SaveOrder(ctx, &saved, plan.Items(proposed.ID))
	})
	if err != nil {
		return nil, inventory.Persistence("commit order", err)
	}

	if proposed.ID == 0 {
		s.audit.Record(ctx, userID, "Added order #%d for client #%d (total %s)", saved.ID, saved.ClientID, saved.Total.StringFixed(2))
	} else {
		s.audit.Record(ctx, userID, "Updated order #%d (total %s)", saved.ID, saved.Total.StringFixed(2))
	}
	s.log.InfoContext(ctx, "order committed",
		slog.Uint64("order_id", uint64(saved.ID)),
		slog.Int("units", plan.Units()),
		slog.Int("products", len(plan.Deltas)),
	)

	reloaded, err := s.store.GetOrderWithItems(ctx, saved.ID)
	if err != nil {
		return &saved, nil
	}
	return reloaded, nil
}

// DeleteOrder returns every item's quantity to stock and removes the order
// with its items and delivery, atomically.
func (s *OrderService) DeleteOrder(ctx context.Context, userID, orderID uint) error {
	err := s.store.Atomic(ctx, func(repo inventory.Repository) error {
		current, err := repo.GetOrderWithItems(ctx, orderID)
		if err != nil {
			return err
		}
		if _, err := reconcileAndApply(ctx, repo, inventory.LinesFromItems(current.Items), nil); err != nil {
			return err
		}
		return repo.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		return inventory.Persistence("delete order", err)
	}
	s.audit.Record(ctx, userID, "Deleted order #%d", orderID)
	s.log.InfoContext(ctx, "order deleted", slog.Uint64("order_id", uint64(orderID)))
	return nil
}

// reconcileAndApply loads every product either line set touches, prices new
// lines from them, reconciles and writes the adjusted quantities through repo.
func reconcileAndApply(ctx context.Context, repo inventory.Repository, original, proposed []inventory.Line) (inventory.Plan, error) {
	ids := inventory.TouchedProducts(original, proposed)
	products := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		p, err := repo.GetProduct(ctx, id)
		if err != nil {
			return inventory.Plan{}, err
		}
		products = append(products, *p)
	}
	proposed = inventory.PriceNewLines(proposed, products)
	plan, err := inventory.Reconcile(original, proposed, inventory.StockOf(products...))
	if err != nil {
		return inventory.Plan{}, err
	}
	updated, err := plan.Apply(products)
	if err != nil {
		return inventory.Plan{}, err
	}
	if err := repo.SaveProducts(ctx, updated); err != nil {
		return inventory.Plan{}, err
	}
	return plan, nil
}

// sameLines compares two persisted line sets by id, product and quantity.
func sameLines(a, b []inventory.Line) bool {
	if len(a) != len(b) {
		return false
	}
	byID := make(map[uint]inventory.Line, len(a))
	for _, l := range a {
		id, ok := l.Ref.ID()
		if !ok {
			return false
		}
		byID[id] = l
	}
	for _, l := range b {
		id, ok := l.Ref.ID()
		if !ok {
			return false
		}
		o, found := byID[id]
		if !found || o.ProductID != l.ProductID || o.Quantity != l.Quantity {
			return false
		}
		delete(byID, id)
	}
	return true
}

// OpenSession starts an edit session. orderID 0 opens an empty session for
// a new order.
func (s *OrderService) OpenSession(ctx context.Context, orderID uint) (OrderDraft, *inventory.Session, error) {
	if orderID == 0 {
		return OrderDraft{}, inventory.NewSession(nil), nil
	}
	o, err := s.store.GetOrderWithItems(ctx, orderID)
	if err != nil {
		return OrderDraft{}, nil, err
	}
	draft := DraftOf(o)
	return draft, inventory.NewSession(draft.Lines), nil
}

// AddToSession looks up the product and adds qty units of it to sess.
func (s *OrderService) AddToSession(ctx context.Context, sess *inventory.Session, productID uint, qty int) error {
	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	return sess.Add(*p, qty)
}

// NewLine prices a new line from the catalog without checking stock. Use it
// when the caller sends a complete line set and Reconcile does the checking.
func (s *OrderService) NewLine(ctx context.Context, productID uint, qty int) (inventory.Line, error) {
	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return inventory.Line{}, err
	}
	return inventory.Line{Ref: inventory.NewItem(), ProductID: p.ID, Quantity: qty, Price: p.Price}, nil
}

func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	return s.store.GetOrderWithItems(ctx, id)
}

// List returns a page of orders, newest first, and the total count.
func (s *OrderService) List(ctx context.Context, limit, offset int) ([]models.Order, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListOrders(ctx, limit, offset)
}

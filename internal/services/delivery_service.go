package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/stock-manager/internal/audit"
	"github.com/diewo77/stock-manager/internal/inventory"
	"github.com/diewo77/stock-manager/internal/models"
	"github.com/diewo77/stock-manager/validation"
	"gorm.io/gorm"
)

// DeliveryInput carries the editable fields of a delivery. An empty Status
// means Pending on create and "unchanged" on update; a zero DeliveryDate
// means today on create and "unchanged" on update.
type DeliveryInput struct {
	OrderID      uint
	DeliveryDate time.Time
	Status       models.DeliveryStatus
}

// DeliveryService tracks the shipping record of orders. It never touches
// stock.
type DeliveryService struct {
	db    *gorm.DB
	audit *audit.Recorder
	now   func() time.Time
}

func NewDeliveryService(db *gorm.DB, rec *audit.Recorder) *DeliveryService {
	return &DeliveryService{db: db, audit: rec, now: time.Now}
}

// Create attaches a delivery to an order that does not have one yet.
func (s *DeliveryService) Create(ctx context.Context, userID uint, in DeliveryInput) (*models.Delivery, error) {
	if in.Status == "" {
		in.Status = models.DeliveryPending
	}
	if in.DeliveryDate.IsZero() {
		in.DeliveryDate = s.now()
	}
	v := make(validation.Violations)
	validation.RequiredID("order_id", in.OrderID, v)
	validation.OneOf("status", string(in.Status), deliveryStatusNames(), v)
	if err := inventory.Invalid(v); err != nil {
		return nil, err
	}

	d := models.Delivery{OrderID: in.OrderID, DeliveryDate: in.DeliveryDate, Status: in.Status}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Order{}).Where("id = ?", in.OrderID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return &inventory.NotFoundError{Entity: "order", ID: in.OrderID}
		}
		if err := tx.Model(&models.Delivery{}).Where("order_id = ?", in.OrderID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("order %d already has a delivery: %w", in.OrderID, inventory.ErrConflict)
		}
		if err := tx.Create(&d).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("order %d already has a delivery: %w", in.OrderID, inventory.ErrConflict)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, inventory.Persistence("create delivery", err)
	}
	s.audit.Record(ctx, userID, "Added delivery #%d for order #%d (%s)", d.ID, d.OrderID, d.Status)
	return &d, nil
}

// Update changes the date and status of a delivery. The order a delivery
// belongs to cannot change, and status moves must follow
// DeliveryStatus.CanTransitionTo.
func (s *DeliveryService) Update(ctx context.Context, userID, id uint, in DeliveryInput) (*models.Delivery, error) {
	var d models.Delivery
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&d, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &inventory.NotFoundError{Entity: "delivery", ID: id}
			}
			return err
		}
		v := make(validation.Violations)
		if in.OrderID != 0 && in.OrderID != d.OrderID {
			v["order_id"] = "immutable"
		}
		next := d.Status
		if in.Status != "" {
			validation.OneOf("status", string(in.Status), deliveryStatusNames(), v)
			next = in.Status
		}
		if _, bad := v["status"]; !bad && !d.Status.CanTransitionTo(next) {
			v["status"] = "invalid_transition"
		}
		if err := inventory.Invalid(v); err != nil {
			return err
		}

		updates := map[string]any{"status": next}
		if !in.DeliveryDate.IsZero() {
			updates["delivery_date"] = in.DeliveryDate
		}
		if err := tx.Model(&d).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&d, id).Error
	})
	if err != nil {
		return nil, inventory.Persistence("update delivery", err)
	}
	s.audit.Record(ctx, userID, "Updated delivery #%d for order #%d (%s)", d.ID, d.OrderID, d.Status)
	return &d, nil
}

func (s *DeliveryService) Get(ctx context.Context, id uint) (*models.Delivery, error) {
	var d models.Delivery
	if err := s.db.WithContext(ctx).First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &inventory.NotFoundError{Entity: "delivery", ID: id}
		}
		return nil, inventory.Persistence("load delivery", err)
	}
	return &d, nil
}

// ForOrder returns the delivery of an order.
func (s *DeliveryService) ForOrder(ctx context.Context, orderID uint) (*models.Delivery, error) {
	var d models.Delivery
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &inventory.NotFoundError{Entity: "delivery for order", ID: orderID}
		}
		return nil, inventory.Persistence("load delivery", err)
	}
	return &d, nil
}

// List returns deliveries by date, optionally filtered by status.
func (s *DeliveryService) List(ctx context.Context, status models.DeliveryStatus) ([]models.Delivery, error) {
	q := s.db.WithContext(ctx).Order("delivery_date desc, id desc")
	if status != "" {
		if !status.Valid() {
			return nil, inventory.Invalid(validation.Violations{"status": "invalid_value"})
		}
		q = q.Where("status = ?", status)
	}
	var out []models.Delivery
	if err := q.Find(&out).Error; err != nil {
		return nil, inventory.Persistence("list deliveries", err)
	}
	return out, nil
}

func deliveryStatusNames() []string {
	names := make([]string, 0, len(models.DeliveryStatuses))
	for _, st := range models.DeliveryStatuses {
		names = append(names, string(st))
	}
	return names
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/stock-manager/internal/audit"
	"github.com/diewo77/stock-manager/internal/inventory"
	"github.com/diewo77/stock-manager/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedOrder(t *testing.T, db *gorm.DB, clientID uint) models.Order {
	t.Helper()
	o := models.Order{ClientID: clientID, OrderDate: time.Now(), Status: models.DefaultOrderStatus, Total: decimal.Zero}
	if err := db.Create(&o).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return o
}

func TestDeliveryLifecycle(t *testing.T) {
	db := setupTestDB(t, t.Name())
	user := seedUser(t, db, "clerk", models.RoleUser)
	order := seedOrder(t, db, seedClient(t, db).ID)
	p := seedProduct(t, db, "A", 4, "1.00")
	svc := NewDeliveryService(db, audit.NewRecorder(audit.NewHistorySink(db), discardLogger()))
	ctx := context.Background()

	d, err := svc.Create(ctx, user.ID, DeliveryInput{OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryPending, d.Status)
	assert.False(t, d.DeliveryDate.IsZero())

	_, err = svc.Create(ctx, user.ID, DeliveryInput{OrderID: order.ID})
	assert.ErrorIs(t, err, inventory.ErrConflict)

	d, err = svc.Update(ctx, user.ID, d.ID, DeliveryInput{Status: models.DeliveryInTransit})
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryInTransit, d.Status)

	_, err = svc.Update(ctx, user.ID, d.ID, DeliveryInput{Status: models.DeliveryPending})
	assert.ErrorIs(t, err, inventory.ErrValidation)

	_, err = svc.Update(ctx, user.ID, d.ID, DeliveryInput{OrderID: order.ID + 1, Status: models.DeliveryDelivered})
	assert.ErrorIs(t, err, inventory.ErrValidation)

	when := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d, err = svc.Update(ctx, user.ID, d.ID, DeliveryInput{Status: models.DeliveryDelivered, DeliveryDate: when})
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryDelivered, d.Status)
	assert.True(t, d.DeliveryDate.Equal(when))

	_, err = svc.Update(ctx, user.ID, d.ID, DeliveryInput{Status: models.DeliveryCanceled})
	assert.ErrorIs(t, err, inventory.ErrValidation)

	// deliveries never touch stock
	assert.Equal(t, 4, productQty(t, db, p.ID))

	got, err := svc.ForOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
}

func TestDeliveryCreateErrors(t *testing.T) {
	db := setupTestDB(t, t.Name())
	order := seedOrder(t, db, seedClient(t, db).ID)
	svc := NewDeliveryService(db, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, DeliveryInput{})
	assert.ErrorIs(t, err, inventory.ErrValidation)

	_, err = svc.Create(ctx, 1, DeliveryInput{OrderID: order.ID, Status: "Lost"})
	assert.ErrorIs(t, err, inventory.ErrValidation)

	_, err = svc.Create(ctx, 1, DeliveryInput{OrderID: 999})
	assert.ErrorIs(t, err, inventory.ErrNotFound)

	_, err = svc.Update(ctx, 1, 999, DeliveryInput{Status: models.DeliveryCanceled})
	assert.ErrorIs(t, err, inventory.ErrNotFound)

	_, err = svc.Get(ctx, 999)
	assert.ErrorIs(t, err, inventory.ErrNotFound)
}

func TestDeliveryList(t *testing.T) {
	db := setupTestDB(t, t.Name())
	client := seedClient(t, db)
	svc := NewDeliveryService(db, nil)
	ctx := context.Background()

	for _, st := range []models.DeliveryStatus{models.DeliveryPending, models.DeliveryInTransit, models.DeliveryPending} {
		o := seedOrder(t, db, client.ID)
		_, err := svc.Create(ctx, 1, DeliveryInput{OrderID: o.ID, Status: st})
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pending, err := svc.List(ctx, models.DeliveryPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, err = svc.List(ctx, "Lost")
	assert.ErrorIs(t, err, inventory.ErrValidation)
}

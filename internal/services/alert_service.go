package services

import (
	"context"
	"time"

	"github.com/diewo77/stock-manager/internal/inventory"
	"github.com/diewo77/stock-manager/internal/models"
	"gorm.io/gorm"
)

// DefaultExpiryWindow is how far ahead products count as expiring soon.
const DefaultExpiryWindow = 7 * 24 * time.Hour

// StockAlerts lists the products that need attention.
type StockAlerts struct {
	LowStock     []models.Product `json:"low_stock"`
	Expired      []models.Product `json:"expired"`
	ExpiringSoon []models.Product `json:"expiring_soon"`
}

// Count is the total number of alerts.
func (a StockAlerts) Count() int {
	return len(a.LowStock) + len(a.Expired) + len(a.ExpiringSoon)
}

type AlertService struct {
	db     *gorm.DB
	window time.Duration
}

func NewAlertService(db *gorm.DB, window time.Duration) *AlertService {
	if window <= 0 {
		window = DefaultExpiryWindow
	}
	return &AlertService{db: db, window: window}
}

// StockAlerts returns products at or below their threshold (lowest quantity
// first), products expired at now and products expiring within the window.
func (s *AlertService) StockAlerts(ctx context.Context, now time.Time) (StockAlerts, error) {
	var out StockAlerts
	db := s.db.WithContext(ctx)
	if err := db.Where("quantity <= threshold").Order("quantity asc, id asc").Find(&out.LowStock).Error; err != nil {
		return StockAlerts{}, inventory.Persistence("low stock alerts", err)
	}
	if err := db.Where("expiry_date IS NOT NULL AND expiry_date <= ?", now).Order("expiry_date asc, id asc").Find(&out.Expired).Error; err != nil {
		return StockAlerts{}, inventory.Persistence("expired alerts", err)
	}
	err := db.Where("expiry_date > ? AND expiry_date <= ?", now, now.Add(s.window)).
		Order("expiry_date asc, id asc").
		Find(&out.ExpiringSoon).Error
	if err != nil {
		return StockAlerts{}, inventory.Persistence("expiry alerts", err)
	}
	return out, nil
}

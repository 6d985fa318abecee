package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/stock-manager/internal/inventory"
	"github.com/diewo77/stock-manager/internal/models"
	"github.com/diewo77/stock-manager/internal/policy"
	"gorm.io/gorm"
)

// HistoryService reads and clears the audit history.
type HistoryService struct {
	db *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// List returns a page of history rows, newest first, with their user.
func (s *HistoryService) List(ctx context.Context, limit, offset int) ([]models.History, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.History{}).Count(&total).Error; err != nil {
		return nil, 0, inventory.Persistence("count history", err)
	}
	var rows []models.History
	err := s.db.WithContext(ctx).Preload("User").
		Order("date desc, id desc").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, inventory.Persistence("list history", err)
	}
	return rows, total, nil
}

// Clear deletes every history row and leaves a single entry recording the
// clear. Only administrators may do this.
func (s *HistoryService) Clear(ctx context.Context, actorID uint) error {
	if err := authorize(ctx, s.db, actorID, policy.ActionClear, policy.ResourceHistory); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.History{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.History{Action: "Cleared all history records", Date: timeNow(), UserID: actorID}).Error
	})
	return inventory.Persistence("clear history", err)
}

// authorize returns ErrForbidden unless access lets actorID perform action
// on resource.
func authorize(ctx context.Context, db *gorm.DB, actorID uint, action policy.Action, resource string) error {
	var actor models.User
	if err := db.WithContext(ctx).First(&actor, actorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrForbidden
		}
		return inventory.Persistence("load user", err)
	}
	if err := access.Authorize(ctx, &actor, action, resource); err != nil {
		return fmt.Errorf("%w: %s %s", ErrForbidden, action, resource)
	}
	return nil
}

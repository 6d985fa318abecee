// Package audit records user actions in the history table.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/diewo77/stock-manager/internal/models"
	"gorm.io/gorm"
)

// Sink stores one audit entry.
type Sink interface {
	Record(ctx context.Context, action string, userID uint, at time.Time) error
}

// HistorySink writes entries as models.History rows.
type HistorySink struct {
	db *gorm.DB
}

func NewHistorySink(db *gorm.DB) *HistorySink {
	return &HistorySink{db: db}
}

func (s *HistorySink) Record(ctx context.Context, action string, userID uint, at time.Time) error {
	h := models.History{Action: action, Date: at, UserID: userID}
	if err := s.db.WithContext(ctx).Create(&h).Error; err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

// Recorder is a best-effort audit log. A failing sink is logged and never
// reported to the caller: the audited operation has already committed.
type Recorder struct {
	sink   Sink
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder returns a Recorder writing to sink. A nil logger uses
// slog.Default().
func NewRecorder(sink Sink, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{sink: sink, logger: logger, now: time.Now}
}

// Record formats the action and writes it for userID.
func (r *Recorder) Record(ctx context.Context, userID uint, format string, args ...any) {
	if r == nil || r.sink == nil {
		return
	}
	action := fmt.Sprintf(format, args...)
	if err := r.sink.Record(ctx, action, userID, r.now()); err != nil {
		r.logger.WarnContext(ctx, "audit record failed",
			slog.String("action", action),
			slog.Uint64("user_id", uint64(userID)),
			slog.Any("error", err),
		)
	}
}

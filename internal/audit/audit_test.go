package audit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/diewo77/stock-manager/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type failingSink struct{ calls int }

func (f *failingSink) Record(context.Context, string, uint, time.Time) error {
	f.calls++
	return errors.New("history table locked")
}

func TestHistorySinkWritesRow(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.History{}))

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := NewRecorder(NewHistorySink(db), nil)
	rec.now = func() time.Time { return at }
	rec.Record(context.Background(), 3, "Deleted order #%d", 12)

	var rows []models.History
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "Deleted order #12", rows[0].Action)
	assert.Equal(t, uint(3), rows[0].UserID)
	assert.True(t, rows[0].Date.Equal(at))
}

func TestRecorderSwallowsSinkErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	sink := &failingSink{}

	rec := NewRecorder(sink, logger)
	rec.Record(context.Background(), 1, "Added order #%d", 5)

	assert.Equal(t, 1, sink.calls)
	assert.Contains(t, buf.String(), "audit record failed")
	assert.Contains(t, buf.String(), "Added order #5")
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() { rec.Record(context.Background(), 1, "x") })
}

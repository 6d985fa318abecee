package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/diewo77/stock-manager/auth"
	"github.com/diewo77/stock-manager/httpx"
	"github.com/diewo77/stock-manager/internal/services"
)

type HistoryHandler struct {
	Svc *services.HistoryService
	Log *slog.Logger
}

func NewHistoryHandler(svc *services.HistoryService, log *slog.Logger) *HistoryHandler {
	return &HistoryHandler{Svc: svc, Log: log}
}

// List: GET /api/history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r, 100, 200)
	rows, total, err := h.Svc.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: rows, Total: total, Limit: limit, Offset: offset})
}

// Clear: DELETE /api/history (administrators only)
func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if err := h.Svc.Clear(r.Context(), uid); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type AlertHandler struct {
	Svc *services.AlertService
	Log *slog.Logger
	Now func() time.Time
}

func NewAlertHandler(svc *services.AlertService, log *slog.Logger) *AlertHandler {
	return &AlertHandler{Svc: svc, Log: log, Now: time.Now}
}

// List: GET /api/alerts
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.Svc.StockAlerts(r.Context(), h.Now())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"count": alerts.Count(), "alerts": alerts})
}

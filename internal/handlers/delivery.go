package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/diewo77/stock-manager/auth"
	"github.com/diewo77/stock-manager/httpx"
	"github.com/diewo77/stock-manager/internal/models"
	"github.com/diewo77/stock-manager/internal/services"
)

type DeliveryHandler struct {
	Svc *services.DeliveryService
	Log *slog.Logger
}

func NewDeliveryHandler(svc *services.DeliveryService, log *slog.Logger) *DeliveryHandler {
	return &DeliveryHandler{Svc: svc, Log: log}
}

type deliveryReq struct {
	OrderID      uint                  `json:"order_id"`
	DeliveryDate *time.Time            `json:"delivery_date,omitempty"`
	Status       models.DeliveryStatus `json:"status,omitempty"`
}

func (req deliveryReq) input() services.DeliveryInput {
	in := services.DeliveryInput{OrderID: req.OrderID, Status: req.Status}
	if req.DeliveryDate != nil {
		in.DeliveryDate = *req.DeliveryDate
	}
	return in
}

// List: GET /api/deliveries?status=
func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.List(r.Context(), models.DeliveryStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out, "total": len(out)})
}

// Get: GET /api/deliveries/{id}
func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	d, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

// ForOrder: GET /api/orders/{id}/delivery
func (h *DeliveryHandler) ForOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	d, err := h.Svc.ForOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

// Create: POST /api/deliveries
func (h *DeliveryHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var req deliveryReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	d, err := h.Svc.Create(r.Context(), uid, req.input())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

// Update: PUT /api/deliveries/{id}
func (h *DeliveryHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var req deliveryReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	d, err := h.Svc.Update(r.Context(), uid, id, req.input())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

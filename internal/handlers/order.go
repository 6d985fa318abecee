package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/diewo77/stock-manager/auth"
	"github.com/diewo77/stock-manager/httpx"
	"github.com/diewo77/stock-manager/internal/inventory"
	"github.com/diewo77/stock-manager/internal/services"
	"github.com/diewo77/stock-manager/validation"
)

// OrderHandler exposes orders as JSON. Every write goes through
// OrderService.CommitOrder or DeleteOrder.
type OrderHandler struct {
	Svc *services.OrderService
	Log *slog.Logger
}

func NewOrderHandler(svc *services.OrderService, log *slog.Logger) *OrderHandler {
	return &OrderHandler{Svc: svc, Log: log}
}

type orderItemReq struct {
	ID        uint `json:"id,omitempty"`
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type orderReq struct {
	ClientID  uint           `json:"client_id"`
	OrderDate *time.Time     `json:"order_date,omitempty"`
	Status    string         `json:"status,omitempty"`
	Items     []orderItemReq `json:"items"`
}

type quantityReq struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// List: GET /api/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r, 50, 100)
	orders, total, err := h.Svc.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: orders, Total: total, Limit: limit, Offset: offset})
}

// Get: GET /api/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	o, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

// Create: POST /api/orders. Items naming the same product are merged and
// priced from the catalog.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var req orderReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ctx := r.Context()
	original, sess, err := h.Svc.OpenSession(ctx, 0)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	for i, it := range req.Items {
		if it.ID != 0 {
			writeError(w, r, h.Log, inventory.Invalid(validation.Violations{itemField(i, "id"): "must_be_empty"}))
			return
		}
		if err := h.Svc.AddToSession(ctx, sess, it.ProductID, it.Quantity); err != nil {
			writeError(w, r, h.Log, err)
			return
		}
	}
	proposed := original
	proposed.ClientID = req.ClientID
	proposed.Status = req.Status
	if req.OrderDate != nil {
		proposed.OrderDate = *req.OrderDate
	}
	proposed.Lines = sess.Lines()
	o, err := h.Svc.CommitOrder(ctx, uid, original, proposed)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, o)
}

// Update: PUT /api/orders/{id}. The request carries the complete item set:
// items with an id keep that stored line, items without one are added and
// stored lines left out are removed. A new item for a product already on the
// order increases that line instead of adding a second one.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var req orderReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ctx := r.Context()
	original, _, err := h.Svc.OpenSession(ctx, id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	proposed := original
	if req.ClientID != 0 {
		proposed.ClientID = req.ClientID
	}
	if req.Status != "" {
		proposed.Status = req.Status
	}
	if req.OrderDate != nil {
		proposed.OrderDate = *req.OrderDate
	}
	proposed.Lines = make([]inventory.Line, 0, len(req.Items))
	for _, it := range req.Items {
		if it.ID != 0 {
			line := inventory.Line{Ref: inventory.Persisted(it.ID), ProductID: it.ProductID, Quantity: it.Quantity}
			if stored, ok := lineOf(original.Lines, it.ID); ok {
				line.Price = stored.Price
				if line.ProductID == 0 {
					line.ProductID = stored.ProductID
				}
			}
			proposed.Lines = append(proposed.Lines, line)
			continue
		}
		line, err := h.Svc.NewLine(ctx, it.ProductID, it.Quantity)
		if err != nil {
			writeError(w, r, h.Log, err)
			return
		}
		proposed.Lines = append(proposed.Lines, line)
	}
	proposed.Lines = inventory.MergeLines(proposed.Lines)
	h.commit(w, r, uid, original, proposed, http.StatusOK)
}

// AddItem: POST /api/orders/{id}/items. A product already on the order has
// its quantity increased.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	h.editSession(w, r, func(r *http.Request, sess *inventory.Session, req quantityReq) error {
		return h.Svc.AddToSession(r.Context(), sess, req.ProductID, req.Quantity)
	})
}

// SetItemQuantity: PUT /api/orders/{id}/items/{product_id}
func (h *OrderHandler) SetItemQuantity(w http.ResponseWriter, r *http.Request) {
	h.editSession(w, r, func(r *http.Request, sess *inventory.Session, req quantityReq) error {
		pid, err := pathID(r, "product_id")
		if err != nil {
			return err
		}
		return sess.SetQuantity(pid, req.Quantity)
	})
}

// RemoveItem: DELETE /api/orders/{id}/items/{product_id}
func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	pid, err := pathID(r, "product_id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	original, sess, err := h.Svc.OpenSession(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if !sess.Remove(pid) {
		writeError(w, r, h.Log, &inventory.NotFoundError{Entity: "order line for product", ID: pid})
		return
	}
	proposed := original
	proposed.Lines = sess.Lines()
	h.commit(w, r, uid, original, proposed, http.StatusOK)
}

// Delete: DELETE /api/orders/{id}
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Svc.DeleteOrder(r.Context(), uid, id); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) editSession(w http.ResponseWriter, r *http.Request, edit func(*http.Request, *inventory.Session, quantityReq) error) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var req quantityReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	original, sess, err := h.Svc.OpenSession(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := edit(r, sess, req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	proposed := original
	proposed.Lines = sess.Lines()
	h.commit(w, r, uid, original, proposed, http.StatusOK)
}

func (h *OrderHandler) commit(w http.ResponseWriter, r *http.Request, uid uint, original, proposed services.OrderDraft, status int) {
	o, err := h.Svc.CommitOrder(r.Context(), uid, original, proposed)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, status, o)
}

func lineOf(lines []inventory.Line, id uint) (inventory.Line, bool) {
	for _, l := range lines {
		if lid, ok := l.Ref.ID(); ok && lid == id {
			return l, true
		}
	}
	return inventory.Line{}, false
}

func itemField(i int, name string) string {
	return fmt.Sprintf("items[%d].%s", i, name)
}

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/diewo77/stock-manager/auth"
	"github.com/diewo77/stock-manager/httpx"
	"github.com/diewo77/stock-manager/internal/services"
	"github.com/shopspring/decimal"
)

// CatalogHandler serves products and clients.
type CatalogHandler struct {
	Svc *services.CatalogService
	Log *slog.Logger
}

func NewCatalogHandler(svc *services.CatalogService, log *slog.Logger) *CatalogHandler {
	return &CatalogHandler{Svc: svc, Log: log}
}

type productReq struct {
	Name        string          `json:"name"`
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Threshold   *int            `json:"threshold,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ExpiryDate  *time.Time      `json:"expiry_date,omitempty"`
	SupplierID  *uint           `json:"supplier_id,omitempty"`
}

// ListProducts: GET /api/products?q=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r, 20, 100)
	products, total, err := h.Svc.ListProducts(r.Context(), r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: products, Total: total, Limit: limit, Offset: offset})
}

// GetProduct: GET /api/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	p, err := h.Svc.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// CreateProduct: POST /api/products
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var req productReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	p, err := h.Svc.CreateProduct(r.Context(), uid, services.ProductInput{
		Name:        req.Name,
		Reference:   req.Reference,
		Description: req.Description,
		Quantity:    req.Quantity,
		Threshold:   req.Threshold,
		Price:       req.Price,
		ExpiryDate:  req.ExpiryDate,
		SupplierID:  req.SupplierID,
	})
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

// DeleteProduct: DELETE /api/products/{id}
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Svc.DeleteProduct(r.Context(), uid, id); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type supplierReq struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Email         string `json:"email"`
	ContactPerson string `json:"contact_person"`
}

func (req supplierReq) input() services.SupplierInput {
	return services.SupplierInput{Name: req.Name, Phone: req.Phone, Address: req.Address, Email: req.Email, ContactPerson: req.ContactPerson}
}

// ListSuppliers: GET /api/suppliers?q=
func (h *CatalogHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.Svc.ListSuppliers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": suppliers, "total": len(suppliers)})
}

// CreateSupplier: POST /api/suppliers
func (h *CatalogHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var req supplierReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	sup, err := h.Svc.CreateSupplier(r.Context(), uid, req.input())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sup)
}

// UpdateSupplier: PUT /api/suppliers/{id}
func (h *CatalogHandler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var req supplierReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	sup, err := h.Svc.UpdateSupplier(r.Context(), uid, id, req.input())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sup)
}

// DeleteSupplier: DELETE /api/suppliers/{id}
func (h *CatalogHandler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Svc.DeleteSupplier(r.Context(), uid, id); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListClients: GET /api/clients
func (h *CatalogHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Svc.ListClients(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": clients, "total": len(clients)})
}

// CreateClient: POST /api/clients
func (h *CatalogHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var req struct {
		Name          string `json:"name"`
		Phone         string `json:"phone"`
		Address       string `json:"address"`
		ContactPerson string `json:"contact_person"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	c, err := h.Svc.CreateClient(r.Context(), uid, services.ClientInput{
		Name:          req.Name,
		Phone:         req.Phone,
		Address:       req.Address,
		ContactPerson: req.ContactPerson,
	})
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

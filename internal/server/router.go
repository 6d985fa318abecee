// Package server wires the JSON handlers into an http.Handler.
package server

import (
	"log/slog"
	"net/http"

	"github.com/diewo77/stock-manager/auth"
	"github.com/diewo77/stock-manager/httpx"
	"github.com/diewo77/stock-manager/internal/handlers"
	"gorm.io/gorm"
)

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Orders     *handlers.OrderHandler
	Deliveries *handlers.DeliveryHandler
	History    *handlers.HistoryHandler
	Alerts     *handlers.AlertHandler
	Users      *handlers.UserHandler
	Catalog    *handlers.CatalogHandler
}

// New constructs the root http.Handler with all routes and middlewares
// applied. db is only used by the readiness probe.
func New(db *gorm.DB, h Handlers, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	mux := http.NewServeMux()

	// --- Health endpoints ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.WithContext(r.Context()).Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public
	mux.HandleFunc("POST /api/login", h.Auth.Login)
	mux.HandleFunc("POST /api/logout", h.Auth.Logout)

	protect := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, auth.RequireAuth(fn))
	}

	protect("GET /api/me", h.Auth.Me)

	// Orders
	protect("GET /api/orders", h.Orders.List)
	protect("POST /api/orders", h.Orders.Create)
	protect("GET /api/orders/{id}", h.Orders.Get)
	protect("PUT /api/orders/{id}", h.Orders.Update)
	protect("DELETE /api/orders/{id}", h.Orders.Delete)
	protect("POST /api/orders/{id}/items", h.Orders.AddItem)
	protect("PUT /api/orders/{id}/items/{product_id}", h.Orders.SetItemQuantity)
	protect("DELETE /api/orders/{id}/items/{product_id}", h.Orders.RemoveItem)
	protect("GET /api/orders/{id}/delivery", h.Deliveries.ForOrder)

	// Deliveries
	protect("GET /api/deliveries", h.Deliveries.List)
	protect("POST /api/deliveries", h.Deliveries.Create)
	protect("GET /api/deliveries/{id}", h.Deliveries.Get)
	protect("PUT /api/deliveries/{id}", h.Deliveries.Update)

	// Catalog
	protect("GET /api/products", h.Catalog.ListProducts)
	protect("POST /api/products", h.Catalog.CreateProduct)
	protect("GET /api/products/{id}", h.Catalog.GetProduct)
	protect("DELETE /api/products/{id}", h.Catalog.DeleteProduct)
	protect("GET /api/suppliers", h.Catalog.ListSuppliers)
	protect("POST /api/suppliers", h.Catalog.CreateSupplier)
	protect("PUT /api/suppliers/{id}", h.Catalog.UpdateSupplier)
	protect("DELETE /api/suppliers/{id}", h.Catalog.DeleteSupplier)
	protect("GET /api/clients", h.Catalog.ListClients)
	protect("POST /api/clients", h.Catalog.CreateClient)

	// History and alerts
	protect("GET /api/history", h.History.List)
	protect("DELETE /api/history", h.History.Clear)
	protect("GET /api/alerts", h.Alerts.List)

	// Users (the service enforces the administrator role)
	protect("GET /api/users", h.Users.List)
	protect("POST /api/users", h.Users.Create)
	protect("PUT /api/users/{id}", h.Users.Update)
	protect("POST /api/users/{id}/active", h.Users.SetActive)

	return withRequestID(withLogging(log, withRecover(log, auth.Middleware(mux))))
}

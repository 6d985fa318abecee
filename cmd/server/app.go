package main

import (
	"log/slog"
	"net/http"

	"github.com/diewo77/stock-manager/auth"
	"github.com/diewo77/stock-manager/internal/audit"
	"github.com/diewo77/stock-manager/internal/config"
	"github.com/diewo77/stock-manager/internal/handlers"
	"github.com/diewo77/stock-manager/internal/server"
	"github.com/diewo77/stock-manager/internal/services"
	"github.com/diewo77/stock-manager/internal/store"
	"gorm.io/gorm"
)

// NewApp builds the services over conn and returns the routed handler.
func NewApp(conn *gorm.DB, cfg *config.Config, log *slog.Logger) http.Handler {
	rec := audit.NewRecorder(audit.NewHistorySink(conn), log)

	users := services.NewUserService(conn, rec, log)
	orders := services.NewOrderService(store.New(conn), rec, log)
	deliveries := services.NewDeliveryService(conn, rec)
	history := services.NewHistoryService(conn)
	alerts := services.NewAlertService(conn, cfg.Alerts.ExpiryWindow)
	catalog := services.NewCatalogService(conn, rec)

	// Sessions of disabled or deleted accounts are rejected.
	auth.SetUserVerifier(users.IsActiveUser)

	return server.New(conn, server.Handlers{
		Auth:       handlers.NewAuthHandler(users, log),
		Orders:     handlers.NewOrderHandler(orders, log),
		Deliveries: handlers.NewDeliveryHandler(deliveries, log),
		History:    handlers.NewHistoryHandler(history, log),
		Alerts:     handlers.NewAlertHandler(alerts, log),
		Users:      handlers.NewUserHandler(users, log),
		Catalog:    handlers.NewCatalogHandler(catalog, log),
	}, log)
}

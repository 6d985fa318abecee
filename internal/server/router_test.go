package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diewo77/stock-manager/internal/audit"
	"github.com/diewo77/stock-manager/internal/db"
	"github.com/diewo77/stock-manager/internal/handlers"
	"github.com/diewo77/stock-manager/internal/models"
	"github.com/diewo77/stock-manager/internal/services"
	"github.com/diewo77/stock-manager/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(conn))
	require.NoError(t, db.Seed(conn, "admin-secret"))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := audit.NewRecorder(audit.NewHistorySink(conn), log)
	users := services.NewUserService(conn, rec, log)
	h := New(conn, Handlers{
		Auth:       handlers.NewAuthHandler(users, log),
		Orders:     handlers.NewOrderHandler(services.NewOrderService(store.New(conn), rec, log), log),
		Deliveries: handlers.NewDeliveryHandler(services.NewDeliveryService(conn, rec), log),
		History:    handlers.NewHistoryHandler(services.NewHistoryService(conn), log),
		Alerts:     handlers.NewAlertHandler(services.NewAlertService(conn, 0), log),
		Users:      handlers.NewUserHandler(users, log),
		Catalog:    handlers.NewCatalogHandler(services.NewCatalogService(conn, rec), log),
	}, log)
	return h, conn
}

func do(h http.Handler, method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)
	for _, path := range []string{"/health", "/healthz"} {
		w := do(h, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
		assert.NoError(t, err, "request id header")
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	h, _ := newTestServer(t)
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, id)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(RequestIDHeader))
}

func TestAPIRequiresSession(t *testing.T) {
	h, _ := newTestServer(t)
	w := do(h, http.MethodGet, "/api/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginThenCreateOrder(t *testing.T) {
	h, conn := newTestServer(t)
	client := models.Client{Name: "ClientCo"}
	require.NoError(t, conn.Create(&client).Error)
	product := models.Product{Name: "Widget", Reference: "W-1", Quantity: 4, Threshold: 1, Price: decimal.RequireFromString("3.00")}
	require.NoError(t, conn.Create(&product).Error)

	w := do(h, http.MethodPost, "/api/login", map[string]string{"username": db.AdminUsername, "password": "admin-secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	order := map[string]any{"client_id": client.ID, "items": []map[string]any{{"product_id": product.ID, "quantity": 3}}}
	w = do(h, http.MethodPost, "/api/orders", order, cookies...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(h, http.MethodPost, "/api/orders", order, cookies...)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	var stored models.Product
	require.NoError(t, conn.First(&stored, product.ID).Error)
	assert.Equal(t, 1, stored.Quantity)

	w = do(h, http.MethodGet, "/api/history", nil, cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Logged in")
	assert.Contains(t, w.Body.String(), "Added order")
}

func TestRecoverAnswersJSON(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := withRecover(log, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")
}

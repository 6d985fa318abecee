package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/diewo77/stock-manager/httpx"
	"github.com/diewo77/stock-manager/internal/inventory"
	"github.com/diewo77/stock-manager/internal/services"
	"github.com/diewo77/stock-manager/validation"
)

// writeError maps service errors to a status and error code. Unknown errors
// are logged and answered with 500.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var (
		ve    *inventory.ValidationError
		stock *inventory.InsufficientStockError
		nf    *inventory.NotFoundError
	)
	switch {
	case errors.Is(err, httpx.ErrBadJSON):
		httpx.JSONErrorMessage(w, http.StatusBadRequest, "invalid_json", err.Error(), nil)
	case errors.As(err, &ve):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", ve.Violations)
	case errors.As(err, &stock):
		httpx.JSONErrorMessage(w, http.StatusUnprocessableEntity, "insufficient_stock", stock.Error(), map[string]any{
			"product_id": stock.ProductID,
			"product":    stock.Product,
			"available":  stock.Available,
			"requested":  stock.Requested,
		})
	case errors.As(err, &nf):
		httpx.JSONErrorMessage(w, http.StatusNotFound, "not_found", nf.Error(), nil)
	case errors.Is(err, inventory.ErrConflict):
		httpx.JSONErrorMessage(w, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, services.ErrForbidden):
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
	default:
		log.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// pathID parses the {name} path value as an id.
func pathID(r *http.Request, name string) (uint, error) {
	n, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || n == 0 {
		return 0, inventory.Invalid(validation.Violations{name: "invalid_id"})
	}
	return uint(n), nil
}

// page reads limit and page query parameters.
func page(r *http.Request, defLimit, maxLimit int) (limit, offset int) {
	limit = defLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxLimit {
			limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}

type listResponse struct {
	Items  any   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/diewo77/stock-manager/auth"
	"github.com/diewo77/stock-manager/httpx"
	"github.com/diewo77/stock-manager/internal/services"
)

// UserHandler manages accounts. The service rejects non-administrators.
type UserHandler struct {
	Svc *services.UserService
	Log *slog.Logger
}

func NewUserHandler(svc *services.UserService, log *slog.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Log: log}
}

type userReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (req userReq) input() services.UserInput {
	return services.UserInput{Username: req.Username, Password: req.Password, FullName: req.FullName, Role: req.Role}
}

// List: GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Svc.List(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": users, "total": len(users)})
}

// Create: POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var req userReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	u, err := h.Svc.Create(r.Context(), uid, req.input())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
}

// Update: PUT /api/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var req userReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	u, err := h.Svc.Update(r.Context(), uid, id, req.input())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

// SetActive: POST /api/users/{id}/active
func (h *UserHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Svc.SetActive(r.Context(), uid, id, req.Active); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

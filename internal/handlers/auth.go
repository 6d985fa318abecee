package handlers

import (
	"log/slog"
	"net/http"

	"github.com/diewo77/stock-manager/auth"
	"github.com/diewo77/stock-manager/httpx"
	"github.com/diewo77/stock-manager/internal/services"
)

type AuthHandler struct {
	Users *services.UserService
	Log   *slog.Logger
}

func NewAuthHandler(users *services.UserService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{Users: users, Log: log}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login: POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	user, err := h.Users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusOK, user)
}

// Logout: POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me: GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	user, err := h.Users.Get(r.Context(), uid)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/talavis/OrderPortal/internal/apperr"
	"github.com/talavis/OrderPortal/internal/auth"
	"github.com/talavis/OrderPortal/internal/service"
)

type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger.With(slog.String("component", "auth_handler"))}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUser(r.Context())
	if claims == nil {
		writeError(w, r, h.logger, apperr.Unauthorized("unauthorized"))
		return
	}
	user, err := h.svc.Me(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

type accountRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=user staff admin"`
}

// CreateAccount handles POST /api/auth/accounts.
func (h *AuthHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := h.svc.CreateAccount(r.Context(), auth.GetUser(r.Context()), req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, user)
}

package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/atendimento-dashboard/internal/adapters/primary/validation"
	"github.com/lorrc/atendimento-dashboard/internal/core/ports"
)

const maxPasswordLength = 256

// AuthHandler issues operator session tokens.
type AuthHandler struct {
	authService  ports.AuthService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService ports.AuthService, errorHandler *ErrorHandler, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "auth"),
	}
}

// RegisterRoutes sets up the routing for the auth endpoints.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.HandleLogin)
}

// LoginRequest is the POST /auth/login body.
type LoginRequest struct {
	Password string `json:"password"`
}

// Validate validates the login request
func (r *LoginRequest) Validate() error {
	return validation.NewValidator().
		Required("password", r.Password).
		MaxLength("password", r.Password, maxPasswordLength).
		Err()
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Token string `json:"token"`
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[LoginRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	token, err := h.authService.Login(r.Context(), req.Password)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.InfoContext(r.Context(), "operator logged in")
	WriteJSON(w, http.StatusOK, LoginResponse{Token: token})
}

package handlers

import (
	"context"
	"net/http"

	"github.com/upb/thesis-workflow/internal/policy"
	"github.com/upb/thesis-workflow/models"
	"github.com/upb/thesis-workflow/services"
	"github.com/upb/thesis-workflow/utils"
	"go.uber.org/zap"
)

// AuthService is the part of services.AuthService the handler uses
type AuthService interface {
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	Me(ctx context.Context, actor policy.Identity) (*models.User, error)
	ChangePassword(ctx context.Context, actor policy.Identity, current, next string) error
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest is the body of PUT /auth/password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// MeResponse pairs the token identity with the stored profile
type MeResponse struct {
	Identity policy.Identity `json:"identity"`
	User     *models.User    `json:"user"`
}

// AuthHandler handles login and self-service account requests
type AuthHandler struct {
	service AuthService
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// HandleLogin handles POST /api/v1/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.service.Login(serviceContext(r), req.Username, req.Password)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeOK(w, result, h.logger)
}

// HandleMe handles GET /api/v1/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	user, err := h.service.Me(r.Context(), actor)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeOK(w, MeResponse{Identity: actor, User: user}, h.logger)
}

// HandleChangePassword handles PUT /api/v1/auth/password
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	if err := h.service.ChangePassword(serviceContext(r), actor, req.CurrentPassword, req.NewPassword); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	utils.WriteNoContent(w)
}

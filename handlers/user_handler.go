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

// UserService is the part of services.UserService the handler uses
type UserService interface {
	CreateUser(ctx context.Context, actor policy.Identity, in services.CreateUserInput) (*models.User, error)
	ListUsers(ctx context.Context, role string, limit, offset int) ([]*models.User, error)
	DeleteUser(ctx context.Context, actor policy.Identity, id int64) error
}

// CreateUserRequest is the body of POST /users
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,role"`
}

// UserHandler handles account administration
type UserHandler struct {
	service UserService
	logger  *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// HandleCreate handles POST /api/v1/users
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req CreateUserRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	user, err := h.service.CreateUser(serviceContext(r), actor, services.CreateUserInput{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeCreated(w, user, h.logger)
}

// HandleList handles GET /api/v1/users?role=
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	users, err := h.service.ListUsers(r.Context(), r.URL.Query().Get("role"), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeOK(w, users, h.logger)
}

// HandleDelete handles DELETE /api/v1/users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	if err := h.service.DeleteUser(serviceContext(r), actor, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	utils.WriteNoContent(w)
}

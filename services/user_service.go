package services

import (
	"context"
	"errors"

	"github.com/upb/thesis-workflow/internal/policy"
	"github.com/upb/thesis-workflow/models"
	"github.com/upb/thesis-workflow/repositories"
	"github.com/upb/thesis-workflow/utils"
	"go.uber.org/zap"
)

// CreateUserInput holds the fields of a new account
type CreateUserInput struct {
	Username string
	Name     string
	Email    string
	Password string
	Role     string
}

// UserService manages accounts on behalf of administrators
type UserService struct {
	users   repositories.UserRepository
	effects *Effects
	logger  *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(users repositories.UserRepository, effects *Effects, logger *zap.Logger) *UserService {
	return &UserService{
		users:   users,
		effects: effects,
		logger:  logger,
	}
}

// CreateUser creates an account with a bcrypt hashed password
func (s *UserService) CreateUser(ctx context.Context, actor policy.Identity, in CreateUserInput) (*models.User, error) {
	role, err := policy.ParseRole(in.Role)
	if err != nil {
		return nil, NewDomainError(ErrorTypeValidation, "unknown role", err).WithDetail("role", in.Role)
	}
	if err := utils.ValidateStringLength(in.Username, "username", 3, 64); err != nil {
		return nil, NewDomainError(ErrorTypeValidation, err.Error(), err)
	}
	if in.Email != "" {
		if err := utils.ValidateEmail(in.Email); err != nil {
			return nil, ErrInvalidEmail
		}
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	user := models.NewUser(in.Username, in.Name, in.Email, role)
	if err := user.SetPassword(in.Password); err != nil {
		return nil, WrapInternal("failed to hash password", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateUsername
		}
		return nil, FromRepository(err, ErrUserNotFound)
	}

	s.effects.Record(ctx, models.NewActivityLog(actor, models.ActivityUserCreated, "user").
		WithResource(user.ID).
		WithDetails(map[string]string{"username": user.Username, "role": string(user.Role)}))

	s.logger.Info("user created",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.Int64("created_by", actor.ID))

	return user, nil
}

// ListUsers lists accounts, optionally restricted to one role
func (s *UserService) ListUsers(ctx context.Context, role string, limit, offset int) ([]*models.User, error) {
	var filter policy.Role
	if role != "" {
		parsed, err := policy.ParseRole(role)
		if err != nil {
			return nil, NewDomainError(ErrorTypeValidation, "unknown role", err).WithDetail("role", role)
		}
		filter = parsed
	}

	limit, offset = normalizePage(limit, offset)
	users, err := s.users.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, FromRepository(err, ErrUserNotFound)
	}
	return users, nil
}

// DeleteUser removes an account. Administrators cannot remove themselves.
func (s *UserService) DeleteUser(ctx context.Context, actor policy.Identity, id int64) error {
	if id == actor.ID {
		return NewDomainError(ErrorTypeValidation, "you cannot delete your own account", nil)
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return FromRepository(err, ErrUserNotFound)
	}

	s.effects.Record(ctx, models.NewActivityLog(actor, models.ActivityUserDeleted, "user").WithResource(id))
	s.logger.Info("user deleted", zap.Int64("user_id", id), zap.Int64("deleted_by", actor.ID))

	return nil
}

package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/upb/thesis-workflow/internal/policy"
	"github.com/upb/thesis-workflow/models"
	"github.com/upb/thesis-workflow/repositories"
	"github.com/upb/thesis-workflow/services/ratelimit"
	"go.uber.org/zap"
)

const minPasswordLength = 8

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	Issue(id policy.Identity) (string, error)
	Expiry() time.Duration
}

// LoginResult is returned on successful login
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// LoginThrottle limits failed login attempts per scope key
type LoginThrottle interface {
	Reserve(key string) ratelimit.Result
	Release(key string, r ratelimit.Result)
	Reset(key string)
}

// AuthService authenticates users and manages their own credentials
type AuthService struct {
	users    repositories.UserRepository
	issuer   TokenIssuer
	effects  *Effects
	throttle LoginThrottle
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(users repositories.UserRepository, issuer TokenIssuer, effects *Effects, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:   users,
		issuer:  issuer,
		effects: effects,
		logger:  logger,
	}
}

// WithThrottle enables failed login throttling
func (s *AuthService) WithThrottle(throttle LoginThrottle) *AuthService {
	s.throttle = throttle
	return s
}

var (
	dummyOnce sync.Once
	dummyUser *models.User
)

// compareDummy spends the same bcrypt work as a real check so unknown
// usernames cannot be told apart by response time.
func compareDummy(password string) {
	dummyOnce.Do(func() {
		dummyUser = &models.User{}
		_ = dummyUser.SetPassword("thesis-workflow-dummy")
	})
	_ = dummyUser.CheckPassword(password)
}

// Login checks username and password and issues an access token. When a
// throttle is set, each attempt reserves a slot before the password is
// checked, and repeated failures from one address for one username are
// rejected.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	key := ratelimit.Key(username, RequestMetaFromContext(ctx).IPAddress)
	var reservation ratelimit.Result
	if s.throttle != nil {
		reservation = s.throttle.Reserve(key)
		if !reservation.Allowed {
			s.logger.Warn("login throttled",
				zap.String("username", username),
				zap.Duration("retry_after", reservation.RetryAfter))
			return nil, NewDomainError(ErrorTypeRateLimited, ErrTooManyAttempts.Message, nil).
				WithDetail("retry_after_seconds", int(reservation.RetryAfter.Round(time.Second).Seconds()))
		}
	}

	user, err := s.authenticate(ctx, username, password)
	if err != nil {
		// the reserved slot stays used for a wrong password only
		if s.throttle != nil && !errors.Is(err, ErrInvalidCredentials) {
			s.throttle.Release(key, reservation)
		}
		return nil, err
	}
	if s.throttle != nil {
		s.throttle.Reset(key)
	}

	signed, err := s.issuer.Issue(user.Identity())
	if err != nil {
		return nil, WrapInternal("failed to issue token", err)
	}

	s.effects.Record(ctx, models.NewActivityLog(user.Identity(), models.ActivityLogin, "user").WithResource(user.ID))

	s.logger.Info("user logged in",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)))

	return &LoginResult{
		Token:     signed,
		ExpiresAt: time.Now().Add(s.issuer.Expiry()),
		User:      user,
	}, nil
}

func (s *AuthService) authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			compareDummy(password)
			s.logger.Info("login failed: unknown user", zap.String("username", username))
			return nil, ErrInvalidCredentials
		}
		return nil, FromRepository(err, ErrUserNotFound)
	}

	if err := user.CheckPassword(password); err != nil {
		if !errors.Is(err, models.ErrPasswordMismatch) {
			s.logger.Error("password check failed", zap.Error(err), zap.Int64("user_id", user.ID))
		}
		s.logger.Info("login failed: wrong password", zap.Int64("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Me returns the profile of the calling user
func (s *AuthService) Me(ctx context.Context, actor policy.Identity) (*models.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, FromRepository(err, ErrUserNotFound)
	}
	return user, nil
}

// ChangePassword replaces the caller's password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, actor policy.Identity, current, next string) error {
	if len(next) < minPasswordLength {
		return ErrWeakPassword
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return FromRepository(err, ErrUserNotFound)
	}

	if err := user.CheckPassword(current); err != nil {
		return NewDomainError(ErrorTypeValidation, "current password is incorrect", nil)
	}

	if err := user.SetPassword(next); err != nil {
		return WrapInternal("failed to hash password", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, user.PasswordHash); err != nil {
		return FromRepository(err, ErrUserNotFound)
	}

	s.effects.Record(ctx, models.NewActivityLog(actor, models.ActivityPasswordChanged, "user").WithResource(user.ID))
	s.logger.Info("password changed", zap.Int64("user_id", user.ID))

	return nil
}

package middleware

import (
	"net/http"

	"github.com/upb/thesis-workflow/internal/policy"
	"github.com/upb/thesis-workflow/utils"
	"go.uber.org/zap"
)

// PolicyMiddleware turns role guards into HTTP middleware.
// It must run after AuthMiddleware.RequireAuth.
type PolicyMiddleware struct {
	logger *zap.Logger
}

// NewPolicyMiddleware creates a new PolicyMiddleware
func NewPolicyMiddleware(logger *zap.Logger) *PolicyMiddleware {
	return &PolicyMiddleware{logger: logger}
}

// RequireRole admits callers satisfying role under the role hierarchy
func (m *PolicyMiddleware) RequireRole(role policy.Role) func(http.Handler) http.Handler {
	return m.Enforce(policy.RequireRole(role))
}

// RequireAnyRole admits callers satisfying at least one of roles
func (m *PolicyMiddleware) RequireAnyRole(roles ...policy.Role) func(http.Handler) http.Handler {
	return m.Enforce(policy.RequireAnyRole(roles...))
}

// KaprodiOnly admits the exact kaprodi role, admin included in the denial
func (m *PolicyMiddleware) KaprodiOnly() func(http.Handler) http.Handler {
	return m.Enforce(policy.KaprodiOnly())
}

// Enforce wraps an arbitrary guard
func (m *PolicyMiddleware) Enforce(guard policy.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)
			id := GetIdentityFromContext(ctx)

			decision := guard.Allow(id)
			if !decision.Allowed {
				fields := []zap.Field{
					zap.String("request_id", requestID),
					zap.String("guard", guard.Describe()),
					zap.String("reason", decision.Reason),
				}
				if id != nil {
					fields = append(fields, zap.Int64("user_id", id.ID), zap.String("role", string(id.Role)))
				}
				m.logger.Warn("access denied", fields...)
				_ = utils.WriteForbidden(w, "Forbidden")
				return
			}

			m.logger.Debug("role check passed",
				zap.String("request_id", requestID),
				zap.String("guard", guard.Describe()),
				zap.String("reason", decision.Reason))

			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/upb/thesis-workflow/internal/policy"
	"github.com/upb/thesis-workflow/utils"
	"go.uber.org/zap"
)

const (
	msgNoToken      = "No token provided"
	msgInvalidToken = "Invalid or expired token"
)

// TokenVerifier verifies an access token and returns the embedded identity
type TokenVerifier interface {
	Verify(token string) (*policy.Identity, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		logger:   logger,
	}
}

// RequireAuth rejects requests without a valid bearer token and attaches
// the verified identity to the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		header := r.Header.Get("Authorization")
		if strings.TrimSpace(header) == "" {
			m.logger.Warn("missing token",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, msgNoToken)
			return
		}

		raw, ok := extractBearerToken(header)
		if !ok {
			m.logger.Warn("malformed authorization header",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, msgInvalidToken)
			return
		}

		id, err := m.verifier.Verify(raw)
		if err != nil {
			m.logger.Warn("token verification failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, msgInvalidToken)
			return
		}

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.Int64("user_id", id.ID),
			zap.String("role", string(id.Role)))

		next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
	})
}

// extractBearerToken splits a "Bearer <token>" header value
func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	raw := strings.TrimSpace(parts[1])
	if raw == "" || strings.ContainsAny(raw, " \t") {
		return "", false
	}
	return raw, true
}

package handlers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/upb/thesis-workflow/internal/policy"
	"github.com/upb/thesis-workflow/middleware"
	"github.com/upb/thesis-workflow/services"
	"github.com/upb/thesis-workflow/utils"
	"go.uber.org/zap"
)

// serviceContext carries the request metadata services stamp on activity entries
func serviceContext(r *http.Request) context.Context {
	ctx := r.Context()
	return services.WithRequestMeta(ctx, services.RequestMeta{
		RequestID: middleware.GetRequestIDFromContext(ctx),
		IPAddress: clientIP(r),
	})
}

// clientIP strips the port from RemoteAddr. chi's RealIP has already
// replaced RemoteAddr with the forwarded address when one was sent.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requireIdentity returns the verified caller or writes 401
func requireIdentity(w http.ResponseWriter, r *http.Request) (policy.Identity, bool) {
	id := middleware.GetIdentityFromContext(r.Context())
	if id == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return policy.Identity{}, false
	}
	return *id, true
}

// pathID parses a positive integer URL parameter
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}

// pagination reads limit and offset query parameters; services clamp them
func pagination(r *http.Request) (int, int) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return limit, offset
}

// writeOK logs encoder failures, which only happen once the status is sent
func writeOK(w http.ResponseWriter, data interface{}, logger *zap.Logger) {
	if err := utils.WriteOK(w, data); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}

func writeCreated(w http.ResponseWriter, data interface{}, logger *zap.Logger) {
	if err := utils.WriteCreated(w, data); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}

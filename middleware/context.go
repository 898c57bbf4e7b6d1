package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/thesis-workflow/internal/policy"
	"github.com/upb/thesis-workflow/internal/upload"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// IdentityKey is the context key for the verified caller
	IdentityKey contextKey = "identity"

	// UploadKey is the context key for the parsed multipart envelope
	UploadKey contextKey = "upload"
)

// GetRequestIDFromContext retrieves the request ID from context.
// IDs set by chi's RequestID middleware are used when present.
func GetRequestIDFromContext(ctx context.Context) string {
	if id := chimw.GetReqID(ctx); id != "" {
		return id
	}
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetIdentityFromContext retrieves the verified identity from context
func GetIdentityFromContext(ctx context.Context) *policy.Identity {
	if val := ctx.Value(IdentityKey); val != nil {
		if id, ok := val.(*policy.Identity); ok {
			return id
		}
	}
	return nil
}

// WithIdentity adds the verified identity to the context
func WithIdentity(ctx context.Context, id *policy.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// GetUploadFromContext retrieves the parsed multipart envelope from context
func GetUploadFromContext(ctx context.Context) *upload.Envelope {
	if val := ctx.Value(UploadKey); val != nil {
		if env, ok := val.(*upload.Envelope); ok {
			return env
		}
	}
	return nil
}

// WithUpload adds a parsed multipart envelope to the context
func WithUpload(ctx context.Context, env *upload.Envelope) context.Context {
	return context.WithValue(ctx, UploadKey, env)
}

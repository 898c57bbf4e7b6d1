package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/thesis-workflow/internal/policy"
	"github.com/upb/thesis-workflow/token"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// MockTokenVerifier is a mock implementation of TokenVerifier
type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) Verify(raw string) (*policy.Identity, error) {
	args := m.Called(raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*policy.Identity), args.Error(1)
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	msg, _ := body["message"].(string)
	return msg
}

func TestRequireAuth(t *testing.T) {
	logger := zap.NewNop()

	t.Run("valid token attaches identity", func(t *testing.T) {
		verifier := new(MockTokenVerifier)
		m := NewAuthMiddleware(verifier, logger)

		want := &policy.Identity{ID: 12, Role: policy.RoleMahasiswa}
		verifier.On("Verify", "valid-token").Return(want, nil)

		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := GetIdentityFromContext(r.Context())
			require.NotNil(t, got)
			assert.Equal(t, *want, *got)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		verifier.AssertExpectations(t)
	})

	t.Run("scheme is case insensitive", func(t *testing.T) {
		verifier := new(MockTokenVerifier)
		m := NewAuthMiddleware(verifier, logger)
		verifier.On("Verify", "tok").Return(&policy.Identity{ID: 1, Role: policy.RoleAdmin}, nil)

		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "bearer tok")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("missing header returns 401 with no token message", func(t *testing.T) {
		verifier := new(MockTokenVerifier)
		m := NewAuthMiddleware(verifier, logger)

		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "No token provided", decodeMessage(t, w))
		verifier.AssertNotCalled(t, "Verify", mock.Anything)
	})

	malformed := []string{"InvalidFormat", "Basic dXNlcjpwYXNz", "Bearer", "Bearer ", "Bearer a b"}
	for _, header := range malformed {
		t.Run("malformed header "+header, func(t *testing.T) {
			verifier := new(MockTokenVerifier)
			m := NewAuthMiddleware(verifier, logger)

			handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Authorization", header)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			verifier.AssertNotCalled(t, "Verify", mock.Anything)
		})
	}

	t.Run("invalid and expired tokens share one message", func(t *testing.T) {
		verifier := new(MockTokenVerifier)
		m := NewAuthMiddleware(verifier, logger)
		verifier.On("Verify", "bad-sig").Return(nil, token.ErrInvalidToken)
		verifier.On("Verify", "expired").Return(nil, token.ErrTokenExpired)

		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		var messages []string
		for _, raw := range []string{"bad-sig", "expired"} {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Authorization", "Bearer "+raw)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			messages = append(messages, decodeMessage(t, w))
		}

		assert.Equal(t, messages[0], messages[1])
		verifier.AssertExpectations(t)
	})
}

func TestRequireAuth_WithCodec(t *testing.T) {
	codec, err := token.NewCodec(token.Config{Secret: "gate-secret", Expiry: time.Hour})
	require.NoError(t, err)
	m := NewAuthMiddleware(codec, zap.NewNop())

	signed, err := codec.Issue(policy.Identity{ID: 77, Role: policy.RoleKaprodi})
	require.NoError(t, err)

	var seen *policy.Identity
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetIdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, seen)
	assert.Equal(t, int64(77), seen.ID)
	assert.Equal(t, policy.RoleKaprodi, seen.Role)

	other, err := token.NewCodec(token.Config{Secret: "other-secret"})
	require.NoError(t, err)
	forged, err := other.Issue(policy.Identity{ID: 1, Role: policy.RoleAdmin})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"BEARER abc", "abc", true},
		{"Token abc", "", false},
		{"Bearer", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := extractBearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestRequireAuth_RejectedTokenClaimsNotLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	codec, err := token.NewCodec(token.Config{Secret: "gate-secret", Expiry: time.Hour})
	require.NoError(t, err)
	m := NewAuthMiddleware(codec, zap.New(core))

	other, err := token.NewCodec(token.Config{Secret: "other-secret"})
	require.NoError(t, err)
	forged, err := other.Issue(policy.Identity{ID: 1, Role: policy.RoleAdmin})
	require.NoError(t, err)

	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for a forged token")
	}))
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	entries := logs.FilterMessage("token verification failed").All()
	require.Len(t, entries, 1)
	// nothing read from an unverified payload ends up in the log
	for key := range entries[0].ContextMap() {
		assert.Contains(t, []string{"request_id", "error"}, key)
	}
}

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWebhookNotifier_Disabled(t *testing.T) {
	n := NewWebhookNotifier(Config{}, zap.NewNop())

	assert.False(t, n.Enabled())
	assert.NoError(t, n.Notify(context.Background(), "ignored"))
}

func TestWebhookNotifier_PostsText(t *testing.T) {
	var got message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhookNotifier(Config{WebhookURL: server.URL}, zap.NewNop())
	require.NoError(t, n.Notify(context.Background(), "Proposal #3 approved"))
	assert.Equal(t, "Proposal #3 approved", got.Text)
}

func TestWebhookNotifier_RedactsContactDetails(t *testing.T) {
	var got message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhookNotifier(Config{WebhookURL: server.URL}, zap.NewNop())
	require.NoError(t, n.Notify(context.Background(), "Guidance submitted: reach me at rina@upb.ac.id"))
	assert.Equal(t, "Guidance submitted: reach me at [EMAIL_REDACTED]", got.Text)
}

func TestWebhookNotifier_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhookNotifier(Config{WebhookURL: server.URL, MaxRetries: 2, RetryDelay: time.Millisecond}, zap.NewNop())
	require.NoError(t, n.Notify(context.Background(), "hi"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWebhookNotifier_GivesUpAfterRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	n := NewWebhookNotifier(Config{WebhookURL: server.URL, MaxRetries: 1, RetryDelay: time.Millisecond}, zap.NewNop())
	err := n.Notify(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestWebhookNotifier_NoRetryOnClientError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad space", http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewWebhookNotifier(Config{WebhookURL: server.URL, MaxRetries: 3, RetryDelay: time.Millisecond}, zap.NewNop())
	err := n.Notify(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad space")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWebhookNotifier_ContextCancelledBetweenRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	n := NewWebhookNotifier(Config{WebhookURL: server.URL, MaxRetries: 5, RetryDelay: time.Hour}, zap.NewNop())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := n.Notify(ctx, "hi")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	assert.NoError(t, n.Notify(context.Background(), "x"))
}

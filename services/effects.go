package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/upb/thesis-workflow/models"
	"github.com/upb/thesis-workflow/services/notify"
	"go.uber.org/zap"
)

const announceTimeout = 30 * time.Second

// RequestMeta identifies the HTTP request a service call serves
type RequestMeta struct {
	RequestID string
	IPAddress string
}

type requestMetaKey struct{}

// WithRequestMeta attaches request metadata used for activity entries
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext returns the metadata attached by WithRequestMeta, or the zero value
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

// ActivityRecorder queues activity entries for persistence
type ActivityRecorder interface {
	Record(entry *models.ActivityLog) error
}

// Effects carries out the side effects of state changes: an activity entry
// and, for workflow milestones, a chat announcement. Neither can fail the
// operation that triggered it.
type Effects struct {
	recorder ActivityRecorder
	notifier notify.Notifier
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewEffects creates a new Effects. A nil notifier disables announcements.
func NewEffects(recorder ActivityRecorder, notifier notify.Notifier, logger *zap.Logger) *Effects {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Effects{
		recorder: recorder,
		notifier: notifier,
		logger:   logger,
	}
}

// Record stamps entry with the request metadata in ctx and queues it
func (e *Effects) Record(ctx context.Context, entry *models.ActivityLog) {
	if e.recorder == nil {
		return
	}

	meta := RequestMetaFromContext(ctx)
	entry.WithRequest(meta.RequestID, meta.IPAddress)

	if err := e.recorder.Record(entry); err != nil {
		e.logger.Warn("failed to record activity",
			zap.Error(err),
			zap.String("action", string(entry.Action)),
			zap.Int64("user_id", entry.UserID),
			zap.String("request_id", meta.RequestID))
	}
}

// Announce posts a chat message in the background
func (e *Effects) Announce(ctx context.Context, format string, args ...interface{}) {
	text := fmt.Sprintf(format, args...)
	requestID := RequestMetaFromContext(ctx).RequestID

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), announceTimeout)
		defer cancel()

		if err := e.notifier.Notify(sendCtx, text); err != nil {
			e.logger.Warn("chat announcement failed",
				zap.Error(err),
				zap.String("request_id", requestID))
		}
	}()
}

// Wait blocks until pending announcements have finished
func (e *Effects) Wait() {
	e.wg.Wait()
}

package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config bounds failed attempts per key within a sliding window
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// DefaultConfig returns five attempts per fifteen minutes
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		Window:      15 * time.Minute,
	}
}

// Result represents the outcome of a reservation
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration

	// at identifies the reserved event so Release can hand it back
	at time.Time
}

// LoginLimiter throttles failed login attempts. Events are kept in memory,
// so limits are per process.
type LoginLimiter struct {
	config Config
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	events map[string][]time.Time
}

// NewLoginLimiter creates a new LoginLimiter
func NewLoginLimiter(config Config, logger *zap.Logger) *LoginLimiter {
	def := DefaultConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = def.MaxAttempts
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	return &LoginLimiter{
		config: config,
		logger: logger,
		now:    time.Now,
		events: make(map[string][]time.Time),
	}
}

// Key builds the scope key for a username attempted from an address
func Key(username, ip string) string {
	return fmt.Sprintf("user:%s:ip:%s", strings.ToLower(strings.TrimSpace(username)), ip)
}

// Reserve claims one attempt for key. The check and the claim happen under
// one lock, so concurrent callers can never hold more than MaxAttempts
// reservations inside a window. An allowed reservation counts as a failure
// until it is given back with Release or cleared with Reset.
func (l *LoginLimiter) Reserve(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(key, now)

	if len(recent) >= l.config.MaxAttempts {
		// the oldest event in the window decides when a slot frees up
		return Result{
			Allowed:    false,
			RetryAfter: recent[0].Add(l.config.Window).Sub(now),
		}
	}

	recent = append(recent, now)
	l.events[key] = recent

	if len(recent) == l.config.MaxAttempts {
		l.logger.Warn("login attempts exhausted",
			zap.String("scope_key", key),
			zap.Duration("window", l.config.Window))
	}

	return Result{
		Allowed:   true,
		Remaining: l.config.MaxAttempts - len(recent),
		at:        now,
	}
}

// Release hands back an attempt claimed by Reserve, for attempts that ended
// without a verdict on the password
func (l *LoginLimiter) Release(key string, r Result) {
	if !r.Allowed {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	events := l.events[key]
	for i, t := range events {
		if !t.Equal(r.at) {
			continue
		}
		events = append(events[:i:i], events[i+1:]...)
		if len(events) == 0 {
			delete(l.events, key)
		} else {
			l.events[key] = events
		}
		return
	}
}

// Reset forgets the failures recorded for key
func (l *LoginLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.events, key)
}

// prune drops events older than the window. Callers hold mu.
func (l *LoginLimiter) prune(key string, now time.Time) []time.Time {
	events := l.events[key]
	cutoff := now.Add(-l.config.Window)

	i := 0
	for i < len(events) && !events[i].After(cutoff) {
		i++
	}
	events = events[i:]

	if len(events) == 0 {
		delete(l.events, key)
		return nil
	}
	l.events[key] = events
	return events
}

// CleanupOldAttempts removes keys with no events inside the window
func (l *LoginLimiter) CleanupOldAttempts() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key := range l.events {
		if l.prune(key, now) == nil {
			removed++
		}
	}
	return removed
}

// StartCleanupWorker periodically clears expired keys until ctx is done
func (l *LoginLimiter) StartCleanupWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.logger.Info("started login limiter cleanup worker",
		zap.Duration("interval", interval))

	for {
		select {
		case <-ticker.C:
			if removed := l.CleanupOldAttempts(); removed > 0 {
				l.logger.Debug("cleaned up login attempts", zap.Int("keys_removed", removed))
			}
		case <-ctx.Done():
			l.logger.Info("stopping login limiter cleanup worker")
			return
		}
	}
}

// Package activity records the audit trail of state-changing requests.
// Writes go through a bounded queue drained by a fixed worker pool so that
// request handlers never wait on the activity table.
package activity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/upb/thesis-workflow/models"
	"github.com/upb/thesis-workflow/repositories"
	"go.uber.org/zap"
)

const (
	insertTimeout = 5 * time.Second

	defaultListLimit = 50
	maxListLimit     = 200
)

// Service handles asynchronous activity logging
type Service struct {
	repo        repositories.ActivityRepository
	logger      *zap.Logger
	entries     chan *models.ActivityLog
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	done        chan struct{}
	started     bool
	stopped     bool
	mu          sync.RWMutex
}

// Config holds configuration for the Service
type Config struct {
	BufferSize  int // Size of the entry buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// NewService creates a new Service instance
func NewService(repo repositories.ActivityRepository, logger *zap.Logger, config Config) *Service {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultConfig().WorkerCount
	}

	return &Service{
		repo:        repo,
		logger:      logger,
		entries:     make(chan *models.ActivityLog, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		done:        make(chan struct{}),
	}
}

// Start starts the background workers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("activity service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started activity service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop stops accepting entries and waits up to timeout for the queue to drain
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("activity service not running")
	}
	s.stopped = true
	close(s.entries)
	s.mu.Unlock()

	s.logger.Info("stopping activity service", zap.Int("pending_entries", len(s.entries)))

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		s.logger.Info("activity service stopped gracefully")
		close(s.done)
		return nil
	case <-time.After(timeout):
		close(s.done)
		return fmt.Errorf("activity service stop timeout after %v", timeout)
	}
}

// Record queues an entry without blocking. A full queue drops the entry.
func (s *Service) Record(entry *models.ActivityLog) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started || s.stopped {
		return fmt.Errorf("activity service not running")
	}

	select {
	case s.entries <- entry:
		return nil
	default:
		s.logger.Warn("activity queue full, dropping entry",
			zap.String("action", string(entry.Action)),
			zap.Int64("user_id", entry.UserID))
		return fmt.Errorf("activity buffer full")
	}
}

// List returns recent activity, optionally for one user
func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]*models.ActivityLog, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	if userID > 0 {
		return s.repo.ListByUser(ctx, userID, limit, offset)
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("activity worker started", zap.Int("worker_id", id))

	for entry := range s.entries {
		if err := s.insert(entry); err != nil {
			s.logger.Error("failed to record activity",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", string(entry.Action)),
				zap.Int64("user_id", entry.UserID))
		}
	}

	s.logger.Debug("activity worker stopped", zap.Int("worker_id", id))
}

func (s *Service) insert(entry *models.ActivityLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	if err := s.repo.Insert(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}
	return nil
}

// GetStats returns statistics about the service
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		BufferSize:     s.bufferSize,
		PendingEntries: len(s.entries),
		WorkerCount:    s.workerCount,
		Started:        s.started && !s.stopped,
	}
}

// Stats represents activity service statistics
type Stats struct {
	BufferSize     int
	PendingEntries int
	WorkerCount    int
	Started        bool
}

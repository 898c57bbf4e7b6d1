package activity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/thesis-workflow/internal/policy"
	"github.com/upb/thesis-workflow/models"
	"go.uber.org/zap"
)

// MockActivityRepository is a mock implementation of ActivityRepository
type MockActivityRepository struct {
	mock.Mock
	mu       sync.Mutex
	inserted []*models.ActivityLog
}

func (m *MockActivityRepository) Insert(ctx context.Context, log *models.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	args := m.Called(ctx, log)
	m.inserted = append(m.inserted, log)
	return args.Error(0)
}

func (m *MockActivityRepository) List(ctx context.Context, limit, offset int) ([]*models.ActivityLog, error) {
	args := m.Called(ctx, limit, offset)
	if logs := args.Get(0); logs != nil {
		return logs.([]*models.ActivityLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockActivityRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.ActivityLog, error) {
	args := m.Called(ctx, userID, limit, offset)
	if logs := args.Get(0); logs != nil {
		return logs.([]*models.ActivityLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockActivityRepository) Inserted() []*models.ActivityLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.ActivityLog(nil), m.inserted...)
}

func newEntry(action models.ActivityAction) *models.ActivityLog {
	return models.NewActivityLog(policy.Identity{ID: 5, Role: policy.RoleMahasiswa}, action, "proposal")
}

func TestService_StartStop(t *testing.T) {
	service := NewService(new(MockActivityRepository), zap.NewNop(), Config{BufferSize: 10, WorkerCount: 2})

	require.NoError(t, service.Start())

	stats := service.GetStats()
	assert.True(t, stats.Started)
	assert.Equal(t, 2, stats.WorkerCount)
	assert.Equal(t, 10, stats.BufferSize)

	assert.Error(t, service.Start())

	require.NoError(t, service.Stop(5*time.Second))
	assert.False(t, service.GetStats().Started)
	assert.Error(t, service.Stop(time.Second))
}

func TestService_RecordBeforeStartAndAfterStop(t *testing.T) {
	service := NewService(new(MockActivityRepository), zap.NewNop(), DefaultConfig())

	assert.Error(t, service.Record(newEntry(models.ActivityLogin)))

	require.NoError(t, service.Start())
	require.NoError(t, service.Stop(time.Second))

	assert.Error(t, service.Record(newEntry(models.ActivityLogin)))
}

func TestService_Record(t *testing.T) {
	repo := new(MockActivityRepository)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	service := NewService(repo, zap.NewNop(), Config{BufferSize: 100, WorkerCount: 2})
	require.NoError(t, service.Start())

	require.NoError(t, service.Record(newEntry(models.ActivityProposalSubmit)))

	// Stop drains the queue
	require.NoError(t, service.Stop(5*time.Second))

	inserted := repo.Inserted()
	require.Len(t, inserted, 1)
	assert.Equal(t, models.ActivityProposalSubmit, inserted[0].Action)
	assert.Equal(t, int64(5), inserted[0].UserID)
}

func TestService_ConcurrentRecording(t *testing.T) {
	repo := new(MockActivityRepository)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	service := NewService(repo, zap.NewNop(), Config{BufferSize: 1000, WorkerCount: 4})
	require.NoError(t, service.Start())

	goroutineCount := 10
	entriesPerGoroutine := 10
	var wg sync.WaitGroup

	for i := 0; i < goroutineCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < entriesPerGoroutine; j++ {
				_ = service.Record(newEntry(models.ActivityGuidanceSubmit))
			}
		}()
	}
	wg.Wait()

	require.NoError(t, service.Stop(5*time.Second))
	assert.Len(t, repo.Inserted(), goroutineCount*entriesPerGoroutine)
}

func TestService_InsertFailureIsLoggedNotFatal(t *testing.T) {
	repo := new(MockActivityRepository)
	repo.On("Insert", mock.Anything, mock.Anything).Return(errors.New("db down"))

	service := NewService(repo, zap.NewNop(), Config{BufferSize: 10, WorkerCount: 1})
	require.NoError(t, service.Start())

	require.NoError(t, service.Record(newEntry(models.ActivityLogin)))
	require.NoError(t, service.Record(newEntry(models.ActivityLogin)))

	require.NoError(t, service.Stop(5*time.Second))
	assert.Len(t, repo.Inserted(), 2)
}

func TestService_BufferFull(t *testing.T) {
	repo := new(MockActivityRepository)
	release := make(chan struct{})
	repo.On("Insert", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(nil)

	service := NewService(repo, zap.NewNop(), Config{BufferSize: 1, WorkerCount: 1})
	require.NoError(t, service.Start())

	// the worker blocks on the first entry, the second fills the buffer
	require.NoError(t, service.Record(newEntry(models.ActivityLogin)))
	require.Eventually(t, func() bool { return service.GetStats().PendingEntries == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, service.Record(newEntry(models.ActivityLogin)))

	assert.Error(t, service.Record(newEntry(models.ActivityLogin)))

	close(release)
	require.NoError(t, service.Stop(5*time.Second))
}

func TestService_List(t *testing.T) {
	repo := new(MockActivityRepository)
	service := NewService(repo, zap.NewNop(), DefaultConfig())
	ctx := context.Background()

	all := []*models.ActivityLog{newEntry(models.ActivityLogin)}
	repo.On("List", ctx, 50, 0).Return(all, nil)
	repo.On("ListByUser", ctx, int64(5), 200, 10).Return(all, nil)

	logs, err := service.List(ctx, 0, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, all, logs)

	logs, err = service.List(ctx, 5, 1000, 10)
	require.NoError(t, err)
	assert.Equal(t, all, logs)

	repo.AssertExpectations(t)
}

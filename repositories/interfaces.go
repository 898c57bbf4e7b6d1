package repositories

import (
	"context"
	"errors"

	"github.com/upb/thesis-workflow/internal/policy"
	"github.com/upb/thesis-workflow/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert violates a unique constraint
	ErrDuplicate = errors.New("record already exists")

	// ErrStaleState is returned when a conditional update finds the row no
	// longer in the state it was read in
	ErrStaleState = errors.New("record changed since it was read")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction. Repositories called with the
	// transaction's Context run inside it.
	Begin(ctx context.Context) (Transaction, error)
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns a context carrying the transaction
	Context() context.Context
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create inserts a user and sets its ID
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByUsername retrieves a user by login name
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// List retrieves users, filtered by role unless role is empty
	List(ctx context.Context, role policy.Role, limit, offset int) ([]*models.User, error)

	// UpdatePassword replaces the password hash of a user
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// Delete deletes a user
	Delete(ctx context.Context, id int64) error
}

// ProposalRepository handles thesis proposal data operations
type ProposalRepository interface {
	// Create inserts a proposal and sets its ID
	Create(ctx context.Context, p *models.Proposal) error

	// GetByID retrieves a proposal by ID
	GetByID(ctx context.Context, id int64) (*models.Proposal, error)

	// List retrieves every proposal, newest first
	List(ctx context.Context, limit, offset int) ([]*models.Proposal, error)

	// ListByStudent retrieves the proposals of a student
	ListByStudent(ctx context.Context, studentID int64) ([]*models.Proposal, error)

	// ListByAdvisor retrieves the proposals a lecturer advises
	ListByAdvisor(ctx context.Context, advisorID int64) ([]*models.Proposal, error)

	// Update persists status, notes and advisor changes
	Update(ctx context.Context, p *models.Proposal) error
}

// GuidanceRepository handles bimbingan session data operations
type GuidanceRepository interface {
	Create(ctx context.Context, g *models.Guidance) error
	GetByID(ctx context.Context, id int64) (*models.Guidance, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*models.Guidance, error)
	ListByAdvisor(ctx context.Context, advisorID int64) ([]*models.Guidance, error)

	// Update stores feedback on a submitted session. A session that is no
	// longer submitted is left untouched and ErrStaleState is returned.
	Update(ctx context.Context, g *models.Guidance) error
}

// ExamRepository handles exam data operations
type ExamRepository interface {
	Create(ctx context.Context, e *models.Exam) error
	GetByID(ctx context.Context, id int64) (*models.Exam, error)
	List(ctx context.Context, limit, offset int) ([]*models.Exam, error)

	// ListByExaminer retrieves exams whose panel contains examinerID
	ListByExaminer(ctx context.Context, examinerID int64) ([]*models.Exam, error)

	// Update stores the grade of a scheduled exam. An exam that is no longer
	// scheduled is left untouched and ErrStaleState is returned.
	Update(ctx context.Context, e *models.Exam) error
}

// ActivityRepository handles activity log data operations
type ActivityRepository interface {
	// Insert inserts a new activity log entry
	Insert(ctx context.Context, log *models.ActivityLog) error

	// List retrieves activity newest first with pagination
	List(ctx context.Context, limit, offset int) ([]*models.ActivityLog, error)

	// ListByUser retrieves activity of one user with pagination
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.ActivityLog, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users      UserRepository
	Proposals  ProposalRepository
	Guidances  GuidanceRepository
	Exams      ExamRepository
	Activities ActivityRepository
}

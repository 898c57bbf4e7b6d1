package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/upb/thesis-workflow/models"
	"github.com/upb/thesis-workflow/repositories"
	"go.uber.org/zap"
)

const examColumns = `id, proposal_id, kind, scheduled_at, room, examiner_ids, score, notes, status, created_at, updated_at`

// ExamRepository implements the repositories.ExamRepository interface
type ExamRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewExamRepository creates a new exam repository
func NewExamRepository(db *DB, logger *zap.Logger) repositories.ExamRepository {
	return &ExamRepository{
		db:     db,
		logger: logger,
	}
}

func scanExam(row rowScanner) (*models.Exam, error) {
	e := &models.Exam{}
	var (
		examiners pq.Int64Array
		score     sql.NullFloat64
	)
	err := row.Scan(
		&e.ID,
		&e.ProposalID,
		&e.Kind,
		&e.ScheduledAt,
		&e.Room,
		&examiners,
		&score,
		&e.Notes,
		&e.Status,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.ExaminerIDs = []int64(examiners)
	if score.Valid {
		s := score.Float64
		e.Score = &s
	}
	return e, nil
}

func nullFloat64(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// Create creates a new exam
func (r *ExamRepository) Create(ctx context.Context, e *models.Exam) error {
	query := `
		INSERT INTO exams (proposal_id, kind, scheduled_at, room, examiner_ids, score, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query,
		e.ProposalID,
		e.Kind,
		e.ScheduledAt,
		e.Room,
		pq.Array(e.ExaminerIDs),
		nullFloat64(e.Score),
		e.Notes,
		e.Status,
		e.CreatedAt,
		e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return wrapError("create exam", err)
	}

	r.logger.Debug("exam created", zap.Int64("id", e.ID), zap.Int64s("examiners", e.ExaminerIDs))
	return nil
}

// GetByID retrieves an exam by ID
func (r *ExamRepository) GetByID(ctx context.Context, id int64) (*models.Exam, error) {
	query := `SELECT ` + examColumns + ` FROM exams WHERE id = $1`

	e, err := scanExam(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get exam %d", id), err)
	}
	return e, nil
}

// List retrieves exams by schedule
func (r *ExamRepository) List(ctx context.Context, limit, offset int) ([]*models.Exam, error) {
	query := `SELECT ` + examColumns + ` FROM exams ORDER BY scheduled_at LIMIT $1 OFFSET $2`
	return r.query(ctx, query, limit, offset)
}

// ListByExaminer retrieves exams whose panel contains examinerID
func (r *ExamRepository) ListByExaminer(ctx context.Context, examinerID int64) ([]*models.Exam, error) {
	query := `SELECT ` + examColumns + ` FROM exams WHERE $1 = ANY(examiner_ids) ORDER BY scheduled_at`
	return r.query(ctx, query, examinerID)
}

func (r *ExamRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.Exam, error) {
	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exams: %w", err)
	}
	defer rows.Close()

	var exams []*models.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exam: %w", err)
		}
		exams = append(exams, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exam rows: %w", err)
	}

	return exams, nil
}

// Update stores the grade and status of an exam that is still scheduled
func (r *ExamRepository) Update(ctx context.Context, e *models.Exam) error {
	query := `
		UPDATE exams
		SET score = $2,
		    notes = $3,
		    status = $4,
		    updated_at = $5
		WHERE id = $1 AND status = $6
	`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		e.ID,
		nullFloat64(e.Score),
		e.Notes,
		e.Status,
		e.UpdatedAt,
		models.ExamScheduled,
	)
	if err != nil {
		return fmt.Errorf("failed to update exam: %w", err)
	}
	if err := expectTransition(fmt.Sprintf("update exam %d", e.ID), result); err != nil {
		return err
	}

	r.logger.Debug("exam updated", zap.Int64("id", e.ID), zap.String("status", string(e.Status)))
	return nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/upb/thesis-workflow/models"
	"github.com/upb/thesis-workflow/repositories"
	"go.uber.org/zap"
)

const guidanceColumns = `id, proposal_id, student_id, advisor_id, topic, notes, file_url, feedback, status, created_at, updated_at`

// GuidanceRepository implements the repositories.GuidanceRepository interface
type GuidanceRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewGuidanceRepository creates a new guidance repository
func NewGuidanceRepository(db *DB, logger *zap.Logger) repositories.GuidanceRepository {
	return &GuidanceRepository{
		db:     db,
		logger: logger,
	}
}

func scanGuidance(row rowScanner) (*models.Guidance, error) {
	g := &models.Guidance{}
	err := row.Scan(
		&g.ID,
		&g.ProposalID,
		&g.StudentID,
		&g.AdvisorID,
		&g.Topic,
		&g.Notes,
		&g.FileURL,
		&g.Feedback,
		&g.Status,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Create creates a new guidance session
func (r *GuidanceRepository) Create(ctx context.Context, g *models.Guidance) error {
	query := `
		INSERT INTO guidances (proposal_id, student_id, advisor_id, topic, notes, file_url, feedback, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query,
		g.ProposalID,
		g.StudentID,
		g.AdvisorID,
		g.Topic,
		g.Notes,
		g.FileURL,
		g.Feedback,
		g.Status,
		g.CreatedAt,
		g.UpdatedAt,
	).Scan(&g.ID)
	if err != nil {
		return wrapError("create guidance", err)
	}

	r.logger.Debug("guidance created", zap.Int64("id", g.ID), zap.Int64("proposal_id", g.ProposalID))
	return nil
}

// GetByID retrieves a guidance session by ID
func (r *GuidanceRepository) GetByID(ctx context.Context, id int64) (*models.Guidance, error) {
	query := `SELECT ` + guidanceColumns + ` FROM guidances WHERE id = $1`

	g, err := scanGuidance(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get guidance %d", id), err)
	}
	return g, nil
}

// ListByStudent retrieves the sessions of a student
func (r *GuidanceRepository) ListByStudent(ctx context.Context, studentID int64) ([]*models.Guidance, error) {
	query := `SELECT ` + guidanceColumns + ` FROM guidances WHERE student_id = $1 ORDER BY created_at DESC`
	return r.query(ctx, query, studentID)
}

// ListByAdvisor retrieves the sessions addressed to an advisor
func (r *GuidanceRepository) ListByAdvisor(ctx context.Context, advisorID int64) ([]*models.Guidance, error) {
	query := `SELECT ` + guidanceColumns + ` FROM guidances WHERE advisor_id = $1 ORDER BY created_at DESC`
	return r.query(ctx, query, advisorID)
}

func (r *GuidanceRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.Guidance, error) {
	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query guidances: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Guidance
	for rows.Next() {
		g, err := scanGuidance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guidance: %w", err)
		}
		sessions = append(sessions, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating guidance rows: %w", err)
	}

	return sessions, nil
}

// Update stores advisor feedback on a session that is still submitted
func (r *GuidanceRepository) Update(ctx context.Context, g *models.Guidance) error {
	query := `
		UPDATE guidances
		SET feedback = $2,
		    status = $3,
		    updated_at = $4
		WHERE id = $1 AND status = $5
	`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		g.ID, g.Feedback, g.Status, g.UpdatedAt, models.GuidanceSubmitted)
	if err != nil {
		return fmt.Errorf("failed to update guidance: %w", err)
	}
	if err := expectTransition(fmt.Sprintf("update guidance %d", g.ID), result); err != nil {
		return err
	}

	r.logger.Debug("guidance updated", zap.Int64("id", g.ID))
	return nil
}

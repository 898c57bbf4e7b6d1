package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/upb/thesis-workflow/models"
	"github.com/upb/thesis-workflow/repositories"
	"go.uber.org/zap"
)

const proposalColumns = `id, student_id, advisor_id, title, abstract, file_url, file_name, status, review_notes, created_at, updated_at`

// ProposalRepository implements the repositories.ProposalRepository interface
type ProposalRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewProposalRepository creates a new proposal repository
func NewProposalRepository(db *DB, logger *zap.Logger) repositories.ProposalRepository {
	return &ProposalRepository{
		db:     db,
		logger: logger,
	}
}

func scanProposal(row rowScanner) (*models.Proposal, error) {
	p := &models.Proposal{}
	var advisorID sql.NullInt64
	err := row.Scan(
		&p.ID,
		&p.StudentID,
		&advisorID,
		&p.Title,
		&p.Abstract,
		&p.FileURL,
		&p.FileName,
		&p.Status,
		&p.ReviewNotes,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.AdvisorID = int64Ptr(advisorID)
	return p, nil
}

// Create creates a new proposal
func (r *ProposalRepository) Create(ctx context.Context, p *models.Proposal) error {
	query := `
		INSERT INTO proposals (student_id, advisor_id, title, abstract, file_url, file_name, status, review_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query,
		p.StudentID,
		nullInt64(p.AdvisorID),
		p.Title,
		p.Abstract,
		p.FileURL,
		p.FileName,
		p.Status,
		p.ReviewNotes,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return wrapError("create proposal", err)
	}

	r.logger.Debug("proposal created", zap.Int64("id", p.ID), zap.Int64("student_id", p.StudentID))
	return nil
}

// GetByID retrieves a proposal by ID
func (r *ProposalRepository) GetByID(ctx context.Context, id int64) (*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1`

	p, err := scanProposal(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get proposal %d", id), err)
	}
	return p, nil
}

// List retrieves every proposal, newest first
func (r *ProposalRepository) List(ctx context.Context, limit, offset int) ([]*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.query(ctx, query, limit, offset)
}

// ListByStudent retrieves the proposals of a student
func (r *ProposalRepository) ListByStudent(ctx context.Context, studentID int64) ([]*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE student_id = $1 ORDER BY created_at DESC`
	return r.query(ctx, query, studentID)
}

// ListByAdvisor retrieves the proposals a lecturer advises
func (r *ProposalRepository) ListByAdvisor(ctx context.Context, advisorID int64) ([]*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE advisor_id = $1 ORDER BY created_at DESC`
	return r.query(ctx, query, advisorID)
}

func (r *ProposalRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.Proposal, error) {
	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query proposals: %w", err)
	}
	defer rows.Close()

	var proposals []*models.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating proposal rows: %w", err)
	}

	return proposals, nil
}

// Update updates a proposal
func (r *ProposalRepository) Update(ctx context.Context, p *models.Proposal) error {
	query := `
		UPDATE proposals
		SET advisor_id = $2,
		    status = $3,
		    review_notes = $4,
		    updated_at = $5
		WHERE id = $1
	`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		p.ID,
		nullInt64(p.AdvisorID),
		p.Status,
		p.ReviewNotes,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update proposal: %w", err)
	}
	if err := expectAffected(fmt.Sprintf("update proposal %d", p.ID), result); err != nil {
		return err
	}

	r.logger.Debug("proposal updated", zap.Int64("id", p.ID), zap.String("status", string(p.Status)))
	return nil
}

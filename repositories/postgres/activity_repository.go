package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/upb/thesis-workflow/models"
	"github.com/upb/thesis-workflow/repositories"
	"go.uber.org/zap"
)

const activityColumns = `id, user_id, role, action, resource_type, resource_id, details, request_id, ip_address, created_at`

// ActivityRepository implements the repositories.ActivityRepository interface
type ActivityRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *DB, logger *zap.Logger) repositories.ActivityRepository {
	return &ActivityRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new activity log entry
func (r *ActivityRepository) Insert(ctx context.Context, log *models.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (user_id, role, action, resource_type, resource_id, details, request_id, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	// jsonb takes the text form; a []byte would be sent as bytea
	var details sql.NullString
	if len(log.Details) > 0 {
		details = sql.NullString{String: string(log.Details), Valid: true}
	}

	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query,
		log.UserID,
		log.Role,
		log.Action,
		log.ResourceType,
		nullInt64(log.ResourceID),
		details,
		log.RequestID,
		log.IPAddress,
		log.CreatedAt,
	).Scan(&log.ID)
	if err != nil {
		return wrapError("insert activity log", err)
	}

	r.logger.Debug("activity log inserted", zap.Int64("id", log.ID), zap.String("action", string(log.Action)))
	return nil
}

// List retrieves activity newest first with pagination
func (r *ActivityRepository) List(ctx context.Context, limit, offset int) ([]*models.ActivityLog, error) {
	query := `SELECT ` + activityColumns + ` FROM activity_logs ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.query(ctx, query, limit, offset)
}

// ListByUser retrieves activity of one user with pagination
func (r *ActivityRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.ActivityLog, error) {
	query := `SELECT ` + activityColumns + ` FROM activity_logs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.query(ctx, query, userID, limit, offset)
}

func (r *ActivityRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.ActivityLog, error) {
	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.ActivityLog
	for rows.Next() {
		var (
			log        models.ActivityLog
			resourceID sql.NullInt64
			details    []byte
			requestID  sql.NullString
			ipAddress  sql.NullString
		)
		err := rows.Scan(
			&log.ID,
			&log.UserID,
			&log.Role,
			&log.Action,
			&log.ResourceType,
			&resourceID,
			&details,
			&requestID,
			&ipAddress,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}
		log.ResourceID = int64Ptr(resourceID)
		log.Details = details
		log.RequestID = requestID.String
		log.IPAddress = ipAddress.String
		logs = append(logs, &log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return logs, nil
}

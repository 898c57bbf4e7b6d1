package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/upb/thesis-workflow/config"
	"github.com/upb/thesis-workflow/repositories"
	"go.uber.org/zap"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures
const uniqueViolation = "23505"

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return WrapDB(db, logger), nil
}

// WrapDB wraps an already opened pool
func WrapDB(db *sql.DB, logger *zap.Logger) *DB {
	return &DB{
		DB:     db,
		logger: logger,
	}
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// InitSchema creates the tables used by the repositories when they are missing
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(64) NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(32) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS proposals (
			id BIGSERIAL PRIMARY KEY,
			student_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			advisor_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
			title VARCHAR(500) NOT NULL,
			abstract TEXT NOT NULL DEFAULT '',
			file_url TEXT NOT NULL DEFAULT '',
			file_name VARCHAR(255) NOT NULL DEFAULT '',
			status VARCHAR(32) NOT NULL,
			review_notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS guidances (
			id BIGSERIAL PRIMARY KEY,
			proposal_id BIGINT NOT NULL REFERENCES proposals(id) ON DELETE CASCADE,
			student_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			advisor_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			topic VARCHAR(255) NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			file_url TEXT NOT NULL DEFAULT '',
			feedback TEXT NOT NULL DEFAULT '',
			status VARCHAR(32) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS exams (
			id BIGSERIAL PRIMARY KEY,
			proposal_id BIGINT NOT NULL REFERENCES proposals(id) ON DELETE CASCADE,
			kind VARCHAR(32) NOT NULL,
			scheduled_at TIMESTAMP NOT NULL,
			room VARCHAR(100) NOT NULL DEFAULT '',
			examiner_ids BIGINT[] NOT NULL DEFAULT '{}',
			score NUMERIC(5, 2),
			notes TEXT NOT NULL DEFAULT '',
			status VARCHAR(32) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS activity_logs (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			role VARCHAR(32) NOT NULL,
			action VARCHAR(100) NOT NULL,
			resource_type VARCHAR(100) NOT NULL,
			resource_id BIGINT,
			details JSONB,
			request_id VARCHAR(255),
			ip_address VARCHAR(45),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
		CREATE INDEX IF NOT EXISTS idx_proposals_student_id ON proposals(student_id);
		CREATE INDEX IF NOT EXISTS idx_proposals_advisor_id ON proposals(advisor_id);
		CREATE INDEX IF NOT EXISTS idx_guidances_student_id ON guidances(student_id);
		CREATE INDEX IF NOT EXISTS idx_guidances_advisor_id ON guidances(advisor_id);
		CREATE INDEX IF NOT EXISTS idx_exams_examiner_ids ON exams USING GIN (examiner_ids);
		CREATE INDEX IF NOT EXISTS idx_activity_logs_user_id ON activity_logs(user_id);
		CREATE INDEX IF NOT EXISTS idx_activity_logs_created_at ON activity_logs(created_at);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// wrapError maps driver errors to repository sentinels
func wrapError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, repositories.ErrDuplicate)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// expectAffected turns a zero-row update or delete into ErrNotFound
func expectAffected(op string, result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
	}
	return nil
}

// expectTransition is expectAffected for updates guarded by the previous
// status: zero rows means another writer got there first
func expectTransition(op string, result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, repositories.ErrStaleState)
	}
	return nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

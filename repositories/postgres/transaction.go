package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/upb/thesis-workflow/repositories"
	"go.uber.org/zap"
)

type txKey struct{}

// TransactionManager opens units of work on the pool.
type TransactionManager struct {
	db     *DB
	logger *zap.Logger
}

func NewTransactionManager(db *DB, logger *zap.Logger) repositories.TransactionManager {
	return &TransactionManager{db: db, logger: logger}
}

// Begin opens a *sql.Tx and hides it in the returned Context. GetExecutor
// finds it there, so repository methods need no transaction parameter.
func (tm *TransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	sqlTx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	tm.logger.Debug("unit of work opened")

	tx := &Transaction{tx: sqlTx, logger: tm.logger}
	tx.ctx = context.WithValue(ctx, txKey{}, tx)
	return tx, nil
}

// Transaction is a single unit of work. Once Commit or Rollback has run,
// further Rollback calls do nothing, which lets callers defer one.
type Transaction struct {
	tx     *sql.Tx
	ctx    context.Context
	logger *zap.Logger
	closed bool
}

func (t *Transaction) Commit() error {
	t.closed = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	t.logger.Debug("unit of work committed")
	return nil
}

func (t *Transaction) Rollback() error {
	if t.closed {
		return nil
	}
	t.closed = true
	// database/sql aborts the tx itself when its context is cancelled
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	t.logger.Debug("unit of work discarded")
	return nil
}

// Context carries the transaction for GetExecutor.
func (t *Transaction) Context() context.Context {
	return t.ctx
}

// Executor is the query surface shared by *sql.DB and *sql.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// GetExecutor picks the unit of work opened by Begin, falling back to the pool.
func GetExecutor(ctx context.Context, db *DB) Executor {
	if tx, ok := ctx.Value(txKey{}).(*Transaction); ok {
		return tx.tx
	}
	return db.DB
}

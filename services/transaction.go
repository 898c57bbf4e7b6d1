package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/thesis-workflow/repositories"
)

// WithTransaction runs fn in a unit of work that commits only when fn returns nil.
func WithTransaction(ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	_, err := WithTransactionResult(ctx, txMgr, func(ctx context.Context, tx repositories.Transaction) (struct{}, error) {
		return struct{}{}, fn(ctx, tx)
	})
	return err
}

// WithTransactionResult runs fn against tx.Context(), so every repository call
// made with that context joins the same unit of work. A failed or panicking fn
// leaves nothing behind; the value fn produced is returned either way.
func WithTransactionResult[T any](ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context, tx repositories.Transaction) (T, error)) (result T, err error) {
	tx, err := txMgr.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}

	settled := false
	defer func() {
		if !settled {
			_ = tx.Rollback()
		}
	}()

	result, err = fn(tx.Context(), tx)
	if err != nil {
		settled = true
		if rbErr := tx.Rollback(); rbErr != nil {
			return result, errors.Join(err, fmt.Errorf("undo failed: %w", rbErr))
		}
		return result, err
	}

	settled = true
	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}

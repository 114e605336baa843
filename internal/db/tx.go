package db

import (
	"context"
	"database/sql"
	"fmt"
)

// WithTx runs fn inside a scoped transaction: commit when fn returns nil,
// rollback on every other exit path. Each public catalog operation executes
// inside exactly one such scope, so partial state is never visible.
func WithTx(ctx context.Context, pool *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

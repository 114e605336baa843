package catalog

import (
	"context"
	"database/sql"

	"graphmeta/internal/db"
)

// Clean irreversibly drops all catalog schema objects. The generated-views
// schema may legitimately be absent; the metadata schema must exist. There is
// no confirmation step at this layer — callers gate this behind an explicit
// administrative action.
func (e *Engine) Clean(ctx context.Context) error {
	err := db.WithTx(ctx, e.pool, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DROP SCHEMA IF EXISTS hdb_views CASCADE`); err != nil {
			return db.MapError("drop generated-views schema", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DROP SCHEMA hdb_catalog CASCADE`); err != nil {
			return db.MapError("drop metadata schema", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info("catalog cleaned")
	return nil
}

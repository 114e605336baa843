package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"

	"graphmeta/internal/db"
	"graphmeta/internal/domain"
)

// StepFunc applies one version-to-version transformation through the
// migration's transaction.
type StepFunc func(ctx context.Context, tx domain.Querier) error

// Step is a named transformation from one catalog version to the next. All of
// its changes apply or none do.
type Step struct {
	From  domain.Version
	To    domain.Version
	Apply StepFunc
}

// defaultPaths is the production migration path table: recorded version to
// the ordered steps that carry the catalog to the current version. Adding a
// future version means adding a step and extending this table, not a new
// branch shape.
func (e *Engine) defaultPaths() map[domain.Version][]Step {
	from08 := Step{From: domain.Version08, To: domain.Version1, Apply: e.migrateFrom08}
	from1 := Step{From: domain.Version1, To: domain.Version1_1, Apply: e.migrateFrom1}

	return map[domain.Version][]Step{
		domain.Version08: {from08, from1},
		domain.Version1:  {from1},
	}
}

// Migrate carries the catalog from its recorded version to the engine's
// target version. The version row is read inside the same transaction the
// steps run in, the whole chain applies atomically, and an unknown recorded
// version is a client-facing UnsupportedVersionError.
func (e *Engine) Migrate(ctx context.Context, now time.Time) (string, error) {
	var msg string
	err := db.WithTx(ctx, e.pool, func(tx *sql.Tx) error {
		rec, err := ReadVersion(ctx, tx)
		if err != nil {
			return err
		}

		if rec.Version == e.target {
			msg = MsgAlreadyLatest
			return nil
		}

		steps, ok := e.paths[rec.Version]
		if !ok {
			return &domain.UnsupportedVersionError{Version: rec.Version}
		}

		for _, s := range steps {
			e.logger.Info("applying catalog migration step", "from", s.From, "to", s.To)
			if err := s.Apply(ctx, tx); err != nil {
				return err
			}
		}

		if err := e.finalize(ctx, tx, now); err != nil {
			return err
		}
		msg = MsgMigrated
		return nil
	})
	if err != nil {
		return "", err
	}

	if msg == MsgMigrated {
		// Best-effort: the catalog is already consistent, a failed rebuild
		// only delays the projection until the next operation re-derives it.
		if _, err := e.rebuilder.Rebuild(ctx, e.pool); err != nil {
			e.logger.Warn("schema cache rebuild after migration failed", "error", err)
		}
		e.logger.Info("catalog migrated", "to", e.target)
	}
	return msg, nil
}

// migrateFrom08 is step 0.8 -> 1: comment columns on the three dependent
// registries, and query-template definitions rewritten into the normalised
// {"type": "select", "args": <old payload>} shape.
func (e *Engine) migrateFrom08(ctx context.Context, tx domain.Querier) error {
	if _, err := tx.ExecContext(ctx,
		`ALTER TABLE hdb_catalog.hdb_relationship ADD COLUMN comment TEXT NULL;
		 ALTER TABLE hdb_catalog.hdb_permission ADD COLUMN comment TEXT NULL;
		 ALTER TABLE hdb_catalog.hdb_query_template ADD COLUMN comment TEXT NULL`); err != nil {
		return db.MapError("add comment columns (0.8 -> 1)", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE hdb_catalog.hdb_query_template
		 SET template_defn = json_build_object('type', 'select', 'args', template_defn::json)::text`); err != nil {
		return db.MapError("normalise query templates (0.8 -> 1)", err)
	}
	return nil
}

// migrateFrom1 is step 1 -> 1.1: the permission and relationship registries'
// foreign keys onto the table registry are recreated with ON UPDATE CASCADE,
// so renaming a tracked table propagates.
func (e *Engine) migrateFrom1(ctx context.Context, tx domain.Querier) error {
	for _, table := range []string{"hdb_permission", "hdb_relationship"} {
		if err := e.recreateTableFK(ctx, tx, table); err != nil {
			return err
		}
	}
	return nil
}

// recreateTableFK drops every discovered FK constraint on the given registry
// table and adds the cascading one. Discovery goes through the store's
// constraint catalog — the original constraint name varies with how the
// constraint was created, so no fixed name is assumed.
func (e *Engine) recreateTableFK(ctx context.Context, tx domain.Querier, table string) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT constraint_name FROM information_schema.table_constraints
		 WHERE table_schema = $1 AND table_name = $2 AND constraint_type = 'FOREIGN KEY'`,
		MetadataSchema, table)
	if err != nil {
		return db.MapError("discover FK constraints (1 -> 1.1)", err)
	}

	var constraints []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return db.MapError("discover FK constraints (1 -> 1.1)", err)
		}
		constraints = append(constraints, name)
	}
	if err := rows.Close(); err != nil {
		return db.MapError("discover FK constraints (1 -> 1.1)", err)
	}
	if err := rows.Err(); err != nil {
		return db.MapError("discover FK constraints (1 -> 1.1)", err)
	}

	// A catalog at version 1 should carry exactly one FK here; zero usually
	// means an earlier migration attempt was interrupted outside this engine.
	if len(constraints) == 0 {
		e.logger.Warn("no FK constraints discovered before re-add", "table", table)
	}

	qualified := pgx.Identifier{MetadataSchema, table}.Sanitize()
	for _, name := range constraints {
		stmt := `ALTER TABLE ` + qualified + ` DROP CONSTRAINT ` + pgx.Identifier{name}.Sanitize()
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return db.MapError("drop FK constraint (1 -> 1.1)", err)
		}
	}

	stmt := `ALTER TABLE ` + qualified + ` ADD CONSTRAINT ` +
		pgx.Identifier{table + "_table_fkey"}.Sanitize() + `
		 FOREIGN KEY (table_schema, table_name)
		 REFERENCES hdb_catalog.hdb_table (table_schema, table_name)
		 ON UPDATE CASCADE`
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return db.MapError("add cascading FK constraint (1 -> 1.1)", err)
	}
	return nil
}

// finalize stamps the target version and invalidates the generated-views
// schema: views derived from pre-migration metadata are never carried across
// a migration.
func (e *Engine) finalize(ctx context.Context, tx domain.Querier, now time.Time) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE hdb_catalog.hdb_version SET version = $1, upgraded_on = $2`,
		string(e.target), now); err != nil {
		return db.MapError("stamp catalog version", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DROP SCHEMA IF EXISTS hdb_views CASCADE; CREATE SCHEMA hdb_views`); err != nil {
		return db.MapError("reset generated-views schema", err)
	}
	return nil
}

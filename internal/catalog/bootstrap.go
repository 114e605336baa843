package catalog

import (
	"context"
	"database/sql"
	"time"

	"graphmeta/internal/db"
	"graphmeta/internal/domain"
)

// registryTables are the metadata tables the bootstrap tracks and flags as
// system-defined, in registration order.
var registryTables = []string{
	"hdb_table",
	"hdb_relationship",
	"hdb_permission",
	"hdb_query_template",
}

// Initialize bootstraps the catalog. It is idempotent: a catalog that already
// has a version table is left untouched and the call reports
// MsgAlreadyInitialised instead of an error. Everything runs inside one
// transaction, so a failing step leaves the store exactly as it was.
func (e *Engine) Initialize(ctx context.Context, now time.Time) (string, error) {
	var msg string
	err := db.WithTx(ctx, e.pool, func(tx *sql.Tx) error {
		metaExists, err := SchemaExists(ctx, tx, MetadataSchema)
		if err != nil {
			return err
		}
		if !metaExists {
			msg = MsgInitialised
			return e.strictInit(ctx, tx, true, now)
		}

		versionExists, err := TableExists(ctx, tx, MetadataSchema, versionTable)
		if err != nil {
			return err
		}
		if !versionExists {
			// Schemas pre-seeded but never initialised: create the system
			// tables without recreating the schemas.
			msg = MsgInitialised
			return e.strictInit(ctx, tx, false, now)
		}

		msg = MsgAlreadyInitialised
		return nil
	})
	if err != nil {
		return "", err
	}

	e.logger.Info("catalog initialise", "result", msg, "version", e.target)
	return msg, nil
}

// strictInit creates the catalog from nothing: schemas (when requested),
// first/last aggregate support, the bundled seed DDL, registration of the
// engine's own system tables, the system-defined flags, and the version row.
func (e *Engine) strictInit(ctx context.Context, tx *sql.Tx, createSchemas bool, now time.Time) error {
	if createSchemas {
		if _, err := tx.ExecContext(ctx,
			`CREATE SCHEMA hdb_catalog; CREATE SCHEMA hdb_views`); err != nil {
			return db.MapError("create catalog schemas", err)
		}
	}

	if err := ensureFirstLastAggregate(ctx, tx); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, initialiseSQL); err != nil {
		return db.MapError("load seed DDL", err)
	}

	// Register the system tables through the normal admin query path. The
	// catalog being populated is not cached anywhere yet, so the registration
	// runs against an empty starting cache.
	if _, err := e.runner.Run(ctx, tx, systemTablesQuery(), domain.NewSchemaCache()); err != nil {
		return err
	}

	for _, table := range registryTables {
		if _, err := tx.ExecContext(ctx,
			`UPDATE hdb_catalog.`+table+` SET is_system_defined = 't'`); err != nil {
			return db.MapError("flag system-defined metadata", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO hdb_catalog.hdb_version (version, upgraded_on) VALUES ($1, $2)`,
		string(e.target), now); err != nil {
		return db.MapError("stamp catalog version", err)
	}

	return nil
}

// ensureFirstLastAggregate makes first/last aggregates available in the
// catalog schema: the first_last_agg extension when the store offers it, the
// bundled user-defined aggregates otherwise.
func ensureFirstLastAggregate(ctx context.Context, tx *sql.Tx) error {
	var available bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM pg_catalog.pg_available_extensions WHERE name = 'first_last_agg'
		 )`).Scan(&available)
	if err != nil {
		return db.MapError("probe first_last_agg extension", err)
	}

	if available {
		if _, err := tx.ExecContext(ctx,
			`CREATE EXTENSION IF NOT EXISTS first_last_agg SCHEMA hdb_catalog`); err != nil {
			return db.MapError("install first_last_agg extension", err)
		}
		return nil
	}

	if _, err := tx.ExecContext(ctx, firstLastAggSQL); err != nil {
		return db.MapError("load fallback first/last aggregates", err)
	}
	return nil
}

// systemTablesQuery is the bulk track_table query the bootstrap runs to
// register the catalog's own registry tables as tracked entities.
func systemTablesQuery() *domain.AdminQuery {
	items := make([]domain.AdminQuery, 0, len(registryTables))
	for _, table := range registryTables {
		items = append(items, domain.AdminQuery{
			Type: domain.QTTrackTable,
			TrackTable: &domain.TrackTableArgs{
				Table: domain.QualifiedTable{Schema: MetadataSchema, Name: table},
			},
		})
	}
	return &domain.AdminQuery{Type: domain.QTBulk, Bulk: items}
}

package catalog

import (
	"context"

	"graphmeta/internal/db"
	"graphmeta/internal/domain"
)

// SchemaExists reports whether the named schema exists in the store's schema
// catalog. Side-effect-free.
func SchemaExists(ctx context.Context, q domain.Querier, name string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM information_schema.schemata WHERE schema_name = $1
		 )`, name).Scan(&exists)
	if err != nil {
		return false, db.MapError("check schema existence", err)
	}
	return exists, nil
}

// TableExists reports whether the named table exists in the given schema.
// Side-effect-free.
func TableExists(ctx context.Context, q domain.Querier, schema, table string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM information_schema.tables
		   WHERE table_schema = $1 AND table_name = $2
		 )`, schema, table).Scan(&exists)
	if err != nil {
		return false, db.MapError("check table existence", err)
	}
	return exists, nil
}

// ReadVersion reads the single version row. The version table must contain
// exactly one row: zero rows (or an absent table) means the catalog was never
// initialised, more than one means the catalog has been tampered with.
//
// Callers that act on the result must read it through the same transaction
// they act in — the version row is the dispatch point for every migration
// decision and a read-then-act race across transactions is not allowed.
func ReadVersion(ctx context.Context, q domain.Querier) (domain.VersionRecord, error) {
	var rec domain.VersionRecord

	exists, err := TableExists(ctx, q, MetadataSchema, versionTable)
	if err != nil {
		return rec, err
	}
	if !exists {
		return rec, domain.ErrUninitialized("catalog is not initialised: version table %s.%s does not exist",
			MetadataSchema, versionTable)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT version, upgraded_on FROM hdb_catalog.hdb_version`)
	if err != nil {
		return rec, db.MapError("read catalog version", err)
	}
	defer rows.Close() //nolint:errcheck

	count := 0
	for rows.Next() {
		count++
		if count > 1 {
			return rec, domain.ErrInconsistent("version table contains more than one row")
		}
		var v string
		if err := rows.Scan(&v, &rec.UpgradedOn); err != nil {
			return rec, db.MapError("read catalog version", err)
		}
		rec.Version = domain.Version(v)
	}
	if err := rows.Err(); err != nil {
		return rec, db.MapError("read catalog version", err)
	}
	if count == 0 {
		return rec, domain.ErrUninitialized("catalog is not initialised: version table is empty")
	}
	return rec, nil
}

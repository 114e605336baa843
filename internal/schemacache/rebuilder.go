// Package schemacache rebuilds the in-memory projection of the catalog
// metadata tables. The projection is derived state: it is recomputed from the
// registries on demand and never persisted or mutated in place.
package schemacache

import (
	"context"
	"database/sql"
	"encoding/json"

	"graphmeta/internal/db"
	"graphmeta/internal/domain"
)

// Rebuilder reads the catalog registries and produces a fresh SchemaCache.
type Rebuilder struct{}

var _ domain.SchemaCacheRebuilder = (*Rebuilder)(nil)

// New creates a Rebuilder.
func New() *Rebuilder {
	return &Rebuilder{}
}

type tableRow struct {
	table         domain.QualifiedTable
	systemDefined bool
}

type relRow struct {
	table         domain.QualifiedTable
	name          string
	relType       string
	def           json.RawMessage
	comment       *string
	systemDefined bool
}

type permRow struct {
	table         domain.QualifiedTable
	role          string
	permType      string
	def           json.RawMessage
	comment       *string
	systemDefined bool
}

type templateRow struct {
	name          string
	def           json.RawMessage
	comment       *string
	systemDefined bool
}

// Rebuild reads the four registries through q (normally the transaction of
// the operation that needs the cache) and assembles the projection.
func (r *Rebuilder) Rebuild(ctx context.Context, q domain.Querier) (*domain.SchemaCache, error) {
	tables, err := loadTables(ctx, q)
	if err != nil {
		return nil, db.MapError("load table registry", err)
	}
	rels, err := loadRelationships(ctx, q)
	if err != nil {
		return nil, db.MapError("load relationship registry", err)
	}
	perms, err := loadPermissions(ctx, q)
	if err != nil {
		return nil, db.MapError("load permission registry", err)
	}
	templates, err := loadTemplates(ctx, q)
	if err != nil {
		return nil, db.MapError("load query-template registry", err)
	}

	return assemble(tables, rels, perms, templates), nil
}

// assemble builds the projection from registry rows. Relationship and
// permission rows whose table is not tracked are skipped: the registries
// carry FK constraints, so such rows only appear mid-migration, and the
// projection must never invent a tracked table.
func assemble(tables []tableRow, rels []relRow, perms []permRow, templates []templateRow) *domain.SchemaCache {
	cache := domain.NewSchemaCache()

	for _, t := range tables {
		cache.AddTable(t.table, t.systemDefined)
	}

	for _, rel := range rels {
		info := cache.TrackedTable(rel.table)
		if info == nil {
			continue
		}
		info.Relationships[rel.name] = domain.RelationshipInfo{
			Name:          rel.name,
			Type:          rel.relType,
			Definition:    rel.def,
			Comment:       rel.comment,
			SystemDefined: rel.systemDefined,
		}
	}

	for _, p := range perms {
		info := cache.TrackedTable(p.table)
		if info == nil {
			continue
		}
		info.Permissions = append(info.Permissions, domain.PermissionInfo{
			Role:          p.role,
			Type:          p.permType,
			Definition:    p.def,
			Comment:       p.comment,
			SystemDefined: p.systemDefined,
		})
	}

	for _, t := range templates {
		cache.QueryTemplates[t.name] = domain.QueryTemplateInfo{
			Name:          t.name,
			Definition:    t.def,
			Comment:       t.comment,
			SystemDefined: t.systemDefined,
		}
	}

	return cache
}

func loadTables(ctx context.Context, q domain.Querier) ([]tableRow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT table_schema, table_name, is_system_defined
		 FROM hdb_catalog.hdb_table`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []tableRow
	for rows.Next() {
		var r tableRow
		if err := rows.Scan(&r.table.Schema, &r.table.Name, &r.systemDefined); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func loadRelationships(ctx context.Context, q domain.Querier) ([]relRow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT table_schema, table_name, rel_name, rel_type, rel_def, comment, is_system_defined
		 FROM hdb_catalog.hdb_relationship`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []relRow
	for rows.Next() {
		var (
			r   relRow
			def string
			c   sql.NullString
		)
		if err := rows.Scan(&r.table.Schema, &r.table.Name, &r.name, &r.relType, &def, &c, &r.systemDefined); err != nil {
			return nil, err
		}
		r.def = json.RawMessage(def)
		if c.Valid {
			r.comment = &c.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func loadPermissions(ctx context.Context, q domain.Querier) ([]permRow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT table_schema, table_name, role_name, perm_type, perm_def, comment, is_system_defined
		 FROM hdb_catalog.hdb_permission`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []permRow
	for rows.Next() {
		var (
			r   permRow
			def string
			c   sql.NullString
		)
		if err := rows.Scan(&r.table.Schema, &r.table.Name, &r.role, &r.permType, &def, &c, &r.systemDefined); err != nil {
			return nil, err
		}
		r.def = json.RawMessage(def)
		if c.Valid {
			r.comment = &c.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func loadTemplates(ctx context.Context, q domain.Querier) ([]templateRow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT template_name, template_defn, comment, is_system_defined
		 FROM hdb_catalog.hdb_query_template`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []templateRow
	for rows.Next() {
		var (
			r   templateRow
			def string
			c   sql.NullString
		)
		if err := rows.Scan(&r.name, &def, &c, &r.systemDefined); err != nil {
			return nil, err
		}
		r.def = json.RawMessage(def)
		if c.Valid {
			r.comment = &c.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

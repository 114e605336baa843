package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"graphmeta/internal/db"
	"graphmeta/internal/domain"
)

// successResult is the payload mutating actions return.
var successResult = []byte(`{"message":"success"}`)

// Builder compiles decoded admin queries into transactional registry actions.
type Builder struct{}

var _ domain.ActionBuilder = (*Builder)(nil)

// NewBuilder creates a Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build validates the query against the supplied cache and returns the action
// that applies it. Validation failures surface before any statement runs.
func (b *Builder) Build(q *domain.AdminQuery, cache *domain.SchemaCache, id domain.Identity) (domain.Action, error) {
	switch q.Type {
	case domain.QTTrackTable:
		return b.buildTrackTable(q.TrackTable, cache)
	case domain.QTUntrackTable:
		return b.buildUntrackTable(q.UntrackTable, cache)
	case domain.QTCreateObjectRelationship:
		return b.buildCreateRelationship(q.CreateObjectRelationship, "object", cache)
	case domain.QTCreateArrayRelationship:
		return b.buildCreateRelationship(q.CreateArrayRelationship, "array", cache)
	case domain.QTDropRelationship:
		return b.buildDropRelationship(q.DropRelationship, cache)
	case domain.QTCreateSelectPermission:
		return b.buildCreatePermission(q.CreateSelectPermission, "select", cache)
	case domain.QTDropPermission:
		return b.buildDropPermission(q.DropPermission, cache)
	case domain.QTCreateQueryTemplate:
		return b.buildCreateQueryTemplate(q.CreateQueryTemplate, cache)
	case domain.QTDropQueryTemplate:
		return b.buildDropQueryTemplate(q.DropQueryTemplate, cache)
	case domain.QTBulk:
		return b.buildBulk(q.Bulk, cache, id)
	default:
		return nil, domain.ErrDecode("unknown admin query type %q", q.Type)
	}
}

// actionFunc adapts a closure to the Action interface.
type actionFunc func(ctx context.Context, tx domain.Querier) ([]byte, error)

func (f actionFunc) Run(ctx context.Context, tx domain.Querier) ([]byte, error) {
	return f(ctx, tx)
}

func (b *Builder) buildTrackTable(args *domain.TrackTableArgs, cache *domain.SchemaCache) (domain.Action, error) {
	if err := args.Table.Validate(); err != nil {
		return nil, err
	}
	if cache.TrackedTable(args.Table) != nil {
		return nil, domain.ErrConflict("table %s is already tracked", args.Table)
	}
	table := args.Table
	return actionFunc(func(ctx context.Context, tx domain.Querier) ([]byte, error) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO hdb_catalog.hdb_table (table_schema, table_name) VALUES ($1, $2)`,
			table.Schema, table.Name)
		if err != nil {
			return nil, db.MapError(fmt.Sprintf("track table %s", table), err)
		}
		return successResult, nil
	}), nil
}

func (b *Builder) buildUntrackTable(args *domain.UntrackTableArgs, cache *domain.SchemaCache) (domain.Action, error) {
	if err := args.Table.Validate(); err != nil {
		return nil, err
	}
	info := cache.TrackedTable(args.Table)
	if info == nil {
		return nil, domain.ErrNotFound("table %s is not tracked", args.Table)
	}
	if info.SystemDefined {
		return nil, domain.ErrValidation("table %s is system-defined and cannot be untracked", args.Table)
	}
	if n := len(info.Relationships) + len(info.Permissions); n > 0 {
		return nil, domain.ErrValidation(
			"cannot untrack %s: %d dependent relationships/permissions exist", args.Table, n)
	}
	table := args.Table
	return actionFunc(func(ctx context.Context, tx domain.Querier) ([]byte, error) {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM hdb_catalog.hdb_table WHERE table_schema = $1 AND table_name = $2`,
			table.Schema, table.Name)
		if err != nil {
			return nil, db.MapError(fmt.Sprintf("untrack table %s", table), err)
		}
		return successResult, nil
	}), nil
}

func (b *Builder) buildCreateRelationship(args *domain.CreateRelationshipArgs, relType string, cache *domain.SchemaCache) (domain.Action, error) {
	if err := args.Table.Validate(); err != nil {
		return nil, err
	}
	if args.Name == "" {
		return nil, domain.ErrValidation("relationship name is required")
	}
	if len(args.Using) == 0 {
		return nil, domain.ErrValidation("relationship definition (\"using\") is required")
	}
	info := cache.TrackedTable(args.Table)
	if info == nil {
		return nil, domain.ErrNotFound("table %s is not tracked", args.Table)
	}
	if _, exists := info.Relationships[args.Name]; exists {
		return nil, domain.ErrConflict("relationship %q already exists on %s", args.Name, args.Table)
	}
	table, name, def, comment := args.Table, args.Name, string(args.Using), args.Comment
	return actionFunc(func(ctx context.Context, tx domain.Querier) ([]byte, error) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO hdb_catalog.hdb_relationship
			   (table_schema, table_name, rel_name, rel_type, rel_def, comment)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			table.Schema, table.Name, name, relType, def, comment)
		if err != nil {
			return nil, db.MapError(fmt.Sprintf("create %s relationship %q on %s", relType, name, table), err)
		}
		return successResult, nil
	}), nil
}

func (b *Builder) buildDropRelationship(args *domain.DropRelationshipArgs, cache *domain.SchemaCache) (domain.Action, error) {
	if err := args.Table.Validate(); err != nil {
		return nil, err
	}
	info := cache.TrackedTable(args.Table)
	if info == nil {
		return nil, domain.ErrNotFound("table %s is not tracked", args.Table)
	}
	rel, exists := info.Relationships[args.Relationship]
	if !exists {
		return nil, domain.ErrNotFound("relationship %q does not exist on %s", args.Relationship, args.Table)
	}
	if rel.SystemDefined {
		return nil, domain.ErrValidation("relationship %q is system-defined and cannot be dropped", args.Relationship)
	}
	table, name := args.Table, args.Relationship
	return actionFunc(func(ctx context.Context, tx domain.Querier) ([]byte, error) {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM hdb_catalog.hdb_relationship
			 WHERE table_schema = $1 AND table_name = $2 AND rel_name = $3`,
			table.Schema, table.Name, name)
		if err != nil {
			return nil, db.MapError(fmt.Sprintf("drop relationship %q on %s", name, table), err)
		}
		return successResult, nil
	}), nil
}

func (b *Builder) buildCreatePermission(args *domain.CreatePermissionArgs, permType string, cache *domain.SchemaCache) (domain.Action, error) {
	if err := args.Table.Validate(); err != nil {
		return nil, err
	}
	if args.Role == "" {
		return nil, domain.ErrValidation("role is required")
	}
	if len(args.Permission) == 0 {
		return nil, domain.ErrValidation("permission definition is required")
	}
	info := cache.TrackedTable(args.Table)
	if info == nil {
		return nil, domain.ErrNotFound("table %s is not tracked", args.Table)
	}
	for _, p := range info.Permissions {
		if p.Role == args.Role && p.Type == permType {
			return nil, domain.ErrConflict("%s permission for role %q already exists on %s", permType, args.Role, args.Table)
		}
	}
	table, role, def, comment := args.Table, args.Role, string(args.Permission), args.Comment
	return actionFunc(func(ctx context.Context, tx domain.Querier) ([]byte, error) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO hdb_catalog.hdb_permission
			   (table_schema, table_name, role_name, perm_type, perm_def, comment)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			table.Schema, table.Name, role, permType, def, comment)
		if err != nil {
			return nil, db.MapError(fmt.Sprintf("create %s permission for %q on %s", permType, role, table), err)
		}
		return successResult, nil
	}), nil
}

func (b *Builder) buildDropPermission(args *domain.DropPermissionArgs, cache *domain.SchemaCache) (domain.Action, error) {
	if err := args.Table.Validate(); err != nil {
		return nil, err
	}
	switch args.Type {
	case "select", "insert", "update", "delete":
	default:
		return nil, domain.ErrValidation("unknown permission type %q", args.Type)
	}
	info := cache.TrackedTable(args.Table)
	if info == nil {
		return nil, domain.ErrNotFound("table %s is not tracked", args.Table)
	}
	var found *domain.PermissionInfo
	for i := range info.Permissions {
		p := &info.Permissions[i]
		if p.Role == args.Role && p.Type == args.Type {
			found = p
			break
		}
	}
	if found == nil {
		return nil, domain.ErrNotFound("%s permission for role %q does not exist on %s", args.Type, args.Role, args.Table)
	}
	if found.SystemDefined {
		return nil, domain.ErrValidation("permission is system-defined and cannot be dropped")
	}
	table, role, permType := args.Table, args.Role, args.Type
	return actionFunc(func(ctx context.Context, tx domain.Querier) ([]byte, error) {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM hdb_catalog.hdb_permission
			 WHERE table_schema = $1 AND table_name = $2 AND role_name = $3 AND perm_type = $4`,
			table.Schema, table.Name, role, permType)
		if err != nil {
			return nil, db.MapError(fmt.Sprintf("drop %s permission for %q on %s", permType, role, table), err)
		}
		return successResult, nil
	}), nil
}

func (b *Builder) buildCreateQueryTemplate(args *domain.CreateQueryTemplateArgs, cache *domain.SchemaCache) (domain.Action, error) {
	if args.Name == "" {
		return nil, domain.ErrValidation("template name is required")
	}
	if len(args.Template) == 0 {
		return nil, domain.ErrValidation("template definition is required")
	}
	if _, exists := cache.QueryTemplates[args.Name]; exists {
		return nil, domain.ErrConflict("query template %q already exists", args.Name)
	}
	name, def, comment := args.Name, string(args.Template), args.Comment
	return actionFunc(func(ctx context.Context, tx domain.Querier) ([]byte, error) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO hdb_catalog.hdb_query_template (template_name, template_defn, comment)
			 VALUES ($1, $2, $3)`,
			name, def, comment)
		if err != nil {
			return nil, db.MapError(fmt.Sprintf("create query template %q", name), err)
		}
		return successResult, nil
	}), nil
}

func (b *Builder) buildDropQueryTemplate(args *domain.DropQueryTemplateArgs, cache *domain.SchemaCache) (domain.Action, error) {
	tmpl, exists := cache.QueryTemplates[args.Name]
	if !exists {
		return nil, domain.ErrNotFound("query template %q does not exist", args.Name)
	}
	if tmpl.SystemDefined {
		return nil, domain.ErrValidation("query template %q is system-defined and cannot be dropped", args.Name)
	}
	name := args.Name
	return actionFunc(func(ctx context.Context, tx domain.Querier) ([]byte, error) {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM hdb_catalog.hdb_query_template WHERE template_name = $1`, name)
		if err != nil {
			return nil, db.MapError(fmt.Sprintf("drop query template %q", name), err)
		}
		return successResult, nil
	}), nil
}

// buildBulk validates and compiles every sub-query up front, then runs them in
// order inside the caller's transaction. Results are collected into a JSON
// array. Validation uses the cache snapshot the bulk started with.
func (b *Builder) buildBulk(items []domain.AdminQuery, cache *domain.SchemaCache, id domain.Identity) (domain.Action, error) {
	actions := make([]domain.Action, 0, len(items))
	for i := range items {
		a, err := b.Build(&items[i], cache, id)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actionFunc(func(ctx context.Context, tx domain.Querier) ([]byte, error) {
		results := make([]json.RawMessage, 0, len(actions))
		for _, a := range actions {
			out, err := a.Run(ctx, tx)
			if err != nil {
				return nil, err
			}
			results = append(results, out)
		}
		return json.Marshal(results)
	}), nil
}

package domain

import "encoding/json"

// RelationshipInfo is one row of the relationship registry, projected.
type RelationshipInfo struct {
	Name          string
	Type          string // "object" or "array"
	Definition    json.RawMessage
	Comment       *string
	SystemDefined bool
}

// PermissionInfo is one row of the permission registry, projected.
type PermissionInfo struct {
	Role          string
	Type          string // "select", "insert", "update", "delete"
	Definition    json.RawMessage
	Comment       *string
	SystemDefined bool
}

// TableInfo is the cached projection of one tracked table and its dependents.
type TableInfo struct {
	Table         QualifiedTable
	SystemDefined bool
	Relationships map[string]RelationshipInfo
	Permissions   []PermissionInfo
}

// QueryTemplateInfo is one row of the query-template registry, projected.
type QueryTemplateInfo struct {
	Name          string
	Definition    json.RawMessage
	Comment       *string
	SystemDefined bool
}

// SchemaCache is the in-memory projection of the catalog metadata tables.
// It is derived state with no independent lifetime: it must be treated as
// stale immediately after any metadata mutation and rebuilt fresh by each
// operation that needs it. A cache reflects only what was committed at the
// moment it was built.
type SchemaCache struct {
	Tables         map[QualifiedTable]*TableInfo
	QueryTemplates map[string]QueryTemplateInfo
}

// NewSchemaCache returns an empty cache, the starting value the bootstrap
// registration step supplies before the catalog has any metadata.
func NewSchemaCache() *SchemaCache {
	return &SchemaCache{
		Tables:         make(map[QualifiedTable]*TableInfo),
		QueryTemplates: make(map[string]QueryTemplateInfo),
	}
}

// TrackedTable returns the cached info for a tracked table, or nil.
func (c *SchemaCache) TrackedTable(t QualifiedTable) *TableInfo {
	return c.Tables[t]
}

// AddTable registers a table in the cache projection.
func (c *SchemaCache) AddTable(t QualifiedTable, systemDefined bool) *TableInfo {
	info := &TableInfo{
		Table:         t,
		SystemDefined: systemDefined,
		Relationships: make(map[string]RelationshipInfo),
	}
	c.Tables[t] = info
	return info
}

package schemacache

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphmeta/internal/domain"
)

func qt(schema, name string) domain.QualifiedTable {
	return domain.QualifiedTable{Schema: schema, Name: name}
}

func TestAssemble(t *testing.T) {
	comment := "users of the platform"
	tables := []tableRow{
		{table: qt("public", "users")},
		{table: qt("hdb_catalog", "hdb_table"), systemDefined: true},
	}
	rels := []relRow{
		{
			table:   qt("public", "users"),
			name:    "orders",
			relType: "array",
			def:     json.RawMessage(`{"foreign_key_constraint_on":{"table":"orders","column":"user_id"}}`),
			comment: &comment,
		},
	}
	perms := []permRow{
		{
			table:    qt("public", "users"),
			role:     "viewer",
			permType: "select",
			def:      json.RawMessage(`{"columns":["id","name"]}`),
		},
	}
	templates := []templateRow{
		{name: "recent_users", def: json.RawMessage(`{"type":"select","args":{}}`), systemDefined: false},
	}

	cache := assemble(tables, rels, perms, templates)

	require.Len(t, cache.Tables, 2)
	assert.True(t, cache.TrackedTable(qt("hdb_catalog", "hdb_table")).SystemDefined)

	users := cache.TrackedTable(qt("public", "users"))
	require.NotNil(t, users)
	assert.False(t, users.SystemDefined)

	rel, ok := users.Relationships["orders"]
	require.True(t, ok)
	assert.Equal(t, "array", rel.Type)
	require.NotNil(t, rel.Comment)
	assert.Equal(t, comment, *rel.Comment)

	require.Len(t, users.Permissions, 1)
	assert.Equal(t, "viewer", users.Permissions[0].Role)
	assert.Equal(t, "select", users.Permissions[0].Type)

	tmpl, ok := cache.QueryTemplates["recent_users"]
	require.True(t, ok)
	assert.JSONEq(t, `{"type":"select","args":{}}`, string(tmpl.Definition))
}

func TestAssemble_SkipsRowsForUntrackedTables(t *testing.T) {
	rels := []relRow{
		{table: qt("public", "ghost"), name: "orders", relType: "array"},
	}
	perms := []permRow{
		{table: qt("public", "ghost"), role: "viewer", permType: "select"},
	}

	cache := assemble(nil, rels, perms, nil)

	assert.Empty(t, cache.Tables)
	assert.Empty(t, cache.QueryTemplates)
}

func TestAssemble_Empty(t *testing.T) {
	cache := assemble(nil, nil, nil, nil)

	require.NotNil(t, cache)
	assert.Empty(t, cache.Tables)
	assert.Empty(t, cache.QueryTemplates)
}

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphmeta/internal/domain"
)

// fakeQuerier records executed statements. Query paths are unused by the
// registry actions and fail loudly if reached.
type fakeQuerier struct {
	execs   []execCall
	execErr error
}

type execCall struct {
	query string
	args  []any
}

type fakeResult struct{}

func (fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (fakeResult) RowsAffected() (int64, error) { return 1, nil }

func (f *fakeQuerier) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.execs = append(f.execs, execCall{query: query, args: args})
	if f.execErr != nil {
		return nil, f.execErr
	}
	return fakeResult{}, nil
}

func (f *fakeQuerier) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errors.New("unexpected QueryContext")
}

func (f *fakeQuerier) QueryRowContext(context.Context, string, ...any) *sql.Row {
	panic("unexpected QueryRowContext")
}

func userTable() domain.QualifiedTable {
	return domain.QualifiedTable{Schema: "app", Name: "users"}
}

// cacheWithUsers returns a cache where app.users is tracked.
func cacheWithUsers() *domain.SchemaCache {
	cache := domain.NewSchemaCache()
	cache.AddTable(userTable(), false)
	return cache
}

func mustBuild(t *testing.T, q *domain.AdminQuery, cache *domain.SchemaCache) domain.Action {
	t.Helper()
	action, err := NewBuilder().Build(q, cache, domain.AdminIdentity())
	require.NoError(t, err)
	return action
}

func TestTrackTable(t *testing.T) {
	q := &domain.AdminQuery{
		Type:       domain.QTTrackTable,
		TrackTable: &domain.TrackTableArgs{Table: userTable()},
	}
	action := mustBuild(t, q, domain.NewSchemaCache())

	tx := &fakeQuerier{}
	out, err := action.Run(context.Background(), tx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"success"}`, string(out))

	require.Len(t, tx.execs, 1)
	assert.Contains(t, tx.execs[0].query, "INSERT INTO hdb_catalog.hdb_table")
	assert.Equal(t, []any{"app", "users"}, tx.execs[0].args)
}

func TestTrackTable_AlreadyTracked(t *testing.T) {
	q := &domain.AdminQuery{
		Type:       domain.QTTrackTable,
		TrackTable: &domain.TrackTableArgs{Table: userTable()},
	}
	_, err := NewBuilder().Build(q, cacheWithUsers(), domain.AdminIdentity())

	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestUntrackTable(t *testing.T) {
	q := &domain.AdminQuery{
		Type:         domain.QTUntrackTable,
		UntrackTable: &domain.UntrackTableArgs{Table: userTable()},
	}
	action := mustBuild(t, q, cacheWithUsers())

	tx := &fakeQuerier{}
	_, err := action.Run(context.Background(), tx)
	require.NoError(t, err)
	require.Len(t, tx.execs, 1)
	assert.Contains(t, tx.execs[0].query, "DELETE FROM hdb_catalog.hdb_table")
}

func TestUntrackTable_NotTracked(t *testing.T) {
	q := &domain.AdminQuery{
		Type:         domain.QTUntrackTable,
		UntrackTable: &domain.UntrackTableArgs{Table: userTable()},
	}
	_, err := NewBuilder().Build(q, domain.NewSchemaCache(), domain.AdminIdentity())

	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestUntrackTable_SystemDefined(t *testing.T) {
	cache := domain.NewSchemaCache()
	table := domain.QualifiedTable{Schema: "hdb_catalog", Name: "hdb_table"}
	cache.AddTable(table, true)

	q := &domain.AdminQuery{
		Type:         domain.QTUntrackTable,
		UntrackTable: &domain.UntrackTableArgs{Table: table},
	}
	_, err := NewBuilder().Build(q, cache, domain.AdminIdentity())

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, err.Error(), "system-defined")
}

func TestUntrackTable_WithDependents(t *testing.T) {
	cache := cacheWithUsers()
	cache.TrackedTable(userTable()).Relationships["orders"] = domain.RelationshipInfo{
		Name: "orders", Type: "array",
	}

	q := &domain.AdminQuery{
		Type:         domain.QTUntrackTable,
		UntrackTable: &domain.UntrackTableArgs{Table: userTable()},
	}
	_, err := NewBuilder().Build(q, cache, domain.AdminIdentity())

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, err.Error(), "dependent")
}

func TestCreateRelationship(t *testing.T) {
	q := &domain.AdminQuery{
		Type: domain.QTCreateObjectRelationship,
		CreateObjectRelationship: &domain.CreateRelationshipArgs{
			Table: userTable(),
			Name:  "profile",
			Using: json.RawMessage(`{"foreign_key_constraint_on": "profile_id"}`),
		},
	}
	action := mustBuild(t, q, cacheWithUsers())

	tx := &fakeQuerier{}
	_, err := action.Run(context.Background(), tx)
	require.NoError(t, err)
	require.Len(t, tx.execs, 1)
	assert.Contains(t, tx.execs[0].query, "INSERT INTO hdb_catalog.hdb_relationship")
	assert.Equal(t, "object", tx.execs[0].args[3])
}

func TestCreateRelationship_UntrackedTable(t *testing.T) {
	q := &domain.AdminQuery{
		Type: domain.QTCreateArrayRelationship,
		CreateArrayRelationship: &domain.CreateRelationshipArgs{
			Table: userTable(),
			Name:  "orders",
			Using: json.RawMessage(`{}`),
		},
	}
	_, err := NewBuilder().Build(q, domain.NewSchemaCache(), domain.AdminIdentity())

	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestCreateRelationship_Duplicate(t *testing.T) {
	cache := cacheWithUsers()
	cache.TrackedTable(userTable()).Relationships["profile"] = domain.RelationshipInfo{Name: "profile"}

	q := &domain.AdminQuery{
		Type: domain.QTCreateObjectRelationship,
		CreateObjectRelationship: &domain.CreateRelationshipArgs{
			Table: userTable(),
			Name:  "profile",
			Using: json.RawMessage(`{}`),
		},
	}
	_, err := NewBuilder().Build(q, cache, domain.AdminIdentity())

	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestDropRelationship_SystemDefined(t *testing.T) {
	cache := cacheWithUsers()
	cache.TrackedTable(userTable()).Relationships["audit"] = domain.RelationshipInfo{
		Name: "audit", SystemDefined: true,
	}

	q := &domain.AdminQuery{
		Type: domain.QTDropRelationship,
		DropRelationship: &domain.DropRelationshipArgs{
			Table: userTable(), Relationship: "audit",
		},
	}
	_, err := NewBuilder().Build(q, cache, domain.AdminIdentity())

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestCreatePermission_DuplicateRoleAndType(t *testing.T) {
	cache := cacheWithUsers()
	info := cache.TrackedTable(userTable())
	info.Permissions = append(info.Permissions, domain.PermissionInfo{Role: "viewer", Type: "select"})

	q := &domain.AdminQuery{
		Type: domain.QTCreateSelectPermission,
		CreateSelectPermission: &domain.CreatePermissionArgs{
			Table: userTable(), Role: "viewer", Permission: json.RawMessage(`{}`),
		},
	}
	_, err := NewBuilder().Build(q, cache, domain.AdminIdentity())

	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestDropPermission_UnknownType(t *testing.T) {
	q := &domain.AdminQuery{
		Type: domain.QTDropPermission,
		DropPermission: &domain.DropPermissionArgs{
			Table: userTable(), Role: "viewer", Type: "grant",
		},
	}
	_, err := NewBuilder().Build(q, cacheWithUsers(), domain.AdminIdentity())

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestDropPermission_Missing(t *testing.T) {
	q := &domain.AdminQuery{
		Type: domain.QTDropPermission,
		DropPermission: &domain.DropPermissionArgs{
			Table: userTable(), Role: "viewer", Type: "select",
		},
	}
	_, err := NewBuilder().Build(q, cacheWithUsers(), domain.AdminIdentity())

	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestQueryTemplateLifecycleValidation(t *testing.T) {
	cache := domain.NewSchemaCache()
	cache.QueryTemplates["recent"] = domain.QueryTemplateInfo{Name: "recent"}

	dup := &domain.AdminQuery{
		Type: domain.QTCreateQueryTemplate,
		CreateQueryTemplate: &domain.CreateQueryTemplateArgs{
			Name: "recent", Template: json.RawMessage(`{"table": "users"}`),
		},
	}
	_, err := NewBuilder().Build(dup, cache, domain.AdminIdentity())
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)

	missing := &domain.AdminQuery{
		Type:              domain.QTDropQueryTemplate,
		DropQueryTemplate: &domain.DropQueryTemplateArgs{Name: "nope"},
	}
	_, err = NewBuilder().Build(missing, cache, domain.AdminIdentity())
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestBulk_RunsInOrder(t *testing.T) {
	q := &domain.AdminQuery{
		Type: domain.QTBulk,
		Bulk: []domain.AdminQuery{
			{Type: domain.QTTrackTable, TrackTable: &domain.TrackTableArgs{
				Table: domain.QualifiedTable{Schema: "app", Name: "users"},
			}},
			{Type: domain.QTTrackTable, TrackTable: &domain.TrackTableArgs{
				Table: domain.QualifiedTable{Schema: "app", Name: "orders"},
			}},
		},
	}
	action := mustBuild(t, q, domain.NewSchemaCache())

	tx := &fakeQuerier{}
	out, err := action.Run(context.Background(), tx)
	require.NoError(t, err)

	require.Len(t, tx.execs, 2)
	assert.Equal(t, []any{"app", "users"}, tx.execs[0].args)
	assert.Equal(t, []any{"app", "orders"}, tx.execs[1].args)

	var results []json.RawMessage
	require.NoError(t, json.Unmarshal(out, &results))
	assert.Len(t, results, 2)
}

func TestBulk_InvalidItemFailsBuild(t *testing.T) {
	q := &domain.AdminQuery{
		Type: domain.QTBulk,
		Bulk: []domain.AdminQuery{
			{Type: domain.QTTrackTable, TrackTable: &domain.TrackTableArgs{}},
		},
	}
	_, err := NewBuilder().Build(q, domain.NewSchemaCache(), domain.AdminIdentity())

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestActionStoreErrorIsMapped(t *testing.T) {
	q := &domain.AdminQuery{
		Type:       domain.QTTrackTable,
		TrackTable: &domain.TrackTableArgs{Table: userTable()},
	}
	action := mustBuild(t, q, domain.NewSchemaCache())

	tx := &fakeQuerier{execErr: errors.New("connection reset")}
	_, err := action.Run(context.Background(), tx)

	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Contains(t, err.Error(), "app.users")
}

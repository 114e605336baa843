package domain

import (
	"context"
	"database/sql"
)

// Querier is the subset of *sql.DB / *sql.Tx the engine components issue
// statements through. Operations that must be transactional receive a *sql.Tx
// behind this interface, so every statement shares the enclosing scope.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SchemaCacheRebuilder recomputes the in-memory projection of the catalog
// metadata tables. The engine calls it after mutations; it never caches the
// result across calls.
type SchemaCacheRebuilder interface {
	Rebuild(ctx context.Context, q Querier) (*SchemaCache, error)
}

// Action is one transactional administrative operation, already validated
// against a schema cache and ready to run.
type Action interface {
	Run(ctx context.Context, tx Querier) ([]byte, error)
}

// ActionBuilder compiles a decoded admin query into a transactional action,
// using the supplied schema cache and identity.
type ActionBuilder interface {
	Build(q *AdminQuery, cache *SchemaCache, id Identity) (Action, error)
}

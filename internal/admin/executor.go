// Package admin executes administrative metadata operations against a
// consistent, freshly rebuilt projection of the catalog.
package admin

import (
	"context"
	"database/sql"
	"log/slog"

	"graphmeta/internal/db"
	"graphmeta/internal/domain"
)

// Executor decodes admin query payloads and runs them transactionally.
//
// Execute may run concurrently with itself: every call re-derives the schema
// cache inside its own transaction instead of trusting a shared copy, so each
// call sees exactly what was committed at the moment its cache was built.
type Executor struct {
	pool      *sql.DB
	builder   domain.ActionBuilder
	rebuilder domain.SchemaCacheRebuilder
	logger    *slog.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(pool *sql.DB, builder domain.ActionBuilder, rebuilder domain.SchemaCacheRebuilder, logger *slog.Logger) *Executor {
	return &Executor{
		pool:      pool,
		builder:   builder,
		rebuilder: rebuilder,
		logger:    logger,
	}
}

// Execute decodes rawPayload, rebuilds the schema cache from current catalog
// state, and runs the decoded query's action inside one transaction under the
// administrative identity. Malformed or unrecognised payloads are rejected
// before any transaction is opened.
func (e *Executor) Execute(ctx context.Context, rawPayload []byte) ([]byte, error) {
	q, err := domain.DecodeAdminQuery(rawPayload)
	if err != nil {
		return nil, err
	}

	var result []byte
	err = db.WithTx(ctx, e.pool, func(tx *sql.Tx) error {
		cache, err := e.rebuilder.Rebuild(ctx, tx)
		if err != nil {
			return err
		}
		out, err := e.Run(ctx, tx, q, cache)
		if err != nil {
			return err
		}
		result = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("admin query executed", "type", q.Type)
	return result, nil
}

// Run builds and runs the action for an already-decoded query against the
// supplied transaction and cache. The catalog bootstrap uses this entry point
// directly: registering the engine's own system tables goes through the same
// path as any other admin query, parameterised with the internal identity and
// an empty starting cache, because the catalog being populated is not yet
// cached anywhere.
func (e *Executor) Run(ctx context.Context, tx domain.Querier, q *domain.AdminQuery, cache *domain.SchemaCache) ([]byte, error) {
	action, err := e.builder.Build(q, cache, domain.AdminIdentity())
	if err != nil {
		return nil, err
	}
	return action.Run(ctx, tx)
}

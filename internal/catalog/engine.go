// Package catalog implements the catalog versioning and migration engine:
// bootstrapping the metadata catalog into existence, carrying it forward
// through version-specific migration steps, and tearing it down.
package catalog

import (
	"context"
	"database/sql"
	"log/slog"

	"graphmeta/internal/domain"
)

// Catalog schema names. The metadata schema is the durable source of truth;
// the generated-views schema holds derived views and triggers and is always
// safe to drop and regenerate.
const (
	MetadataSchema = "hdb_catalog"
	ViewsSchema    = "hdb_views"

	versionTable = "hdb_version"
)

// Operation result messages.
const (
	MsgInitialised        = "successfully initialised"
	MsgAlreadyInitialised = "already initialised"
	MsgMigrated           = "successfully migrated"
	MsgAlreadyLatest      = "already at the latest version"
)

// AdminRunner runs an already-decoded admin query inside the caller's
// transaction. The bootstrap registration step goes through this, so
// registering the engine's own system tables takes the same path as any
// externally submitted admin query.
type AdminRunner interface {
	Run(ctx context.Context, tx domain.Querier, q *domain.AdminQuery, cache *domain.SchemaCache) ([]byte, error)
}

// Engine is the catalog versioning and migration engine.
//
// Initialize, Migrate, and Clean are mutually exclusive in effect: the engine
// implements no locking for that exclusion, callers serialize administrative
// operations externally (advisory lock or single-writer deployment).
type Engine struct {
	pool      *sql.DB
	runner    AdminRunner
	rebuilder domain.SchemaCacheRebuilder
	logger    *slog.Logger

	target domain.Version
	paths  map[domain.Version][]Step
}

// Option customises an Engine.
type Option func(*Engine)

// WithVersionPlan overrides the target version and migration path table.
// The production plan is the default; tests use this to exercise alternate
// version chains.
func WithVersionPlan(target domain.Version, paths map[domain.Version][]Step) Option {
	return func(e *Engine) {
		e.target = target
		e.paths = paths
	}
}

// New creates an Engine targeting domain.CurrentVersion with the default
// migration path table.
func New(pool *sql.DB, runner AdminRunner, rebuilder domain.SchemaCacheRebuilder, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		pool:      pool,
		runner:    runner,
		rebuilder: rebuilder,
		logger:    logger,
		target:    domain.CurrentVersion,
	}
	e.paths = e.defaultPaths()
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TargetVersion returns the version this engine migrates catalogs to.
func (e *Engine) TargetVersion() domain.Version {
	return e.target
}

// CurrentVersion reads the recorded catalog version. It fails with
// CatalogUninitializedError when the catalog has no version row.
func (e *Engine) CurrentVersion(ctx context.Context) (domain.VersionRecord, error) {
	return ReadVersion(ctx, e.pool)
}

// Package db provides database connectivity helpers and transaction scoping.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"graphmeta/internal/domain"
)

// Pool sizing defaults for the metadata store. The catalog is a low-traffic
// control plane; a small pool is plenty.
const (
	defaultMaxOpen     = 8
	defaultConnTimeout = 5 * time.Second
)

// uniqueViolation is the SQLSTATE for duplicate-key errors.
const uniqueViolation = "23505"

// OpenPostgres opens a *sql.DB pool for the given Postgres DSN.
//
// The pool runs in the simple query protocol: the bundled DDL assets are
// multi-statement scripts, and only the simple protocol lets a single Exec
// carry more than one statement.
func OpenPostgres(dsn string, maxOpen int) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool := stdlib.OpenDB(*cfg)

	if maxOpen <= 0 {
		maxOpen = defaultMaxOpen
	}
	pool.SetMaxOpenConns(maxOpen)
	pool.SetMaxIdleConns(maxOpen)
	pool.SetConnMaxLifetime(time.Hour)

	// Verify the connection is usable.
	ctx, cancel := context.WithTimeout(context.Background(), defaultConnTimeout)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// MapError classifies a store-level failure into the engine's error taxonomy,
// attaching the phase it occurred in. Nil errors pass through.
func MapError(phase string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound("%s: no rows", phase)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolation {
			return domain.ErrConflict("%s: %s", phase, pgErr.Message)
		}
		return domain.ErrStore(phase, fmt.Errorf("%s (SQLSTATE %s)", pgErr.Message, pgErr.Code))
	}
	return domain.ErrStore(phase, err)
}

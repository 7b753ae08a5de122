// Package store persists parse runs and lookup snapshots in PostgreSQL.
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/ttparse/internal/core"
)

//go:embed schema.sql
var schema string

var (
	ErrRunNotFound    = errors.New("run not found")
	ErrLookupNotFound = errors.New("lookup not found")
)

// Store wraps a connection pool with the queries the service needs.
type Store struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// New returns a Store over pool. The pool stays owned by the caller.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Backend is the persistence surface the service depends on. *Store and
// *Memory implement it.
type Backend interface {
	SaveRun(ctx context.Context, run Run, res *core.ParseResult) error
	ListRuns(ctx context.Context, f RunFilter) ([]Run, error)
	GetRun(ctx context.Context, id uuid.UUID) (Run, *core.ParseResult, error)
	DeleteRun(ctx context.Context, id uuid.UUID) error
	SaveLookup(ctx context.Context, kind string, entries map[string]string) error
	LoadLookup(ctx context.Context, kind string) (map[string]string, error)
	Ping(ctx context.Context) error
}

var (
	_ Backend = (*Store)(nil)
	_ Backend = (*Memory)(nil)
)

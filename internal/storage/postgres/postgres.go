// Package postgres is a KeyValue backend storing records in a single
// kv_store table.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Ami2490/armeria/pkg/database"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the schema files for database.RunMigrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const (
	selectValue = `SELECT value FROM kv_store WHERE key = $1`
	upsertValue = `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
)

// Store implements storage.KeyValue with PostgreSQL.
type Store struct {
	db     DB
	tracer database.QueryTracer
}

// New returns a store over db. The tracer's System is forced to postgresql.
func New(db DB, tracer database.QueryTracer) *Store {
	tracer.System = "postgresql"
	return &Store{db: db, tracer: tracer}
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	ctx, end := s.tracer.Start(ctx, "kv.get", selectValue)
	defer func() { end(err) }()

	err = s.db.QueryRow(ctx, selectValue, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select kv %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts value under key.
func (s *Store) Set(ctx context.Context, key, value string) (err error) {
	ctx, end := s.tracer.Start(ctx, "kv.set", upsertValue)
	defer func() { end(err) }()

	if _, err = s.db.Exec(ctx, upsertValue, key, value); err != nil {
		return fmt.Errorf("upsert kv %s: %w", key, err)
	}
	return nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

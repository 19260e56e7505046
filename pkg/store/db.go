// Package store provides the Postgres-backed repositories for runs,
// documents, artifacts, evaluation results, pairwise comparisons, Elo
// ratings, generation tasks and combined outputs (spec.md §3/§6.5).
//
// There is no ORM here: pkg/jmoiron/sqlx scans rows directly into the
// pkg/models structs over a pgx connection pool, and golang-migrate
// applies the embedded SQL migrations on startup — the same
// embed+golang-migrate wiring the teacher uses, minus the Ent layer
// (Ent's value is its generated client, which this exercise cannot
// produce without running `go generate`).
package store

import (
	"context"
	stdsql "database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

// isNoRows reports whether err is sql.ErrNoRows, the sentinel sqlx.Get
// returns when a lookup query matches nothing — repositories translate it
// into an (ok bool) return rather than propagating a raw sql error.
func isNoRows(err error) bool {
	return errors.Is(err, stdsql.ErrNoRows)
}

//go:embed migrations
var migrationsFS embed.FS

// Config holds the connection-pool settings read from config.DatabaseYAMLConfig.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB wraps a sqlx connection pool. Repositories take a *DB; tests build
// one over a live pool or over a sqlmock connection.
type DB struct {
	*sqlx.DB
}

// Open connects to Postgres via pgx, configures the pool, and applies all
// pending embedded migrations.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	conn, err := sqlx.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	if err := runMigrations(conn.DB); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("store: run migrations: %w", err)
	}

	return &DB{DB: conn}, nil
}

// runMigrations applies every pending embedded SQL migration using
// golang-migrate, the same embed+iofs wiring the teacher uses for its Ent
// schema migrations.
func runMigrations(db *stdsql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create postgres driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "acm", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	// Close only the migration source; calling m.Close() would also close
	// the *sql.DB passed into postgres.WithInstance(), which the caller
	// still needs for every subsequent query.
	return sourceDriver.Close()
}

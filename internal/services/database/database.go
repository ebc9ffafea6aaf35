// Package database provides property store implementations backed by
// PostgreSQL and SQLite.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"property-valuation-engine/internal/config"
	"property-valuation-engine/internal/models"
)

// PropertyStore is the read-only property capability used by the engine.
// GetProperty returns (nil, nil) when no record matches.
type PropertyStore interface {
	GetProperty(ctx context.Context, accountNumber string) (*models.Property, error)
	QueryComparables(ctx context.Context, query models.ComparableQuery) ([]*models.Property, error)
	SearchByAddress(ctx context.Context, query string, limit int) ([]*models.Property, error)
	HealthCheck(ctx context.Context) error
	Close()
}

// Pool is the subset of pgxpool.Pool used by the Postgres store. It is
// satisfied by *pgxpool.Pool and pgxmock.PgxPoolIface.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// DB holds the database connection pool.
type DB struct {
	pool Pool
}

// New creates a new database connection.
func New(cfg *config.Config) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.PostgresURL())
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Configure pool settings
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &DB{pool: pool}, nil
}

// NewWithPool wraps an existing pool.
func NewWithPool(pool Pool) *DB {
	return &DB{pool: pool}
}

// Close closes the database connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// HealthCheck verifies database connectivity.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, sql string, args ...any) pgx.Row {
	return db.pool.QueryRow(ctx, sql, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return db.pool.Query(ctx, sql, args...)
}

// Open returns the property store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (PropertyStore, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres, "":
		db, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return NewPropertyRepository(db), nil
	case config.DriverSQLite:
		return NewSQLite(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

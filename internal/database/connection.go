package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config describes how to reach the word store
type Config struct {
	// Driver is DriverSQLite or DriverPostgres
	Driver string
	// Path is the SQLite file, ":memory:" for a private in-memory database
	Path string
	// URL is the PostgreSQL connection string
	URL string
}

// Connect opens the database, applies the schema and seeds the default words
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := Seed(ctx, db, DefaultWords()); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Open establishes a connection without touching the schema
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	switch cfg.Driver {
	case DriverSQLite, "sqlite", "":
		return openSQLite(ctx, cfg.Path)
	case DriverPostgres:
		if cfg.URL == "" {
			return nil, fmt.Errorf("postgres connection string is empty")
		}
		db, err := sqlx.ConnectContext(ctx, DriverPostgres, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to connect to postgres: %w", ErrStoreUnavailable, err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	if path == "" {
		path = filepath.Join("data", "wordcards.db")
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.ConnectContext(ctx, DriverSQLite, path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open sqlite: %w", ErrStoreUnavailable, err)
	}

	// SQLite doesn't support multiple writers, and every connection to
	// ":memory:" would otherwise see its own empty database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return db, nil
}

// Migrate creates the tables if they don't exist
func Migrate(ctx context.Context, db *sqlx.DB) error {
	statements := sqliteSchema
	if db.DriverName() == DriverPostgres {
		statements = postgresSchema
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

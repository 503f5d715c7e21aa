package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect identifies the database engine behind a catalog connection.
// Its value is the database/sql driver name.
type Dialect string

const (
	DialectSQLite Dialect = "sqlite3"
	DialectDuckDB Dialect = "duckdb"
)

// ParseDialect accepts a driver name and its common aliases.
func ParseDialect(s string) (Dialect, error) {
	switch s {
	case "sqlite3", "sqlite":
		return DialectSQLite, nil
	case "duckdb":
		return DialectDuckDB, nil
	default:
		return "", fmt.Errorf("unsupported catalog driver %q (want sqlite3 or duckdb)", s)
	}
}

// Open opens a database connection for introspection and seeding.
//
// SQLite connections are limited to a single open connection so that
// ":memory:" databases are shared between calls, and get a 5-second busy
// timeout plus foreign key enforcement. An empty DuckDB dsn opens an
// in-memory database.
func Open(ctx context.Context, dialect Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := applyPragmas(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	return db, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

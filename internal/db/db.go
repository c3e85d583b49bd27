// Package db opens the SQL databases that can back the board.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

// Dialect is the SQL flavour spoken by an open database.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect parses a dialect string.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unknown dialect: %s", s)
	}
}

// Placeholder returns the bind parameter for the 1-based index.
func (d Dialect) Placeholder(index int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", index)
	}
	return "?"
}

// Placeholders returns n comma separated bind parameters starting at 1.
func (d Dialect) Placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = d.Placeholder(i + 1)
	}
	return strings.Join(parts, ", ")
}

// DB is a database handle that remembers its dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Connect opens and pings the database.
func Connect(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	var driverName string
	switch dialect {
	case DialectSQLite:
		driverName = "sqlite"
	case DialectPostgres:
		driverName = "postgres"
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// A single connection keeps in-memory databases shared and avoids
		// SQLITE_BUSY between our own writers.
		sqlDB.SetMaxOpenConns(1)
		if _, err := sqlDB.ExecContext(ctx, `
			PRAGMA journal_mode = WAL;
			PRAGMA synchronous = NORMAL;
			PRAGMA busy_timeout = 5000;
		`); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("set pragmas: %w", err)
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	return &DB{DB: sqlDB, Dialect: dialect}, nil
}

package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		input   string
		want    Dialect
		wantErr bool
	}{
		{"sqlite", DialectSQLite, false},
		{"sqlite3", DialectSQLite, false},
		{"postgres", DialectPostgres, false},
		{"PostgreSQL", DialectPostgres, false},
		{"pg", DialectPostgres, false},
		{"mysql", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDialect(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?, ?, ?", DialectSQLite.Placeholders(3))
	assert.Equal(t, "$1, $2, $3", DialectPostgres.Placeholders(3))
	assert.Equal(t, "$4", DialectPostgres.Placeholder(4))
}

func TestConnectSQLite(t *testing.T) {
	ctx := context.Background()
	d, err := Connect(ctx, DialectSQLite, filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	defer func() { _ = d.Close() }()

	assert.Equal(t, DialectSQLite, d.Dialect)

	_, err = d.ExecContext(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)
	_, err = d.ExecContext(ctx, "INSERT INTO t (name) VALUES (?)", "hello")
	require.NoError(t, err)

	var name string
	require.NoError(t, d.QueryRowContext(ctx, "SELECT name FROM t WHERE id = 1").Scan(&name))
	assert.Equal(t, "hello", name)
}

func TestConnectUnsupported(t *testing.T) {
	_, err := Connect(context.Background(), Dialect("oracle"), "")
	assert.Error(t, err)
}

package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablero-backend/internal/analytics"
	"tablero-backend/internal/config"
	"tablero-backend/internal/sheet"
)

func TestOpenStoreMemory(t *testing.T) {
	cfg := &config.Config{StoreDriver: config.DriverMemory, SheetName: "Tasks"}

	sh, events, closeStore, err := openStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer closeStore()

	assert.IsType(t, &sheet.Memory{}, sh)
	assert.IsType(t, &analytics.LogRecorder{}, events)
	assert.Equal(t, "Tasks", sh.Name())
}

func TestOpenStoreSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		StoreDriver: config.DriverSQLite,
		SheetName:   "Board",
		SQLitePath:  filepath.Join(t.TempDir(), "board.db"),
	}

	sh, events, closeStore, err := openStore(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer closeStore()

	assert.IsType(t, &sheet.SQL{}, sh)
	assert.IsType(t, &analytics.SQLRecorder{}, events)

	require.NoError(t, sh.Append(ctx, []any{1, "t", "", "Backlog", "Medium", "", nil, nil, 1, false}))
	rows, err := sh.Rows(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	cfg := &config.Config{StoreDriver: "mongo", SheetName: "Tasks"}

	_, _, _, err := openStore(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "unknown dialect")
}

package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/internal/infrastructure/persistence/memory"
	"github.com/skillplay/skillplay-life/internal/infrastructure/persistence/sqlite"
)

func TestParseDriver(t *testing.T) {
	d, err := ParseDriver(" SQLite ")
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, d)

	_, err = ParseDriver("dynamo")
	assert.True(t, shared.IsValidation(err))
}

func TestOpen_Memory(t *testing.T) {
	kv, err := Open(context.Background(), Options{Driver: DriverMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, kv)
}

func TestOpen_SQLiteUnderDataDir(t *testing.T) {
	dir := t.TempDir()
	kv, err := Open(context.Background(), Options{Driver: DriverSQLite, DataDir: dir}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	require.IsType(t, &sqlite.Store{}, kv)
	_, err = os.Stat(filepath.Join(dir, sqlite.DefaultFileName))
	assert.NoError(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "floppy"}, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

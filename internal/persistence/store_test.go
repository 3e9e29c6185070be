package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, TableHonor, "1001", 42))
	require.NoError(t, store.Save(ctx, TableHonor, "1002", 7))
	require.NoError(t, store.Save(ctx, TableHonor, "1001", 50))

	// A fresh store must see what the first one persisted.
	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	records, err := reopened.Load(ctx, TableHonor)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.JSONEq(t, "50", string(records["1001"]))

	// The honor table keeps the legacy xp.json layout.
	raw, err := os.ReadFile(filepath.Join(dir, "honor.json"))
	require.NoError(t, err)
	var legacy map[string]int
	require.NoError(t, json.Unmarshal(raw, &legacy))
	assert.Equal(t, map[string]int{"1001": 50, "1002": 7}, legacy)
}

func TestFileStoreEmptyAndMissingFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skills.json"), nil, 0644))

	store, err := NewFileStore(dir)
	require.NoError(t, err)

	skills, err := store.Load(ctx, TableSkills)
	require.NoError(t, err)
	assert.Empty(t, skills)

	inv, err := store.Load(ctx, TableInventory)
	require.NoError(t, err)
	assert.Empty(t, inv)
}

func TestFileStoreFailedWriteKeepsState(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, TableHonor, "a", 1))

	err = store.Save(ctx, TableHonor, "b", func() {})
	require.Error(t, err)

	records, err := store.Load(ctx, TableHonor)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, Config{Driver: DriverSQLite, Dir: t.TempDir()})
	require.NoError(t, err)
	defer store.Close()

	type skills struct {
		Strength int `json:"strength"`
	}
	require.NoError(t, store.Save(ctx, TableSkills, "p1", skills{Strength: 3}))
	require.NoError(t, store.Save(ctx, TableSkills, "p1", skills{Strength: 4}))

	records, err := store.Load(ctx, TableSkills)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"strength":4}`, string(records["p1"]))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")

	_, err = Open(context.Background(), Config{Driver: DriverPostgres})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a dsn")
}

func TestSnapshotExportImport(t *testing.T) {
	ctx := context.Background()
	src, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, src.Save(ctx, TableHonor, "p1", 120))
	require.NoError(t, src.Save(ctx, TableRoles, "p1", []string{"Corporal"}))

	var buf bytes.Buffer
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	_, err = Export(ctx, src, &buf, now)
	require.NoError(t, err)

	snap, err := ReadSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, now, snap.CreatedAt)

	dst, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	n, err := Import(ctx, dst, snap)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	roles, err := dst.Load(ctx, TableRoles)
	require.NoError(t, err)
	assert.JSONEq(t, `["Corporal"]`, string(roles["p1"]))
}

func TestReadLegacyXP(t *testing.T) {
	xp, err := ReadLegacyXP(strings.NewReader(`{"819414821182242848": 35, "1": 5}`))
	require.NoError(t, err)
	assert.Equal(t, 35, xp["819414821182242848"])

	xp, err = ReadLegacyXP(strings.NewReader("  "))
	require.NoError(t, err)
	assert.Empty(t, xp)

	_, err = ReadLegacyXP(strings.NewReader("[1,2]"))
	assert.Error(t, err)
}

package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_MarkAndPersistRoundtrip(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, "run1", "longmemeval", "redis")
	require.NoError(t, m.LoadOrCreate())

	assert.False(t, m.ShouldSkip("item-1"))
	require.NoError(t, m.MarkInProgress("item-1"))
	assert.False(t, m.ShouldSkip("item-1"))
	require.NoError(t, m.MarkComplete("item-1"))
	assert.True(t, m.ShouldSkip("item-1"))

	path := filepath.Join(dir, "run1", "longmemeval-redis.json")
	assert.FileExists(t, path)
}

func TestManager_LoadOrCreate_ResumesFromDisk(t *testing.T) {
	dir := t.TempDir()
	m1 := NewManager(dir, "run1", "locomo", "inmemory")
	require.NoError(t, m1.LoadOrCreate())
	require.NoError(t, m1.MarkComplete("item-1"))
	require.NoError(t, m1.MarkFailed("item-2"))
	require.NoError(t, m1.MarkIngestDone())

	m2 := NewManager(dir, "run1", "locomo", "inmemory")
	require.NoError(t, m2.LoadOrCreate())
	assert.True(t, m2.ShouldSkip("item-1"))
	assert.False(t, m2.ShouldSkip("item-2")) // failed items are retried
	assert.True(t, m2.IngestDone())
}

func TestManager_LoadOrCreate_MissingFileIsNotError(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, "run-new", "locomo", "redis")
	require.NoError(t, m.LoadOrCreate())
	assert.False(t, m.ShouldSkip("anything"))
	assert.False(t, m.IngestDone())
}

func TestManager_Snapshot_IsIndependentCopy(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, "run1", "locomo", "redis")
	require.NoError(t, m.LoadOrCreate())
	require.NoError(t, m.MarkComplete("item-1"))

	snap := m.Snapshot()
	snap.Items["item-1"] = StatusFailed
	assert.True(t, m.ShouldSkip("item-1"))
}

package statefile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveIfChangedSkipsIdenticalContent(t *testing.T) {
	dir := t.TempDir()
	f := Open(dir)
	f.State.LastRootRevision = 5

	require.NoError(t, f.SaveIfChanged())
	data1, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)

	// Force Iteration back down so the next encode is byte-identical to
	// the last write, proving the no-op path is taken.
	f.State.Iteration--
	require.NoError(t, f.SaveIfChanged())

	data2, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Equal(t, data1, data2)
}

func TestStateRoundTripsJSON(t *testing.T) {
	dir := t.TempDir()
	f := Open(dir)
	f.State.LastRootRevision = 42
	f.State.LastScanned = 100
	require.NoError(t, f.SaveIfChanged())

	raw, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"last_root_revision":42`)
}

func TestLastScannedIsFormattedAsDateTimeString(t *testing.T) {
	dir := t.TempDir()
	f := Open(dir)
	stamp := time.Date(2026, 7, 30, 12, 34, 56, 0, time.Local)
	f.State.LastScanned = stamp.Unix()
	require.NoError(t, f.SaveIfChanged())

	raw, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"last_scanned":"2026-07-30 12:34:56"`)
}

func TestOnlineReflectsInStatusJSON(t *testing.T) {
	dir := t.TempDir()
	f := Open(dir)
	f.State.Online = true
	require.NoError(t, f.SaveIfChanged())

	raw, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"online":true`)
}

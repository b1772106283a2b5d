package errsink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndClear(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	require.NoError(t, s.Write("offline: dial tcp: connection refused"))

	data, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Equal(t, "offline: dial tcp: connection refused", string(data))

	require.NoError(t, s.Clear())
	_, err = os.Stat(filepath.Join(dir, fileName))
	assert.True(t, os.IsNotExist(err))
}

func TestClearOnAbsentFileIsNoop(t *testing.T) {
	s := New(t.TempDir())
	assert.NoError(t, s.Clear())
}

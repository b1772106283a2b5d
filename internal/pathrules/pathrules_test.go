package pathrules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExcludedBuiltins(t *testing.T) {
	l := New()

	assert.True(t, l.Excluded(""))
	assert.True(t, l.Excluded(".git/"))
	assert.True(t, l.Excluded("a/b/.DS_Store"))
	assert.True(t, l.Excluded("subsyncit.stop"))
	assert.True(t, l.Excluded("a/out.txt.clash_2020-01-01-00-00-00"))
	assert.False(t, l.Excluded("a/out.txt"))
	assert.False(t, l.Excluded("a/b/"))
}

func TestLoadAndMatch(t *testing.T) {
	l := New()
	skipped := l.Load(ParseLines(".*\\.txt\n.*\\.log\n"))
	require.Zero(t, skipped)

	assert.True(t, l.Excluded("a/a.txt"))
	assert.False(t, l.Excluded("a/a.zzz"))
	assert.True(t, l.Excluded("nested/deep/b.log"))
}

func TestLoadSkipsInvalidRegex(t *testing.T) {
	l := New()
	skipped := l.Load(ParseLines("(unterminated\nvalid.*\n"))
	assert.Equal(t, 1, skipped)
	assert.True(t, l.Excluded("x/valid123"))
}

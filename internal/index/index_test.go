package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Table {
	t.Helper()
	tbl, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { tbl.Close() })
	return tbl
}

func TestUpsertAndGet(t *testing.T) {
	tbl := openTest(t)

	row := &Row{Path: "a/b.txt", Kind: KindFile, RemoteSHA1: "deadbeef"}
	require.NoError(t, tbl.Upsert(row))

	got, err := tbl.Get("a/b.txt")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "deadbeef", got.RemoteSHA1)
	assert.Equal(t, 1, got.Depth)
	assert.True(t, got.InSubversion())

	missing, err := tbl.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpsertOverwritesExisting(t *testing.T) {
	tbl := openTest(t)

	require.NoError(t, tbl.Upsert(&Row{Path: "x", Kind: KindFile, RemoteSHA1: "one"}))
	require.NoError(t, tbl.Upsert(&Row{Path: "x", Kind: KindFile, RemoteSHA1: "two", Revision: 5}))

	got, err := tbl.Get("x")
	require.NoError(t, err)
	assert.Equal(t, "two", got.RemoteSHA1)
	assert.Equal(t, int64(5), got.Revision)
}

func TestSetInstructionAndByInstruction(t *testing.T) {
	tbl := openTest(t)

	require.NoError(t, tbl.Upsert(&Row{Path: "a", Kind: KindFile}))
	require.NoError(t, tbl.Upsert(&Row{Path: "b", Kind: KindFile}))
	require.NoError(t, tbl.SetInstruction("a", PendingPut))

	rows, err := tbl.ByInstruction(PendingPut)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].Path)

	idle, err := tbl.ByInstruction(Idle)
	require.NoError(t, err)
	require.Len(t, idle, 1)
	assert.Equal(t, "b", idle[0].Path)
}

func TestSetShasAndSizeClearsInstruction(t *testing.T) {
	tbl := openTest(t)

	require.NoError(t, tbl.Upsert(&Row{Path: "a", Kind: KindFile, Instruction: PendingGet}))
	require.NoError(t, tbl.SetShasAndSize("a", "rsha", "lsha", 123, 7))

	got, err := tbl.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "rsha", got.RemoteSHA1)
	assert.Equal(t, "lsha", got.LocalSHA1)
	assert.Equal(t, int64(123), got.SizeMtime)
	assert.Equal(t, int64(7), got.Revision)
	assert.Equal(t, Idle, got.Instruction)
}

func TestDelete(t *testing.T) {
	tbl := openTest(t)
	require.NoError(t, tbl.Upsert(&Row{Path: "a", Kind: KindFile}))
	require.NoError(t, tbl.Delete("a"))

	got, err := tbl.Get("a")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnderPrefixAtDepth(t *testing.T) {
	tbl := openTest(t)

	require.NoError(t, tbl.Upsert(&Row{Path: "dir/", Kind: KindDir}))
	require.NoError(t, tbl.Upsert(&Row{Path: "dir/a.txt", Kind: KindFile}))
	require.NoError(t, tbl.Upsert(&Row{Path: "dir/b.txt", Kind: KindFile}))
	require.NoError(t, tbl.Upsert(&Row{Path: "dir/sub/c.txt", Kind: KindFile}))
	require.NoError(t, tbl.Upsert(&Row{Path: "other/d.txt", Kind: KindFile}))

	children, err := tbl.UnderPrefixAtDepth("dir/", 1)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "dir/a.txt", children[0].Path)
	assert.Equal(t, "dir/b.txt", children[1].Path)
}

func TestCountAndAll(t *testing.T) {
	tbl := openTest(t)
	require.NoError(t, tbl.Upsert(&Row{Path: "a", Kind: KindFile}))
	require.NoError(t, tbl.Upsert(&Row{Path: "b", Kind: KindFile}))

	n, err := tbl.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := tbl.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

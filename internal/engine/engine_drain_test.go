package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subsyncit/subsyncit/internal/actionqueue"
	"github.com/subsyncit/subsyncit/internal/index"
)

func TestApplyEntryAddDirNewRow(t *testing.T) {
	e, _, _ := newTestEngine(t)

	require.NoError(t, e.applyEntry(actionqueue.Entry{Path: "sub/", Action: actionqueue.AddDir}))

	row, err := e.idx.Get("sub/")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, index.KindDir, row.Kind)
	assert.Equal(t, index.PendingMkcol, row.Instruction)
}

func TestApplyEntryAddFileSkipsRowsAlreadyInSubversion(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.idx.Upsert(&index.Row{Path: "a.txt", Kind: index.KindFile, RemoteSHA1: "abc"}))

	require.NoError(t, e.applyEntry(actionqueue.Entry{Path: "a.txt", Action: actionqueue.AddFile}))

	row, err := e.idx.Get("a.txt")
	require.NoError(t, err)
	assert.Equal(t, index.Idle, row.Instruction, "GET-triggered write looks like a local add; already-known rows aren't re-PUT")
}

func TestApplyEntryAddFileNewRowQueuesPut(t *testing.T) {
	e, _, _ := newTestEngine(t)

	require.NoError(t, e.applyEntry(actionqueue.Entry{Path: "a.txt", Action: actionqueue.AddFile}))

	row, err := e.idx.Get("a.txt")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, index.PendingPut, row.Instruction)
}

func TestApplyEntryChangeAlwaysQueuesPut(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.idx.Upsert(&index.Row{Path: "a.txt", Kind: index.KindFile, RemoteSHA1: "abc"}))

	require.NoError(t, e.applyEntry(actionqueue.Entry{Path: "a.txt", Action: actionqueue.Change}))

	row, err := e.idx.Get("a.txt")
	require.NoError(t, err)
	assert.Equal(t, index.PendingPut, row.Instruction)
}

func TestApplyEntryDeleteDiscardedWhenNeverReachedServer(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.idx.Upsert(&index.Row{Path: "a.txt", Kind: index.KindFile}))

	require.NoError(t, e.applyEntry(actionqueue.Entry{Path: "a.txt", Action: actionqueue.Delete}))

	row, err := e.idx.Get("a.txt")
	require.NoError(t, err)
	assert.Equal(t, index.Idle, row.Instruction)
}

func TestApplyEntryDeleteDiscardedWhenRowUnknown(t *testing.T) {
	e, _, _ := newTestEngine(t)

	require.NoError(t, e.applyEntry(actionqueue.Entry{Path: "never-seen.txt", Action: actionqueue.Delete}))

	row, err := e.idx.Get("never-seen.txt")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestApplyEntryDeleteQueuesRemoteDeleteWhenKnownRemotely(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.idx.Upsert(&index.Row{Path: "a.txt", Kind: index.KindFile, RemoteSHA1: "abc"}))

	require.NoError(t, e.applyEntry(actionqueue.Entry{Path: "a.txt", Action: actionqueue.Delete}))

	row, err := e.idx.Get("a.txt")
	require.NoError(t, err)
	assert.Equal(t, index.PendingDeleteRemote, row.Instruction)
}

func TestApplyEntryDeleteQueuesRemoteDeleteForDirWithRevision(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.idx.Upsert(&index.Row{Path: "sub/", Kind: index.KindDir, Revision: 7}))

	require.NoError(t, e.applyEntry(actionqueue.Entry{Path: "sub/", Action: actionqueue.Delete}))

	row, err := e.idx.Get("sub/")
	require.NoError(t, err)
	assert.Equal(t, index.PendingDeleteRemote, row.Instruction)
}

func TestDrainQueueToInstructionsReportsWhetherAnythingTouched(t *testing.T) {
	e, _, _ := newTestEngine(t)

	assert.False(t, e.drainQueueToInstructions())

	e.queue.Add("a.txt", actionqueue.AddFile)
	assert.True(t, e.drainQueueToInstructions())
}

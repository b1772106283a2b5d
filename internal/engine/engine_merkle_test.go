package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/subsyncit/subsyncit/internal/davclient"
	"github.com/subsyncit/subsyncit/internal/index"
)

func TestReconcileInboundSkipsWhenRevisionUnchanged(t *testing.T) {
	e, remote, _ := newTestEngine(t)
	ctx := context.Background()
	e.lastRootRevision = 10

	remote.On("SvnDetails", ctx, "").Return(davDetails(10, "", "/trunk"), nil).Once()

	require.NoError(t, e.reconcileInbound(ctx))
	remote.AssertExpectations(t)
	remote.AssertNotCalled(t, "SvnDirList", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileInboundWalksWhenRevisionChanged(t *testing.T) {
	e, remote, _ := newTestEngine(t)
	ctx := context.Background()
	e.lastRootRevision = 1
	e.repoParentPath = "/svn/repo/"
	e.baselineRelPath = "/trunk"

	remote.On("SvnDetails", ctx, "").Return(davDetails(2, "", "/trunk"), nil).Once()
	remote.On("SvnDirectoryRevision", ctx, "/svn/repo/", "").Return(2, nil).Once()
	remote.On("SvnDirList", ctx, "", "/trunk").Return([]davclient.DirEntry{
		{Path: "a.txt", Revision: 2, SHA1: "abc"},
	}, nil).Once()

	require.NoError(t, e.reconcileInbound(ctx))

	row, err := e.idx.Get("a.txt")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, index.PendingGet, row.Instruction)
	assert.Equal(t, int64(2), e.lastRootRevision)
	remote.AssertExpectations(t)
}

func TestWalkDirectoryPrunesUnchangedSubtree(t *testing.T) {
	e, remote, _ := newTestEngine(t)
	ctx := context.Background()
	e.repoParentPath = "/svn/repo/"
	require.NoError(t, e.idx.Upsert(&index.Row{Path: "sub/", Kind: index.KindDir, Revision: 5}))

	remote.On("SvnDirectoryRevision", ctx, "/svn/repo/", "sub/").Return(5, nil).Once()

	require.NoError(t, e.walkDirectory(ctx, "sub/"))

	remote.AssertExpectations(t)
	remote.AssertNotCalled(t, "SvnDirList", mock.Anything, mock.Anything, mock.Anything)
}

func TestWalkDirectoryMarksVanishedChildForLocalDelete(t *testing.T) {
	e, remote, _ := newTestEngine(t)
	ctx := context.Background()
	e.repoParentPath = "/svn/repo/"
	e.baselineRelPath = "/trunk"

	require.NoError(t, e.idx.Upsert(&index.Row{Path: "sub/", Kind: index.KindDir, Revision: 1}))
	require.NoError(t, e.idx.Upsert(&index.Row{Path: "sub/gone.txt", Kind: index.KindFile, RemoteSHA1: "abc"}))

	remote.On("SvnDirectoryRevision", ctx, "/svn/repo/", "sub/").Return(2, nil).Once()
	remote.On("SvnDirList", ctx, "sub/", "/trunk").Return([]davclient.DirEntry{}, nil).Once()

	require.NoError(t, e.walkDirectory(ctx, "sub/"))

	row, err := e.idx.Get("sub/gone.txt")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, index.PendingDeleteLocal, row.Instruction)
}

func TestWalkDirectoryRecursesIntoChangedChildDirectory(t *testing.T) {
	e, remote, _ := newTestEngine(t)
	ctx := context.Background()
	e.repoParentPath = "/svn/repo/"
	e.baselineRelPath = "/trunk"

	remote.On("SvnDirectoryRevision", ctx, "/svn/repo/", "").Return(3, nil).Once()
	remote.On("SvnDirList", ctx, "", "/trunk").Return([]davclient.DirEntry{
		{Path: "sub/", Revision: 1},
	}, nil).Once()
	remote.On("SvnDirectoryRevision", ctx, "/svn/repo/", "sub/").Return(1, nil).Once()
	remote.On("SvnDirList", ctx, "sub/", "/trunk").Return([]davclient.DirEntry{}, nil).Once()

	require.NoError(t, e.walkDirectory(ctx, ""))

	row, err := e.idx.Get("sub/")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, index.KindDir, row.Kind)
	remote.AssertExpectations(t)
}

package engine

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/subsyncit/subsyncit/internal/davclient"
)

// fakeRemote is a hand-written testify mock standing in for a live
// WebDAV/Subversion server, satisfying RemoteClient.
type fakeRemote struct {
	mock.Mock
}

func (f *fakeRemote) SvnDetails(ctx context.Context, relPath string) (davclient.Details, error) {
	args := f.Called(ctx, relPath)
	if args.Get(0) == nil {
		return davclient.Details{}, args.Error(1)
	}
	return args.Get(0).(davclient.Details), args.Error(1)
}

func (f *fakeRemote) SvnDirList(ctx context.Context, prefix string, svnBaselineRelPath string) ([]davclient.DirEntry, error) {
	args := f.Called(ctx, prefix, svnBaselineRelPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]davclient.DirEntry), args.Error(1)
}

func (f *fakeRemote) SvnDirectoryRevision(ctx context.Context, repoParentPath, relPath string) (int64, error) {
	args := f.Called(ctx, repoParentPath, relPath)
	return int64(args.Int(0)), args.Error(1)
}

func (f *fakeRemote) RepoParentPath(ctx context.Context) (string, error) {
	args := f.Called(ctx)
	return args.String(0), args.Error(1)
}

func (f *fakeRemote) Get(ctx context.Context, relPath string, w io.Writer) error {
	args := f.Called(ctx, relPath, w)
	if body, ok := args.Get(1).(string); ok {
		_, _ = w.Write([]byte(body))
	}
	return args.Error(0)
}

func (f *fakeRemote) Put(ctx context.Context, relPath string, body io.Reader, size int64) error {
	args := f.Called(ctx, relPath, body, size)
	return args.Error(0)
}

func (f *fakeRemote) Delete(ctx context.Context, relPath string) error {
	args := f.Called(ctx, relPath)
	return args.Error(0)
}

func (f *fakeRemote) Mkcol(ctx context.Context, relPath string) error {
	args := f.Called(ctx, relPath)
	return args.Error(0)
}

// Package engine implements the Reconciliation Engine: the state machine
// that drains the Action Queue into Index instructions, executes those
// instructions against the remote Subversion/WebDAV server, and walks
// remote directory revisions (a Merkle-tree surrogate) to discover inbound
// changes other clients committed.
package engine

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/subsyncit/subsyncit/internal/actionqueue"
	"github.com/subsyncit/subsyncit/internal/davclient"
	"github.com/subsyncit/subsyncit/internal/errsink"
	"github.com/subsyncit/subsyncit/internal/index"
	"github.com/subsyncit/subsyncit/internal/pathrules"
	"github.com/subsyncit/subsyncit/internal/scanner"
	"github.com/subsyncit/subsyncit/internal/statefile"
)

// batchSize caps how many rows a single execution sub-pass (GET/PUT/DELETE)
// touches per iteration, matching the Scanner's own per-invocation budget.
const batchSize = 100

// stabilityCheckDelay is how long the PUT phase waits between the two size
// reads used to detect "this file is still being written to".
const stabilityCheckDelay = 100 * time.Millisecond

// selfWriteNotifier is the subset of *watcher.Watcher the engine depends
// on, kept as an interface so the engine package doesn't import watcher
// (which itself depends on actionqueue and pathrules, not engine).
type selfWriteNotifier interface {
	ExpectSelfWrite(path string)
}

type noopNotifier struct{}

func (noopNotifier) ExpectSelfWrite(string) {}

// RemoteClient is the subset of *davclient.Client the engine depends on,
// kept as an interface so tests can exercise the reconciliation logic
// against a fake instead of a live WebDAV/Subversion server.
type RemoteClient interface {
	SvnDetails(ctx context.Context, relPath string) (davclient.Details, error)
	SvnDirList(ctx context.Context, prefix string, svnBaselineRelPath string) ([]davclient.DirEntry, error)
	SvnDirectoryRevision(ctx context.Context, repoParentPath, relPath string) (int64, error)
	RepoParentPath(ctx context.Context) (string, error)
	Get(ctx context.Context, relPath string, w io.Writer) error
	Put(ctx context.Context, relPath string, body io.Reader, size int64) error
	Delete(ctx context.Context, relPath string) error
	Mkcol(ctx context.Context, relPath string) error
}

// Config configures a new Engine.
type Config struct {
	LocalRoot     string
	SleepInterval time.Duration
	ScanEnabled   bool
	Notifier      selfWriteNotifier // may be nil; defaults to a no-op
}

// Engine is the Reconciliation Engine.
type Engine struct {
	root     string
	sleep    time.Duration
	scanOn   bool
	notifier selfWriteNotifier

	idx   *index.Table
	dav   RemoteClient
	queue *actionqueue.Queue
	rules *pathrules.List
	scan  *scanner.Scanner
	state *statefile.File
	errs  *errsink.Sink

	baselineRelPath string
	repoParentPath  string

	lastRootRevision int64
	possibleClash    bool
	stopRequested    atomic.Bool
}

// New assembles an Engine from its collaborators.
func New(cfg Config, idx *index.Table, dav RemoteClient, queue *actionqueue.Queue, rules *pathrules.List, state *statefile.File, errs *errsink.Sink) *Engine {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Engine{
		root:     cfg.LocalRoot,
		sleep:    cfg.SleepInterval,
		scanOn:   cfg.ScanEnabled,
		notifier: notifier,
		idx:      idx,
		dav:      dav,
		queue:    queue,
		rules:    rules,
		scan:     scanner.New(cfg.LocalRoot, rules, idx),
		state:    state,
		errs:     errs,
	}
}

// RequestStop asks the engine to exit after completing its current
// iteration. Safe to call from any goroutine (e.g. the stop-sentinel
// watcher callback).
func (e *Engine) RequestStop() {
	e.stopRequested.Store(true)
}

func (e *Engine) stopping() bool {
	return e.stopRequested.Load()
}

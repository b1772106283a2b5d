// Package watcher is the Event Sink: it wraps fsnotify's recursive
// directory watch, filters raw events through Path Rules, detects the stop
// sentinel, and appends de-duplicated (path, action) tuples onto the Action
// Queue.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/subsyncit/subsyncit/internal/actionqueue"
	"github.com/subsyncit/subsyncit/internal/pathrules"
)

var (
	ErrWatcherClosed = errors.New("watcher: already closed")
	ErrRootNotExist  = errors.New("watcher: sync root does not exist")
)

// selfWriteTTL is how long a path stays in the expected-self-writes map
// after the engine records writing it, long enough to swallow the echo
// event GET/MKCOL produces without also swallowing a genuine concurrent
// edit by the user.
const selfWriteTTL = 2 * time.Second

// Watcher is the Event Sink.
type Watcher struct {
	root    string
	rules   *pathrules.List
	queue   *actionqueue.Queue
	stopped func()

	fsw *fsnotify.Watcher

	mu           sync.Mutex
	closed       bool
	expectedSelf map[string]time.Time
}

// New creates a Watcher rooted at root. onStop is invoked from the
// watcher's own goroutine each time an event for the stop sentinel is
// handled; it is not deduplicated, so a callback may run more than once.
func New(root string, rules *pathrules.List, queue *actionqueue.Queue, onStop func()) (*Watcher, error) {
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return nil, ErrRootNotExist
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:         root,
		rules:        rules,
		queue:        queue,
		stopped:      onStop,
		fsw:          fsw,
		expectedSelf: make(map[string]time.Time),
	}

	if err := w.recursivelyAdd(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// ExpectSelfWrite records that the engine is about to write path itself, so
// the mirrored fsnotify event is suppressed rather than re-queued.
func (w *Watcher) ExpectSelfWrite(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.expectedSelf[path] = time.Now().Add(selfWriteTTL)
}

func (w *Watcher) consumeSelfWrite(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	expiry, ok := w.expectedSelf[path]
	if !ok {
		return false
	}
	delete(w.expectedSelf, path)
	return time.Now().Before(expiry)
}

// Run drains fsnotify events until ctx is canceled or Close is called.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return ErrWatcherClosed
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			slog.Error("watcher: fsnotify error", "error", err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}

func (w *Watcher) relPath(absPath string) string {
	rel, err := filepath.Rel(w.root, absPath)
	if err != nil {
		return absPath
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) {
		return
	}

	rel := w.relPath(event.Name)

	if rel == pathrules.StopSentinel {
		slog.Info("watcher: stop sentinel observed, requesting shutdown")
		if err := os.Remove(event.Name); err != nil && !os.IsNotExist(err) {
			slog.Warn("watcher: remove stop sentinel", "error", err)
		}
		if w.stopped != nil {
			w.stopped()
		}
		return
	}

	if w.rules.Excluded(rel) {
		return
	}

	if w.consumeSelfWrite(rel) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		w.onCreate(event.Name, rel)
	case event.Has(fsnotify.Write):
		w.onModify(rel)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.onRemove(event.Name, rel)
	}
}

// onModify queues a Change unless an AddFile for the same path is already
// queued — an add followed immediately by a write (common when editors
// write-then-flush) shouldn't also produce a redundant change entry.
func (w *Watcher) onModify(rel string) {
	if w.queue.Contains(rel, actionqueue.AddFile) || w.queue.Contains(rel, actionqueue.Change) {
		return
	}
	w.queue.Add(rel, actionqueue.Change)
}

func (w *Watcher) onCreate(absPath, rel string) {
	fi, err := os.Stat(absPath)
	if err != nil {
		// Gone already (rapid create+delete); treat as a delete so the
		// engine doesn't chase a file it'll never be able to stat again.
		w.queue.Add(rel, actionqueue.Delete)
		return
	}
	if fi.IsDir() {
		if err := w.recursivelyAdd(absPath); err != nil {
			slog.Error("watcher: add recursive watch", "path", absPath, "error", err)
		}
		w.queue.Add(rel+"/", actionqueue.AddDir)
		return
	}
	w.queue.Add(rel, actionqueue.AddFile)
}

func (w *Watcher) onRemove(absPath, rel string) {
	if err := w.fsw.Remove(absPath); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
		slog.Debug("watcher: remove watch for deleted path", "path", absPath, "error", err)
	}
	// fsnotify can no longer stat a removed path, so unlike onCreate we
	// can't tag this Delete file-vs-dir here; the engine resolves that
	// against whatever Kind the Index already has on record for rel.
	w.queue.Add(strings.TrimSuffix(rel, "/"), actionqueue.Delete)
}

func (w *Watcher) recursivelyAdd(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}
		if d.IsDir() {
			rel := w.relPath(path)
			if rel != "." && w.rules.Excluded(rel+"/") {
				return filepath.SkipDir
			}
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("fsnotify add watch %s: %w", path, err)
			}
		}
		return nil
	})
}

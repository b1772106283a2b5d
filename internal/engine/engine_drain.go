package engine

import (
	"log/slog"
	"strings"

	"github.com/subsyncit/subsyncit/internal/actionqueue"
	"github.com/subsyncit/subsyncit/internal/index"
)

// drainQueueToInstructions is step (c): converts every queued (path,
// action) tuple into an Index instruction. Returns true if any row was
// touched.
func (e *Engine) drainQueueToInstructions() bool {
	entries := e.queue.DrainAll()
	touched := false

	for _, entry := range entries {
		if err := e.applyEntry(entry); err != nil {
			slog.Error("engine: apply queued action", "path", entry.Path, "action", entry.Action, "error", err)
			continue
		}
		touched = true
	}
	return touched
}

func (e *Engine) applyEntry(entry actionqueue.Entry) error {
	switch entry.Action {
	case actionqueue.AddDir:
		path := entry.Path
		row, err := e.idx.Get(path)
		if err != nil {
			return err
		}
		if row == nil {
			return e.idx.Upsert(&index.Row{Path: path, Kind: index.KindDir, Instruction: index.PendingMkcol})
		}
		return e.idx.SetInstruction(path, index.PendingMkcol)

	case actionqueue.AddFile:
		row, err := e.idx.Get(entry.Path)
		if err != nil {
			return err
		}
		if row == nil {
			// A GET-triggered write looks exactly like a local add to
			// fsnotify; only rows not yet known to subversion get PUT.
			return e.idx.Upsert(&index.Row{Path: entry.Path, Kind: index.KindFile, Instruction: index.PendingPut})
		}
		if !row.InSubversion() {
			return e.idx.SetInstruction(entry.Path, index.PendingPut)
		}
		return nil

	case actionqueue.Change:
		row, err := e.idx.Get(entry.Path)
		if err != nil {
			return err
		}
		if row == nil {
			return e.idx.Upsert(&index.Row{Path: entry.Path, Kind: index.KindFile, Instruction: index.PendingPut})
		}
		return e.idx.SetInstruction(entry.Path, index.PendingPut)

	case actionqueue.Delete:
		path := entry.Path
		row, err := e.idx.Get(path)
		if err != nil {
			return err
		}
		if row == nil && !strings.HasSuffix(path, "/") {
			// A removed directory reaches the queue without its trailing
			// "/"; look it up under the directory key as well.
			path += "/"
			if row, err = e.idx.Get(path); err != nil {
				return err
			}
		}
		if row == nil {
			return nil // never reached the server; nothing to discard
		}
		// 'svn up' itself can delete a file or directory locally, which
		// would otherwise loop a spurious delete back at the server.
		if !knownRemotely(row) {
			return nil
		}
		return e.idx.SetInstruction(path, index.PendingDeleteRemote)
	}
	return nil
}

// knownRemotely reports whether row represents something the remote
// server already knows about, for either a file (has a SHA-1) or a
// directory (has a non-zero revision).
func knownRemotely(row *index.Row) bool {
	if row.Kind == index.KindFile {
		return row.RemoteSHA1 != ""
	}
	return row.Revision != 0
}

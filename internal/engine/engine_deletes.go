package engine

import (
	"context"
	"log/slog"
	"os"

	"github.com/subsyncit/subsyncit/internal/index"
)

// executeLocalDeletes is step (e): best-effort unlink of rows marked
// DELETE_LOCAL. A directory that still has children fails with
// "not empty"; we leave it for a subsequent pass once its children have
// been deleted (rows come back ordered by path, so a directory is tried
// before its own children and succeeds on a later pass).
func (e *Engine) executeLocalDeletes() (int, error) {
	rows, err := e.idx.ByInstruction(index.PendingDeleteLocal)
	if err != nil {
		return 0, err
	}
	if len(rows) > batchSize {
		rows = rows[:batchSize]
	}

	done := 0
	for _, row := range rows {
		local := e.localPath(row.Path)
		e.notifier.ExpectSelfWrite(row.Path)

		removeErr := os.Remove(local)

		switch {
		case removeErr == nil, os.IsNotExist(removeErr):
			if err := e.idx.Delete(row.Path); err != nil {
				return done, err
			}
			done++
		case isDirNotEmpty(removeErr):
			slog.Debug("engine: local delete deferred, directory not empty", "path", row.Path)
		default:
			slog.Error("engine: local delete", "path", row.Path, "error", removeErr)
		}
	}
	return done, nil
}

func isDirNotEmpty(err error) bool {
	if err == nil {
		return false
	}
	pe, ok := err.(*os.PathError)
	if !ok {
		return false
	}
	// os.Remove on a non-empty directory surfaces ENOTEMPTY ("directory not
	// empty") on Linux and EEXIST ("file exists") on some other Unix
	// systems; the check compares the underlying error's message against
	// those two strings rather than an errno value.
	return pe.Err != nil && (pe.Err.Error() == "directory not empty" || pe.Err.Error() == "file exists")
}

// executeRemoteDeletes is step (g): DELETE the URL for rows marked
// DELETE_REMOTE; on success, drop the row and re-mark the parent directory
// for GET so its revision refreshes.
func (e *Engine) executeRemoteDeletes(ctx context.Context) (int, error) {
	rows, err := e.idx.ByInstruction(index.PendingDeleteRemote)
	if err != nil {
		return 0, err
	}
	if len(rows) > batchSize {
		rows = rows[:batchSize]
	}

	done := 0
	for _, row := range rows {
		if err := e.dav.Delete(ctx, row.Path); err != nil {
			slog.Error("engine: DELETE", "path", row.Path, "error", err)
			continue
		}
		if err := e.idx.Delete(row.Path); err != nil {
			return done, err
		}
		done++
		e.reGetIdleParent(row.Path)
	}
	return done, nil
}

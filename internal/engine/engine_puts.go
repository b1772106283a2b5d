package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/subsyncit/subsyncit/internal/index"
	"github.com/subsyncit/subsyncit/internal/utils"
)

// executePuts is step (f): upload every row with instruction = PUT.
func (e *Engine) executePuts(ctx context.Context) (int, error) {
	rows, err := e.idx.ByInstruction(index.PendingPut)
	if err != nil {
		return 0, err
	}
	if len(rows) > batchSize {
		rows = rows[:batchSize]
	}

	done := 0
	for _, row := range rows {
		ok, err := e.putOne(ctx, row)
		if err != nil {
			slog.Error("engine: PUT", "path", row.Path, "error", err)
			continue
		}
		if ok {
			done++
		}
	}
	return done, nil
}

func (e *Engine) putOne(ctx context.Context, row index.Row) (bool, error) {
	local := e.localPath(row.Path)

	localSHA1, err := utils.SHA1File(local)
	if err != nil {
		if os.IsNotExist(err) {
			return false, e.idx.SetInstruction(row.Path, index.Idle)
		}
		return false, fmt.Errorf("hash %s: %w", row.Path, err)
	}

	// Idempotency guard: an echo of a file we just GET'd.
	if row.RemoteSHA1 != "" && row.RemoteSHA1 == row.LocalSHA1 && localSHA1 == row.LocalSHA1 {
		return false, e.idx.SetInstruction(row.Path, index.Idle)
	}

	stable, err := isStable(local)
	if err != nil {
		return false, fmt.Errorf("stability check %s: %w", row.Path, err)
	}
	if !stable {
		slog.Debug("engine: PUT deferred, file still being written to", "path", row.Path)
		return false, nil
	}

	if err := e.ensureRemoteParents(ctx, row.Path); err != nil {
		return false, fmt.Errorf("ensure remote parents for %s: %w", row.Path, err)
	}

	// Concurrent-modification guard: someone else's content may already
	// be sitting where we're about to PUT over it.
	if row.RemoteSHA1 != "" {
		details, err := e.dav.SvnDetails(ctx, row.Path)
		if err != nil {
			return false, fmt.Errorf("svn_details %s: %w", row.Path, err)
		}
		if details.SHA1 != row.RemoteSHA1 {
			e.possibleClash = true
			slog.Warn("engine: PUT skipped, remote changed since last sync", "path", row.Path)
			return false, nil
		}
	}

	f, err := os.Open(local)
	if err != nil {
		return false, fmt.Errorf("open %s for upload: %w", row.Path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return false, fmt.Errorf("stat %s for upload: %w", row.Path, err)
	}

	e.notifier.ExpectSelfWrite(row.Path)
	err = e.dav.Put(ctx, row.Path, f, fi.Size())
	f.Close()
	if err != nil {
		return false, fmt.Errorf("PUT %s: %w", row.Path, err)
	}

	details, err := e.dav.SvnDetails(ctx, row.Path)
	if err != nil {
		return false, fmt.Errorf("re-query svn_details after PUT %s: %w", row.Path, err)
	}
	if details.SHA1 != localSHA1 {
		e.possibleClash = true
		slog.Warn("engine: remote SHA-1 diverged immediately after PUT", "path", row.Path)
		return false, nil
	}

	if err := e.idx.SetShasAndSize(row.Path, localSHA1, localSHA1, utils.SizeMtimeHint(fi), details.Revision); err != nil {
		return false, err
	}
	slog.Debug("engine: PUT", "path", row.Path, "size", humanize.Bytes(uint64(fi.Size())))
	return true, nil
}

// isStable reads a file's size twice, stabilityCheckDelay apart, and
// reports whether the two reads agree — a cheap proxy for "nothing is
// actively writing to this file right now".
func isStable(path string) (bool, error) {
	fi1, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	time.Sleep(stabilityCheckDelay)
	fi2, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return fi1.Size() == fi2.Size(), nil
}

// ensureRemoteParents walks relPath's ancestors bottom-up, MKCOL-ing and
// fetching a revision for any directory the Index doesn't yet know exists
// remotely (revision == 0). Parents are created in root-to-leaf order so a
// deeply nested new directory tree is created consistently.
func (e *Engine) ensureRemoteParents(ctx context.Context, relPath string) error {
	var missing []string
	for parent := index.ParentPath(relPath); parent != ""; parent = index.ParentPath(strings.TrimSuffix(parent, "/")) {
		row, err := e.idx.Get(parent)
		if err != nil {
			return err
		}
		if row != nil && row.Revision != 0 {
			break // this ancestor, and everything above it, already exists
		}
		missing = append(missing, parent)
	}

	for i := len(missing) - 1; i >= 0; i-- {
		parent := missing[i]
		if err := e.dav.Mkcol(ctx, parent); err != nil {
			return fmt.Errorf("mkcol %s: %w", parent, err)
		}
		rev, err := e.dav.SvnDirectoryRevision(ctx, e.repoParentPath, parent)
		if err != nil {
			return fmt.Errorf("svn_directory_revision %s: %w", parent, err)
		}
		row, err := e.idx.Get(parent)
		if err != nil {
			return err
		}
		if row == nil {
			if err := e.idx.Upsert(&index.Row{Path: parent, Kind: index.KindDir, Revision: rev}); err != nil {
				return err
			}
		} else if err := e.idx.SetRevision(parent, rev); err != nil {
			return err
		}
	}
	return nil
}

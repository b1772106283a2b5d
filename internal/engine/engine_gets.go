package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/subsyncit/subsyncit/internal/index"
	"github.com/subsyncit/subsyncit/internal/utils"
)

func (e *Engine) localPath(relPath string) string {
	return filepath.Join(e.root, filepath.FromSlash(relPath))
}

// executeGets is step (d): materialize every row with instruction = GET.
func (e *Engine) executeGets(ctx context.Context) (int, error) {
	rows, err := e.idx.ByInstruction(index.PendingGet)
	if err != nil {
		return 0, err
	}
	if len(rows) > batchSize {
		rows = rows[:batchSize]
	}

	done := 0
	for _, row := range rows {
		var err error
		if row.Kind == index.KindDir {
			err = e.getDirectory(ctx, row)
		} else {
			err = e.getFile(ctx, row)
		}
		if err != nil {
			slog.Error("engine: GET", "path", row.Path, "error", err)
			continue
		}
		done++
		e.reGetIdleParent(row.Path)
	}
	return done, nil
}

func (e *Engine) getDirectory(ctx context.Context, row index.Row) error {
	if err := utils.EnsureDir(e.localPath(row.Path)); err != nil {
		return fmt.Errorf("ensure local dir %s: %w", row.Path, err)
	}
	rev, err := e.dav.SvnDirectoryRevision(ctx, e.repoParentPath, row.Path)
	if err != nil {
		return fmt.Errorf("svn_directory_revision %s: %w", row.Path, err)
	}
	if err := e.idx.SetRevision(row.Path, rev); err != nil {
		return err
	}
	return e.idx.SetInstruction(row.Path, index.Idle)
}

func (e *Engine) getFile(ctx context.Context, row index.Row) error {
	details, err := e.dav.SvnDetails(ctx, row.Path)
	if err != nil {
		return fmt.Errorf("svn_details %s: %w", row.Path, err)
	}

	local := e.localPath(row.Path)
	if err := utils.EnsureDir(filepath.Dir(local)); err != nil {
		return err
	}

	if err := e.preserveClashIfDiverged(local, row.LocalSHA1); err != nil {
		return err
	}

	e.notifier.ExpectSelfWrite(row.Path)

	// Written directly into the target file (truncating it), not via a
	// side-by-side temp file: a kill mid-download must leave the partial
	// content sitting at the real path, so that on restart
	// preserveClashIfDiverged finds it no longer matches local_sha1 and
	// rescues it as a .clash_ sidecar of the aborted size, exactly like
	// the original client's direct open(abs_local_file_path, 'wb').
	out, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("create %s for download: %w", row.Path, err)
	}
	if err := e.dav.Get(ctx, row.Path, out); err != nil {
		out.Close()
		return fmt.Errorf("GET %s: %w", row.Path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close downloaded file %s: %w", row.Path, err)
	}

	newSHA1, err := utils.SHA1File(local)
	if err != nil {
		return fmt.Errorf("hash downloaded file %s: %w", row.Path, err)
	}

	fi, err := os.Stat(local)
	if err != nil {
		return fmt.Errorf("stat downloaded file %s: %w", row.Path, err)
	}

	slog.Debug("engine: GET", "path", row.Path, "size", humanize.Bytes(uint64(fi.Size())))
	return e.idx.SetShasAndSize(row.Path, newSHA1, newSHA1, utils.SizeMtimeHint(fi), details.Revision)
}

// preserveClashIfDiverged implements the uniform "remote wins content,
// local preserved as sidecar" rule: if a local file already exists and its
// current content no longer matches what the Index last recorded as
// local_sha1, the user changed it without subsyncit noticing (offline
// edit, or a race with the watcher) — rename it aside before the GET
// truncates it.
func (e *Engine) preserveClashIfDiverged(local, expectedLocalSHA1 string) error {
	if _, err := os.Stat(local); err != nil {
		return nil // nothing to preserve
	}
	current, err := utils.SHA1File(local)
	if err != nil {
		return fmt.Errorf("hash existing local file %s: %w", local, err)
	}
	if current == expectedLocalSHA1 {
		return nil
	}

	sidecar := local + clashSuffix()
	if err := os.Rename(local, sidecar); err != nil {
		return fmt.Errorf("rename clashing file aside: %w", err)
	}
	return nil
}

// clashSuffix carries both a human-readable timestamp and a short random
// token, so two clashes landing in the same second never collide.
func clashSuffix() string {
	return ".clash_" + time.Now().Format("2006-01-02-15-04-05") + "-" + uuid.NewString()[:8]
}

// reGetIdleParent implements the tail of step (d): after a GET, if the
// parent directory's row is idle, re-mark it GET so its revision refreshes
// on a later sub-pass, keeping the Merkle state consistent.
func (e *Engine) reGetIdleParent(path string) {
	parent := index.ParentPath(path)
	if parent == "" {
		return
	}
	row, err := e.idx.Get(parent)
	if err != nil || row == nil {
		return
	}
	if row.Instruction == index.Idle {
		_ = e.idx.SetInstruction(parent, index.PendingGet)
	}
}

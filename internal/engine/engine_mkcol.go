package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/subsyncit/subsyncit/internal/index"
)

// executeMkcols creates every row with instruction = MKCOL directly: a
// locally created directory that the watcher or scanner queued via
// add_dir, independent of whether a file inside it ever reaches the PUT
// phase. ensureRemoteParents (called from the PUT phase) creates the same
// kind of row lazily when a nested file is uploaded before its ancestors
// are known remotely; this phase covers the case of an empty directory.
func (e *Engine) executeMkcols(ctx context.Context) (int, error) {
	rows, err := e.idx.ByInstruction(index.PendingMkcol)
	if err != nil {
		return 0, err
	}
	if len(rows) > batchSize {
		rows = rows[:batchSize]
	}

	done := 0
	for _, row := range rows {
		if err := e.mkcolOne(ctx, row); err != nil {
			slog.Error("engine: MKCOL", "path", row.Path, "error", err)
			continue
		}
		done++
	}
	return done, nil
}

func (e *Engine) mkcolOne(ctx context.Context, row index.Row) error {
	if err := e.ensureRemoteParents(ctx, row.Path); err != nil {
		return fmt.Errorf("ensure remote parents for %s: %w", row.Path, err)
	}

	if err := e.dav.Mkcol(ctx, row.Path); err != nil {
		return fmt.Errorf("mkcol %s: %w", row.Path, err)
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

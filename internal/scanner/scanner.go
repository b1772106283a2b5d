// Package scanner implements the Scanner: a periodic filesystem/Index walk
// that injects any add/change/delete the Event Sink may have missed
// (subsyncit was not running, or an fsnotify event was dropped).
package scanner

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/subsyncit/subsyncit/internal/index"
	"github.com/subsyncit/subsyncit/internal/pathrules"
	"github.com/subsyncit/subsyncit/internal/utils"
)

// itemBudget caps how many rows a single scan pass will touch, so a huge
// tree doesn't block the reconcile loop for an entire poll interval.
const itemBudget = 100

// Scanner walks root and cross-references the Index Table.
type Scanner struct {
	root  string
	rules *pathrules.List
	idx   *index.Table
}

// New returns a Scanner over root, using rules to skip excluded paths and
// idx as the Index Table to reconcile against.
func New(root string, rules *pathrules.List, idx *index.Table) *Scanner {
	return &Scanner{root: root, rules: rules, idx: idx}
}

// MissedAddsAndChanges walks the local tree looking for files whose mtime
// is at or after lastScanned and that the Index either doesn't know about
// (⇒ PendingPut, new file) or whose size+mtime hint has drifted from the
// last reconciled value (⇒ PendingPut, changed file). Returns the number of
// rows touched.
func (s *Scanner) MissedAddsAndChanges(ctx context.Context, lastScanned time.Time) (int, error) {
	touched := 0

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil || touched >= itemBudget {
			return filepath.SkipAll
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if s.rules.Excluded(rel) {
			return nil
		}

		info, statErr := d.Info()
		if statErr != nil {
			return nil
		}
		if info.ModTime().Before(lastScanned) {
			return nil
		}

		row, getErr := s.idx.Get(rel)
		if getErr != nil {
			return getErr
		}
		if row != nil && row.Instruction != index.Idle {
			return nil // already has a pending instruction, leave it alone
		}

		sizeMtime := utils.SizeMtimeHint(info)

		switch {
		case row == nil:
			if err := s.idx.Upsert(&index.Row{
				Path:        rel,
				Kind:        index.KindFile,
				SizeMtime:   sizeMtime,
				Instruction: index.PendingPut,
			}); err != nil {
				return err
			}
			touched++
		case !row.InSubversion():
			if err := s.idx.SetInstruction(rel, index.PendingPut); err != nil {
				return err
			}
			touched++
		case sizeMtime != row.SizeMtime:
			if err := s.idx.SetInstruction(rel, index.PendingPut); err != nil {
				return err
			}
			touched++
		}
		return nil
	})

	if touched > 0 {
		slog.Info("scanner: missed adds/changes", "count", touched)
	}
	return touched, err
}

// MissedDeletes looks for Index rows that are idle and known to be in
// subversion, but whose local file no longer exists — the Event Sink
// equivalent of a delete it never saw. Returns the number of rows touched.
func (s *Scanner) MissedDeletes(ctx context.Context) (int, error) {
	rows, err := s.idx.ByInstruction(index.Idle)
	if err != nil {
		return 0, err
	}

	touched := 0
	for _, row := range rows {
		if ctx.Err() != nil || touched >= itemBudget {
			break
		}
		if !row.InSubversion() {
			continue
		}
		localPath := filepath.Join(s.root, filepath.FromSlash(row.Path))
		if _, statErr := os.Stat(localPath); statErr == nil {
			continue
		} else if !os.IsNotExist(statErr) {
			continue
		}

		if err := s.idx.SetInstruction(row.Path, index.PendingDeleteRemote); err != nil {
			return touched, err
		}
		touched++
	}

	if touched > 0 {
		slog.Info("scanner: missed deletes", "count", touched)
	}
	return touched, nil
}

package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/subsyncit/subsyncit/internal/index"
)

// reconcileInbound is step (h): re-query the root revision and, if it
// moved (or a possible clash was flagged by the PUT phase), walk the
// remote directory tree using per-directory revisions as a Merkle-tree
// surrogate, pruning any subtree whose revision is unchanged.
func (e *Engine) reconcileInbound(ctx context.Context) error {
	details, err := e.dav.SvnDetails(ctx, "")
	if err != nil {
		return fmt.Errorf("re-query root revision: %w", err)
	}

	if details.Revision == e.lastRootRevision && !e.possibleClash {
		return nil
	}

	slog.Info("engine: root revision changed, walking remote tree", "from", e.lastRootRevision, "to", details.Revision)
	e.possibleClash = false

	if err := e.walkDirectory(ctx, ""); err != nil {
		return err
	}

	e.lastRootRevision = details.Revision
	e.state.State.LastRootRevision = details.Revision
	return nil
}

// walkDirectory recurses into dirPath ("" for the sync root), pruning
// subtrees whose remote revision hasn't changed and turning the rest into
// GET/DELETE_LOCAL instructions.
func (e *Engine) walkDirectory(ctx context.Context, dirPath string) error {
	remoteRev, err := e.dav.SvnDirectoryRevision(ctx, e.repoParentPath, dirPath)
	if err != nil {
		return fmt.Errorf("svn_directory_revision %s: %w", dirPath, err)
	}

	localRow, err := e.idx.Get(dirPath)
	if err != nil {
		return err
	}
	if dirPath != "" && localRow != nil && localRow.Revision == remoteRev {
		return nil // subtree unchanged, prune
	}

	children, err := e.dav.SvnDirList(ctx, dirPath, e.baselineRelPath)
	if err != nil {
		return fmt.Errorf("svn_dir_list %s: %w", dirPath, err)
	}

	childDepth := index.Depth(dirPath) + 1
	knownRows, err := e.idx.UnderPrefixAtDepth(dirPath, childDepth)
	if err != nil {
		return err
	}
	unprocessed := make(map[string]bool, len(knownRows))
	for _, row := range knownRows {
		unprocessed[row.Path] = true
	}

	var toRecurse []string
	for _, child := range children {
		delete(unprocessed, child.Path)
		if e.rules.Excluded(child.Path) {
			continue
		}

		row, err := e.idx.Get(child.Path)
		if err != nil {
			return err
		}

		switch {
		case row == nil:
			kind := index.KindFile
			if child.SHA1 == "" {
				kind = index.KindDir
			}
			if err := e.idx.Upsert(&index.Row{Path: child.Path, Kind: kind, Instruction: index.PendingGet}); err != nil {
				return err
			}
			if kind == index.KindDir {
				toRecurse = append(toRecurse, child.Path)
			}
		case child.SHA1 != row.RemoteSHA1:
			if err := e.idx.SetInstruction(child.Path, index.PendingGet); err != nil {
				return err
			}
			if row.Kind == index.KindDir {
				toRecurse = append(toRecurse, child.Path)
			}
		case row.Kind == index.KindDir:
			toRecurse = append(toRecurse, child.Path)
		}
	}

	for path := range unprocessed {
		if err := e.idx.SetInstruction(path, index.PendingDeleteLocal); err != nil {
			return err
		}
	}

	if dirPath != "" {
		if localRow == nil {
			if err := e.idx.Upsert(&index.Row{Path: dirPath, Kind: index.KindDir, Revision: remoteRev}); err != nil {
				return err
			}
		} else if err := e.idx.SetRevision(dirPath, remoteRev); err != nil {
			return err
		}
	}

	for _, child := range toRecurse {
		if err := e.walkDirectory(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

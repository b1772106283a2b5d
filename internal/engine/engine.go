package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/subsyncit/subsyncit/internal/davclient"
	"github.com/subsyncit/subsyncit/internal/pathrules"
)

// ErrDepthInfinityRefused is returned by Run when the server's
// misconfiguration makes further progress impossible. main.go maps this to
// exit code 1.
var ErrDepthInfinityRefused = davclient.ErrDepthInfinityRefused

// Run drives the engine's iterate-then-sleep loop until ctx is canceled or
// a stop is requested. It returns nil on cooperative shutdown, and a
// non-nil error only for the one genuinely fatal condition: the server
// refuses Depth:infinity PROPFIND.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.bootstrap(ctx); err != nil {
		if errors.Is(err, davclient.ErrDepthInfinityRefused) {
			return err
		}
		// Any other bootstrap failure (offline, unauthorized, wrong
		// endpoint) is recorded and retried on the normal sleep cadence.
		e.recordError(err)
	}

	for {
		if ctx.Err() != nil || e.stopping() {
			break
		}

		substantial, err := e.iterate(ctx)
		if err != nil {
			if errors.Is(err, davclient.ErrDepthInfinityRefused) {
				return err
			}
			e.recordError(err)
		} else {
			e.state.State.Online = true
			e.errs.Clear()
		}

		if err := e.state.SaveIfChanged(); err != nil {
			slog.Error("engine: save state file", "error", err)
		}

		if ctx.Err() != nil || e.stopping() {
			break
		}

		if substantial {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(e.sleep):
		}
	}

	return nil
}

func (e *Engine) recordError(err error) {
	e.state.State.Online = false
	slog.Error("engine: iteration error", "error", err)
	if writeErr := e.errs.Write(err.Error()); writeErr != nil {
		slog.Error("engine: write error sink", "error", writeErr)
	}
}

// bootstrap is step (a): learn the baseline-relative-path and repo-parent
// URL prefix. It is retried every iteration until it succeeds once; once
// cached those values never change for the lifetime of the process.
func (e *Engine) bootstrap(ctx context.Context) error {
	if e.baselineRelPath != "" {
		return nil
	}

	details, err := e.dav.SvnDetails(ctx, "")
	if err != nil {
		return fmt.Errorf("bootstrap svn_details: %w", err)
	}

	parent, err := e.dav.RepoParentPath(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap repo parent path: %w", err)
	}

	e.baselineRelPath = details.BaselineRelPath
	e.repoParentPath = parent
	e.lastRootRevision = details.Revision
	slog.Info("engine: bootstrapped", "baseline_rel_path", e.baselineRelPath, "repo_parent_path", e.repoParentPath, "revision", e.lastRootRevision)

	e.loadExclusions(ctx)
	return nil
}

// loadExclusions fetches the remote exclusion-patterns file exactly once,
// at bootstrap, mirroring the original client's "only on iteration zero"
// gate. A missing file just means no additional patterns are configured.
func (e *Engine) loadExclusions(ctx context.Context) {
	var buf bytes.Buffer
	if err := e.dav.Get(ctx, pathrules.ExcludedPatternsFile, &buf); err != nil {
		slog.Debug("engine: no remote exclusion patterns file", "error", err)
		return
	}
	if skipped := e.rules.Load(pathrules.ParseLines(buf.String())); skipped > 0 {
		slog.Warn("engine: skipped invalid exclusion patterns", "count", skipped)
	}
}

// iterate runs steps (b) through (h) of one reconcile pass and reports
// whether anything substantial happened (≥1 PUT/GET/DELETE/MKCOL), which
// tells Run to reiterate immediately rather than sleep.
func (e *Engine) iterate(ctx context.Context) (bool, error) {
	if err := e.bootstrap(ctx); err != nil {
		return false, err
	}

	substantial := false

	if e.scanOn {
		now := time.Now()
		if _, err := e.scan.MissedAddsAndChanges(ctx, e.lastScanned()); err != nil {
			slog.Error("engine: scan missed adds/changes", "error", err)
		}
		if _, err := e.scan.MissedDeletes(ctx); err != nil {
			slog.Error("engine: scan missed deletes", "error", err)
		}
		e.state.State.LastScanned = now.Unix()
	}

	e.drainQueueToInstructions()

	mkcols, err := e.executeMkcols(ctx)
	if err != nil {
		return substantial, err
	}
	gets, err := e.executeGets(ctx)
	if err != nil {
		return substantial, err
	}
	localDeletes, err := e.executeLocalDeletes()
	if err != nil {
		return substantial, err
	}
	puts, err := e.executePuts(ctx)
	if err != nil {
		return substantial, err
	}
	remoteDeletes, err := e.executeRemoteDeletes(ctx)
	if err != nil {
		return substantial, err
	}

	if mkcols+gets+localDeletes+puts+remoteDeletes > 0 {
		substantial = true
	}

	if err := e.reconcileInbound(ctx); err != nil {
		return substantial, err
	}

	return substantial, nil
}

func (e *Engine) lastScanned() time.Time {
	if e.state.State.LastScanned == 0 {
		return time.Time{}
	}
	return time.Unix(e.state.State.LastScanned, 0)
}

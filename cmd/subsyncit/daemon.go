package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/subsyncit/subsyncit/internal/actionqueue"
	"github.com/subsyncit/subsyncit/internal/davclient"
	"github.com/subsyncit/subsyncit/internal/engine"
	"github.com/subsyncit/subsyncit/internal/errsink"
	"github.com/subsyncit/subsyncit/internal/index"
	"github.com/subsyncit/subsyncit/internal/pathrules"
	"github.com/subsyncit/subsyncit/internal/statefile"
	"github.com/subsyncit/subsyncit/internal/syncconfig"
	"github.com/subsyncit/subsyncit/internal/watcher"
)

// runDaemon wires every collaborator together and runs the reconciliation
// loop (and, unless disabled, the filesystem watcher) until ctx is
// canceled or the stop sentinel is observed.
func runDaemon(ctx context.Context, cfg *syncconfig.Config) error {
	if err := cfg.RemoveStaleStopSentinel(); err != nil {
		slog.Warn("daemon: remove stale stop sentinel", "error", err)
	}
	if err := cfg.WriteInfoFile(); err != nil {
		slog.Warn("daemon: write info file", "error", err)
	}

	idx, err := index.Open(cfg.DBPath())
	if err != nil {
		return err
	}
	defer idx.Close()

	dav := davclient.New(davclient.Config{
		BaseURL:   cfg.RemoteURL,
		Username:  cfg.User,
		Password:  cfg.Password,
		VerifySSL: cfg.VerifySSL,
		Timeout:   30 * time.Second,
	})

	rules := pathrules.New()
	errs := errsink.New(cfg.StateDir)
	state := statefile.Open(cfg.StateDir)
	queue := actionqueue.New()

	var eng *engine.Engine
	var w *watcher.Watcher

	// stopCtx is canceled the moment either the stop sentinel is observed
	// or the engine's own Run loop returns, so a blocked w.Run(gctx) never
	// outlives the engine it's feeding.
	stopCtx, cancelStop := context.WithCancel(context.Background())
	defer cancelStop()

	if cfg.WatchEnabled {
		w, err = watcher.New(cfg.LocalRoot, rules, queue, func() {
			eng.RequestStop()
			cancelStop()
		})
		if err != nil {
			return err
		}
	}

	engCfg := engine.Config{
		LocalRoot:     cfg.LocalRoot,
		SleepInterval: time.Duration(cfg.SleepInterval) * time.Second,
		ScanEnabled:   cfg.ScanEnabled,
	}
	if w != nil {
		engCfg.Notifier = w
	}
	eng = engine.New(engCfg, idx, dav, queue, rules, state, errs)

	group, gctx := errgroup.WithContext(ctx)

	if w != nil {
		group.Go(func() error {
			select {
			case <-gctx.Done():
			case <-stopCtx.Done():
			}
			if err := w.Close(); err != nil {
				slog.Error("daemon: close watcher", "error", err)
			}
			return nil
		})

		group.Go(func() error {
			err := w.Run(gctx)
			if errors.Is(err, context.Canceled) || errors.Is(err, watcher.ErrWatcherClosed) {
				return nil
			}
			return err
		})
	}

	group.Go(func() error {
		err := eng.Run(gctx)
		cancelStop()
		return err
	})

	return group.Wait()
}

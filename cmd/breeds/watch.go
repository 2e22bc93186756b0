package main

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/breed-feed/pkg/network"
	"github.com/Sternrassler/breed-feed/pkg/pagination"
	"github.com/Sternrassler/breed-feed/pkg/ratelimit"
)

// Run executes the watch command. It loads every page, and when a session
// fails it waits for connectivity to come back before starting again.
// Interrupting cancels the in-flight session.
func (c *WatchCmd) Run(deps *Dependencies) error {
	prober, err := network.NewProber(deps.Config.ProberConfig())
	if err != nil {
		return fmt.Errorf("failed to create prober: %w", err)
	}

	settled := make(chan struct{}, 1)
	ctrl := deps.NewController(pagination.Hooks{
		OnSettled: func(pagination.Snapshot) {
			select {
			case settled <- struct{}{}:
			default:
			}
		},
		OnRetry: func(attempt int) {
			fmt.Fprintf(deps.Stderr, "retry %d: %s\n", attempt, pagination.Footer(pagination.Snapshot{
				Status:          pagination.StatusLoading,
				RetriesInFlight: attempt,
			}).Text)
		},
	})
	defer ctrl.Wait()

	runCtx, stop := context.WithCancel(deps.Ctx)
	defer stop()

	gate := ratelimit.NewGate(func() { ctrl.Start(runCtx) }, deps.Config.GateConfig())
	defer gate.Stop()

	monitor := network.NewMonitor(prober, network.Hooks{
		OnOnline: func() {
			fmt.Fprintln(deps.Stderr, "Back online")
			gate.Invoke()
		},
		OnOffline: func() {
			fmt.Fprintln(deps.Stderr, "You are offline")
		},
	})
	monitor.Start()
	defer monitor.Stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return prober.Run(gctx)
	})
	g.Go(func() error {
		defer stop()
		return c.loop(gctx, deps, ctrl, settled)
	})
	return g.Wait()
}

// loop prints each settlement and keeps fetching until the end of the list
// or until ctx is done.
func (c *WatchCmd) loop(ctx context.Context, deps *Dependencies, ctrl *pagination.Controller, settled <-chan struct{}) error {
	printed := 0

	if !ctrl.Mount(ctx) {
		snap := ctrl.Snapshot()
		printed = printItems(deps.Stdout, snap.Items, printed)
		if snap.Cursor.Done() {
			printFooter(deps.Stdout, snap)
			return nil
		}
		ctrl.FetchMore(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			ctrl.Cancel()
			snap := ctrl.Snapshot()
			printItems(deps.Stdout, snap.Items, printed)
			printFooter(deps.Stdout, snap)
			return nil
		case <-settled:
		}

		snap := ctrl.Snapshot()
		printed = printItems(deps.Stdout, snap.Items, printed)
		switch {
		case snap.Status == pagination.StatusSuccess && snap.Cursor.Done():
			printFooter(deps.Stdout, snap)
			return nil
		case snap.Status == pagination.StatusSuccess:
			ctrl.FetchMore(ctx)
		default:
			printFooter(deps.Stdout, snap)
		}
	}
}

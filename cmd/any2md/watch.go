// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/any2md/internal/scan"
	"github.com/pdiddy/any2md/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the source directory and convert changes as they happen",
	Long: `Watch performs an initial incremental run, then observes the source
tree for file system changes. Each debounced batch of changes triggers
another incremental run, so the processed directory tracks the source
continuously. Stop with Ctrl-C; the registry is persisted after every run.`,
	RunE: runWatch,
}

func init() {
	addRunFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before a change batch triggers a run")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)
	// Watch mode is incremental by definition; a full reconversion on
	// every keystroke would defeat the registry.
	cfg.Conversion.Incremental = true

	logger := newLogger(cmd)

	if err := ensureDirs(cfg); err != nil {
		return err
	}

	runner, store, err := newRunner(cfg, logger, os.Stdout)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := runner.Run(ctx); err != nil {
		return err
	}

	matcher, err := scan.NewMatcher(cfg.Scan)
	if err != nil {
		return err
	}
	watcher, err := watch.New(cfg.Scan.SourceDir, matcher, cfg.Watch.Debounce, logger)
	if err != nil {
		return err
	}
	defer watcher.Close()

	go watcher.Start(ctx)
	logger.Info("watching for changes", "source", cfg.Scan.SourceDir)

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil
		case paths := <-watcher.Changes():
			logger.Info("changes detected", "files", len(paths))
			if _, err := runner.Run(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Error("run failed", "err", err)
			}
		}
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/pdiddy/any2md/internal/registry"
	"github.com/pdiddy/any2md/internal/scan"
	"github.com/pdiddy/any2md/pkg/types"
)

// Runner orchestrates one batch: scan the source tree, dispatch each file
// sequentially, persist the registry, and report a summary. Files are
// independent; one failure never aborts the loop.
type Runner struct {
	scanner    *scan.Scanner
	dispatcher *Dispatcher
	store      registry.Store
	sourceDir  string
	logger     *log.Logger
	out        io.Writer
}

// NewRunner assembles a runner from its collaborators.
func NewRunner(scanner *scan.Scanner, dispatcher *Dispatcher, store registry.Store, sourceDir string, logger *log.Logger, out io.Writer) *Runner {
	return &Runner{
		scanner:    scanner,
		dispatcher: dispatcher,
		store:      store,
		sourceDir:  sourceDir,
		logger:     logger,
		out:        out,
	}
}

// Run executes the batch. The returned error is non-nil only for run-level
// problems (unscannable source directory, registry persistence failure);
// per-file failures are reported through the summary counts.
func (r *Runner) Run(ctx context.Context) (types.Summary, error) {
	summary := types.Summary{RunID: uuid.NewString()}

	files, err := r.scanner.Scan(r.sourceDir)
	if err != nil {
		return summary, err
	}
	r.logger.Info("scan complete", "run", summary.RunID, "files", len(files))

	for _, path := range files {
		select {
		case <-ctx.Done():
			// Persist what completed before the interrupt.
			if saveErr := r.store.Save(); saveErr != nil {
				r.logger.Error("saving registry after interrupt", "err", saveErr)
			}
			return summary, ctx.Err()
		default:
		}

		switch r.dispatcher.Process(path) {
		case types.FileConverted:
			summary.Converted++
		case types.FileSkipped:
			summary.Skipped++
		case types.FileFailed:
			summary.Failed++
		}
	}

	if err := r.store.Save(); err != nil {
		return summary, fmt.Errorf("saving registry: %w", err)
	}

	fmt.Fprintf(r.out, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		summary.Converted, summary.Skipped, summary.Failed, summary.Total())
	return summary, nil
}

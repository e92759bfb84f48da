// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watch keeps the processed tree current by observing the source
// tree for changes and triggering incremental conversion runs.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/pdiddy/any2md/internal/scan"
)

// DefaultDebounce is the quiet period applied when none is configured.
const DefaultDebounce = 500 * time.Millisecond

// Watcher observes a source tree recursively. fsnotify watches single
// directories only, so every subdirectory is registered individually and
// newly created directories are added as they appear.
type Watcher struct {
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	matcher   *scan.Matcher
	sourceDir string
	logger    *log.Logger
}

// New builds a watcher over sourceDir, registering all non-ignored
// subdirectories.
func New(sourceDir string, matcher *scan.Matcher, debounce time.Duration, logger *log.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:       fsw,
		debouncer: NewDebouncer(debounce),
		matcher:   matcher,
		sourceDir: sourceDir,
		logger:    logger,
	}

	err = filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != sourceDir && matcher.IgnoreDir(path) {
			return filepath.SkipDir
		}
		if addErr := fsw.Add(path); addErr != nil {
			logger.Warn("could not watch directory", "path", path, "err", addErr)
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return nil, err
	}

	return w, nil
}

// Changes returns the channel receiving debounced batches of changed paths.
func (w *Watcher) Changes() <-chan []string {
	return w.debouncer.Output()
}

// Start consumes file system events until ctx is cancelled. Run it in a
// goroutine alongside a loop draining Changes.
func (w *Watcher) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := event.Name

	// Newly created directories join the watch set; their own create
	// event is not a document change.
	if event.Has(fsnotify.Create) {
		if w.isDir(path) {
			if !w.matcher.IgnoreDir(path) {
				if err := w.fsw.Add(path); err != nil {
					w.logger.Warn("could not watch new directory", "path", path, "err", err)
				}
			}
			return
		}
	}

	if !scan.IsSupported(path) || w.matcher.Ignore(path) {
		return
	}

	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
		w.debouncer.Add(path)
	}
}

func (w *Watcher) isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

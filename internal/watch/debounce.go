// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package watch

import (
	"sync"
	"time"
)

// Debouncer collects file paths and emits them as one batch after a quiet
// period. Editors often write a file several times in quick succession;
// collapsing the burst avoids converting the same document repeatedly.
type Debouncer struct {
	interval time.Duration

	mu    sync.Mutex
	paths map[string]struct{}
	timer *time.Timer

	output chan []string
}

// NewDebouncer creates a debouncer with the given quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		paths:    make(map[string]struct{}),
		output:   make(chan []string, 16),
	}
}

// Output returns the channel receiving batched paths.
func (d *Debouncer) Output() <-chan []string {
	return d.output
}

// Add records a changed path and restarts the quiet-period timer.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.paths[path] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	if len(d.paths) == 0 {
		d.mu.Unlock()
		return
	}

	batch := make([]string, 0, len(d.paths))
	for path := range d.paths {
		batch = append(batch, path)
	}
	d.paths = make(map[string]struct{})
	d.mu.Unlock()

	// Never block holding the lock: a slow consumer would otherwise stall
	// Add and the watcher event loop. When the channel is full, fold the
	// batch back in and retry after the next quiet period.
	select {
	case d.output <- batch:
	default:
		d.mu.Lock()
		for _, path := range batch {
			d.paths[path] = struct{}{}
		}
		if d.timer != nil {
			d.timer.Stop()
		}
		d.timer = time.AfterFunc(d.interval, d.flush)
		d.mu.Unlock()
	}
}

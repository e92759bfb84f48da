// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry persists the mapping from source files to their last-seen
// fingerprints and produced outputs. The registry is what makes incremental
// runs possible: the dispatcher consults it to decide whether a file needs
// reconversion, and updates it only after a successful conversion.
package registry

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/any2md/pkg/types"
)

const (
	jsonFileName   = "file_registry.json"
	sqliteFileName = "file_registry.db"
)

// Store holds registry entries in memory and persists them across runs.
// Implementations must never partially write an entry: Save either replaces
// the whole persisted state or leaves the previous state intact.
type Store interface {
	// Get returns the entry for an absolute source path.
	Get(sourcePath string) (types.RegistryEntry, bool)

	// Put adds or overwrites the entry keyed by entry.SourcePath.
	Put(entry types.RegistryEntry)

	// Delete removes the entry for sourcePath if present.
	Delete(sourcePath string)

	// Entries returns all entries sorted by source path.
	Entries() []types.RegistryEntry

	// Len returns the number of entries.
	Len() int

	// Save persists the current state. For backends that commit on every
	// Put this is a no-op.
	Save() error

	// Close releases any underlying resources.
	Close() error
}

// Open loads the registry store described by cfg. A missing or corrupt
// persisted registry is not an error: it degrades to an empty registry and
// therefore to full reconversion. processedDir anchors the default location
// when cfg.Path is empty.
func Open(cfg types.RegistryConfig, processedDir string, logger *log.Logger) (Store, error) {
	switch cfg.Backend {
	case types.RegistryJSON, "":
		path := cfg.Path
		if path == "" {
			path = filepath.Join(processedDir, jsonFileName)
		}
		return openJSON(path, logger)
	case types.RegistrySQLite:
		path := cfg.Path
		if path == "" {
			path = filepath.Join(processedDir, sqliteFileName)
		}
		return openSQLite(path)
	default:
		return nil, fmt.Errorf("unknown registry backend %q: use json or sqlite", cfg.Backend)
	}
}

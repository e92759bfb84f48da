// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/any2md/pkg/types"
)

// jsonStore keeps all entries in memory and serializes the whole map to a
// single JSON document on Save. Unknown fields in a persisted entry are
// ignored on load, so older binaries can read registries written by newer
// ones.
type jsonStore struct {
	path    string
	entries map[string]types.RegistryEntry
}

func openJSON(path string, logger *log.Logger) (*jsonStore, error) {
	s := &jsonStore{
		path:    path,
		entries: make(map[string]types.RegistryEntry),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		logger.Warn("registry unreadable, starting empty", "path", path, "err", err)
		return s, nil
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		logger.Warn("registry malformed, starting empty", "path", path, "err", err)
		s.entries = make(map[string]types.RegistryEntry)
	}
	return s, nil
}

func (s *jsonStore) Get(sourcePath string) (types.RegistryEntry, bool) {
	entry, ok := s.entries[sourcePath]
	return entry, ok
}

func (s *jsonStore) Put(entry types.RegistryEntry) {
	s.entries[entry.SourcePath] = entry
}

func (s *jsonStore) Delete(sourcePath string) {
	delete(s.entries, sourcePath)
}

func (s *jsonStore) Entries() []types.RegistryEntry {
	entries := make([]types.RegistryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SourcePath < entries[j].SourcePath
	})
	return entries
}

func (s *jsonStore) Len() int {
	return len(s.entries)
}

// Save writes the registry to a temporary file in the target directory and
// renames it into place, so a crash mid-write leaves the previous registry
// readable.
func (s *jsonStore) Save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating registry directory: %w", err)
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}

	tmp, err := os.CreateTemp(dir, jsonFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary registry file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing registry file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing registry file: %w", err)
	}
	return nil
}

func (s *jsonStore) Close() error {
	return nil
}

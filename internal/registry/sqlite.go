// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/any2md/pkg/types"
)

// sqliteStore commits each Put to the database immediately, so a killed run
// loses at most the file that was in flight. Entries are mirrored in memory
// for cheap lookups during the run.
type sqliteStore struct {
	db      *sql.DB
	entries map[string]types.RegistryEntry

	// execErr remembers the first failed upsert or delete so Save can
	// surface it.
	execErr error
}

func openSQLite(path string) (*sqliteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating registry directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening registry database: %w", err)
	}

	s := &sqliteStore{
		db:      db,
		entries: make(map[string]types.RegistryEntry),
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating registry schema: %w", err)
	}
	if err := s.loadAll(); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading registry: %w", err)
	}
	return s, nil
}

func (s *sqliteStore) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		source_path TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		mtime INTEGER NOT NULL,
		sha256 TEXT NOT NULL,
		output_path TEXT NOT NULL,
		last_processed_at TEXT NOT NULL
	)`)
	return err
}

func (s *sqliteStore) loadAll() error {
	rows, err := s.db.Query(
		`SELECT source_path, size, mtime, sha256, output_path, last_processed_at FROM entries`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var entry types.RegistryEntry
		var processedAt string
		if err := rows.Scan(
			&entry.SourcePath,
			&entry.Fingerprint.Size,
			&entry.Fingerprint.ModTime,
			&entry.Fingerprint.SHA256,
			&entry.OutputPath,
			&processedAt,
		); err != nil {
			return err
		}
		if ts, err := time.Parse(time.RFC3339Nano, processedAt); err == nil {
			entry.LastProcessedAt = ts
		}
		s.entries[entry.SourcePath] = entry
	}
	return rows.Err()
}

func (s *sqliteStore) Get(sourcePath string) (types.RegistryEntry, bool) {
	entry, ok := s.entries[sourcePath]
	return entry, ok
}

func (s *sqliteStore) Put(entry types.RegistryEntry) {
	s.entries[entry.SourcePath] = entry

	// Commit immediately so a killed run keeps every completed file.
	_, err := s.db.Exec(
		`INSERT INTO entries (source_path, size, mtime, sha256, output_path, last_processed_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source_path) DO UPDATE SET
			size=excluded.size, mtime=excluded.mtime, sha256=excluded.sha256,
			output_path=excluded.output_path, last_processed_at=excluded.last_processed_at`,
		entry.SourcePath,
		entry.Fingerprint.Size,
		entry.Fingerprint.ModTime,
		entry.Fingerprint.SHA256,
		entry.OutputPath,
		entry.LastProcessedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil && s.execErr == nil {
		s.execErr = fmt.Errorf("upserting %s: %w", entry.SourcePath, err)
	}
}

func (s *sqliteStore) Delete(sourcePath string) {
	delete(s.entries, sourcePath)
	if _, err := s.db.Exec(`DELETE FROM entries WHERE source_path = ?`, sourcePath); err != nil && s.execErr == nil {
		s.execErr = fmt.Errorf("deleting %s: %w", sourcePath, err)
	}
}

func (s *sqliteStore) Entries() []types.RegistryEntry {
	entries := make([]types.RegistryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SourcePath < entries[j].SourcePath
	})
	return entries
}

func (s *sqliteStore) Len() int {
	return len(s.entries)
}

// Save reports any upsert or delete failure from the run; the data itself
// was committed statement by statement.
func (s *sqliteStore) Save() error {
	return s.execErr
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

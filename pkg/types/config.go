// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConversionBackend identifies the document-to-Markdown conversion tool.
type ConversionBackend string

const (
	// BackendMarkitdown pipes documents through the markitdown container image.
	BackendMarkitdown ConversionBackend = "markitdown"
	// BackendNative uses the built-in extractors (plain text and PDF only).
	BackendNative ConversionBackend = "native"
)

// RegistryBackend identifies how the file registry is persisted.
type RegistryBackend string

const (
	// RegistryJSON stores the registry as a single JSON document,
	// rewritten atomically on save.
	RegistryJSON RegistryBackend = "json"
	// RegistrySQLite stores the registry in a SQLite database with one
	// committed upsert per processed file.
	RegistrySQLite RegistryBackend = "sqlite"
)

// ScanConfig holds settings for source tree scanning.
type ScanConfig struct {
	// SourceDir is the root directory scanned for convertible documents.
	SourceDir string `json:"source_dir" yaml:"source_dir"`

	// IgnorePatterns lists doublestar globs excluded from scanning,
	// matched against the path relative to SourceDir.
	IgnorePatterns []string `json:"ignore_patterns,omitempty" yaml:"ignore_patterns,omitempty"`

	// IgnoreFile is the name of an optional gitignore-syntax file at the
	// root of SourceDir (default ".any2mdignore").
	IgnoreFile string `json:"ignore_file,omitempty" yaml:"ignore_file,omitempty"`
}

// ConversionConfig holds settings for the conversion stage.
type ConversionConfig struct {
	// Backend selects the conversion tool: markitdown or native.
	Backend ConversionBackend `json:"backend" yaml:"backend"`

	// ProcessedDir is the root directory for Markdown output. The output
	// tree mirrors the source tree.
	ProcessedDir string `json:"processed_dir" yaml:"processed_dir"`

	// Incremental skips files whose registry fingerprint is unchanged and
	// whose output still exists. When false every scanned file is converted.
	Incremental bool `json:"incremental" yaml:"incremental"`

	// Frontmatter prepends a YAML header (source path, content hash,
	// conversion timestamp) to each output file.
	Frontmatter bool `json:"frontmatter" yaml:"frontmatter"`

	// MarkitdownImage is the container image used by the markitdown backend.
	MarkitdownImage string `json:"markitdown_image,omitempty" yaml:"markitdown_image,omitempty"`
}

// RegistryConfig holds settings for registry persistence.
type RegistryConfig struct {
	// Backend selects the persistence mechanism: json or sqlite.
	Backend RegistryBackend `json:"backend" yaml:"backend"`

	// Path is the registry file location. When empty it defaults to
	// file_registry.json (or .db) under the processed directory.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// WatchConfig holds settings for watch mode.
type WatchConfig struct {
	// Debounce is the quiet period before a burst of file system events
	// triggers a conversion run (default 500ms).
	Debounce time.Duration `json:"debounce" yaml:"debounce"`
}

// ToolConfig groups all stage configurations. It is built once at startup
// from flags, environment, and the optional config file, then passed
// explicitly to the runner; nothing reads configuration ambiently.
type ToolConfig struct {
	Scan       ScanConfig       `json:"scan" yaml:"scan"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	Registry   RegistryConfig   `json:"registry" yaml:"registry"`
	Watch      WatchConfig      `json:"watch" yaml:"watch"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Fingerprint is a change-detection signature for a source file. Two
// fingerprints are equal only when size, modification time, and content
// hash all match; a touched-but-unchanged file therefore still triggers
// reconversion, while the hash guards against edits that land within the
// filesystem timestamp resolution.
type Fingerprint struct {
	// Size is the file size in bytes.
	Size int64 `json:"size" yaml:"size"`

	// ModTime is the file modification time in Unix nanoseconds.
	ModTime int64 `json:"mtime" yaml:"mtime"`

	// SHA256 is the hex-encoded SHA-256 digest of the file contents.
	SHA256 string `json:"sha256" yaml:"sha256"`
}

// Equal reports whether two fingerprints describe the same file state.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.Size == other.Size && f.ModTime == other.ModTime && f.SHA256 == other.SHA256
}

// RegistryEntry records the last successful conversion of one source file.
// Entries are only added or overwritten, never partially updated.
type RegistryEntry struct {
	// SourcePath is the absolute path of the source file, the unique key.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// Fingerprint is the signature of the file at conversion time.
	Fingerprint Fingerprint `json:"fingerprint" yaml:"fingerprint"`

	// OutputPath is the Markdown file produced for this source.
	OutputPath string `json:"output_path" yaml:"output_path"`

	// LastProcessedAt is the time of the last successful conversion.
	LastProcessedAt time.Time `json:"last_processed_at" yaml:"last_processed_at"`
}

// FileStatus is the terminal state of one file within a single run.
type FileStatus string

const (
	// FileConverted means the converter ran and the output was written.
	FileConverted FileStatus = "converted"
	// FileSkipped means the registry showed the file up to date.
	FileSkipped FileStatus = "skipped"
	// FileFailed means fingerprinting, conversion, or the output write
	// failed. The registry is left untouched so the file is retried on
	// the next run.
	FileFailed FileStatus = "failed"
)

// Summary aggregates the per-file outcomes of one conversion run.
type Summary struct {
	// RunID identifies the run in diagnostic logs.
	RunID string `json:"run_id" yaml:"run_id"`

	Converted int `json:"converted" yaml:"converted"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Failed    int `json:"failed" yaml:"failed"`
}

// Total returns the number of files processed.
func (s Summary) Total() int {
	return s.Converted + s.Skipped + s.Failed
}

// HasFailures reports whether any file failed during the run.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

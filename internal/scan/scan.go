// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scan enumerates convertible documents under a source tree.
package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/any2md/pkg/types"
)

// supportedExtensions is the static set of document formats the tool
// converts. Matching is case-insensitive.
var supportedExtensions = map[string]struct{}{
	".txt":      {},
	".md":       {},
	".markdown": {},
	".ppt":      {},
	".pptx":     {},
	".doc":      {},
	".docx":     {},
	".pdf":      {},
}

// IsSupported reports whether the file at path has a convertible extension.
func IsSupported(path string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Scanner walks a source tree and returns candidate files in a stable order.
type Scanner struct {
	matcher *Matcher
	logger  *log.Logger
}

// New builds a scanner for cfg.SourceDir, loading ignore rules from the
// configured patterns and ignore file.
func New(cfg types.ScanConfig, logger *log.Logger) (*Scanner, error) {
	matcher, err := NewMatcher(cfg)
	if err != nil {
		return nil, err
	}
	return &Scanner{matcher: matcher, logger: logger}, nil
}

// Matcher exposes the scanner's ignore rules, e.g. to the watcher.
func (s *Scanner) Matcher() *Matcher {
	return s.matcher
}

// Scan recursively visits sourceDir and returns the supported files in
// lexical order, so repeated runs over an unchanged tree produce identical
// sequences. Symlinked directories are not followed, which also rules out
// symlink cycles. A missing or unreadable source directory is fatal;
// unreadable subtrees are logged and skipped.
func (s *Scanner) Scan(sourceDir string) ([]string, error) {
	var files []string
	rootSeen := false

	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if !rootSeen {
				return fmt.Errorf("scanning source directory %s: %w", sourceDir, err)
			}
			s.logger.Warn("skipping unreadable entry", "path", path, "err", err)
			return nil
		}
		if path == sourceDir {
			rootSeen = true
			if !d.IsDir() {
				return fmt.Errorf("source path %s is not a directory", sourceDir)
			}
			return nil
		}

		if d.IsDir() {
			if s.matcher.IgnoreDir(path) {
				return filepath.SkipDir
			}
			return nil
		}

		// WalkDir reports symlinks without resolving them; skipping here
		// keeps symlinked directories (and cycles) out of the walk.
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if !IsSupported(path) || s.matcher.Ignore(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

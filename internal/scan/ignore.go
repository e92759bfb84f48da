// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"

	"github.com/pdiddy/any2md/pkg/types"
)

// DefaultIgnoreFile is the gitignore-syntax exclusion file honored at the
// source tree root.
const DefaultIgnoreFile = ".any2mdignore"

// Matcher decides which paths the scanner and watcher should skip. It
// combines three rule sources: hidden files and directories, an optional
// gitignore-syntax file at the source root, and doublestar globs from the
// command line or config.
type Matcher struct {
	rootDir  string
	ignore   gitignore.GitIgnore
	patterns []string
}

// NewMatcher loads ignore rules for cfg.SourceDir. Invalid doublestar
// patterns are rejected up front so a typo fails the run before any file is
// touched.
func NewMatcher(cfg types.ScanConfig) (*Matcher, error) {
	for _, pattern := range cfg.IgnorePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}

	name := cfg.IgnoreFile
	if name == "" {
		name = DefaultIgnoreFile
	}

	m := &Matcher{
		rootDir:  cfg.SourceDir,
		patterns: cfg.IgnorePatterns,
	}

	if f, err := os.Open(filepath.Join(cfg.SourceDir, name)); err == nil {
		m.ignore = gitignore.New(f, cfg.SourceDir, nil)
		f.Close()
	}

	return m, nil
}

// Ignore reports whether the file at path should be excluded from scanning.
func (m *Matcher) Ignore(path string) bool {
	return m.ignored(path, false)
}

// IgnoreDir reports whether the directory at path should be skipped
// entirely.
func (m *Matcher) IgnoreDir(path string) bool {
	return m.ignored(path, true)
}

func (m *Matcher) ignored(path string, isDir bool) bool {
	rel, err := filepath.Rel(m.rootDir, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	// Hidden entries (including the ignore file itself) never convert.
	if strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}

	if m.ignore != nil {
		if match := m.ignore.Relative(rel, isDir); match != nil && match.Ignore() {
			return true
		}
	}

	for _, pattern := range m.patterns {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

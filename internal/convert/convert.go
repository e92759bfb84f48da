// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns source documents into Markdown files and decides,
// per file, whether conversion is needed at all. The decision logic lives in
// Dispatcher; the actual format decoding is delegated to a Converter backend.
package convert

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/any2md/internal/fingerprint"
	"github.com/pdiddy/any2md/internal/registry"
	"github.com/pdiddy/any2md/pkg/types"
)

// Converter transforms one document into Markdown text. This is the only
// contract required from a conversion library; any backend offering this
// shape is substitutable.
type Converter interface {
	// Convert reads the document at path and returns its Markdown rendering.
	Convert(path string) (string, error)
}

// ErrUnsupported is returned by backends that cannot decode the given
// document format.
var ErrUnsupported = errors.New("unsupported document format")

// Dispatcher decides per file whether to convert, invokes the backend, and
// records successful outcomes in the registry. Per-file errors never
// propagate: they become a failed status and the run continues.
type Dispatcher struct {
	converter Converter
	store     registry.Store
	cfg       types.ConversionConfig
	sourceDir string
	logger    *log.Logger
	out       io.Writer
}

// NewDispatcher wires a dispatcher for one run. Status lines for each file
// are written to out; diagnostics go to the logger.
func NewDispatcher(converter Converter, store registry.Store, cfg types.ConversionConfig, sourceDir string, logger *log.Logger, out io.Writer) *Dispatcher {
	return &Dispatcher{
		converter: converter,
		store:     store,
		cfg:       cfg,
		sourceDir: sourceDir,
		logger:    logger,
		out:       out,
	}
}

// OutputPath maps a source file to its Markdown output: the source-relative
// path re-rooted under processedDir with the extension replaced by .md.
func OutputPath(sourceDir, processedDir, path string) (string, error) {
	rel, err := filepath.Rel(sourceDir, path)
	if err != nil {
		return "", fmt.Errorf("relativizing %s against %s: %w", path, sourceDir, err)
	}
	ext := filepath.Ext(rel)
	return filepath.Join(processedDir, strings.TrimSuffix(rel, ext)+".md"), nil
}

// Process runs one file through the decision logic and returns its terminal
// status for this run.
func (d *Dispatcher) Process(path string) types.FileStatus {
	name, err := filepath.Rel(d.sourceDir, path)
	if err != nil {
		name = path
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return d.fail(name, err)
	}

	outPath, err := OutputPath(d.sourceDir, d.cfg.ProcessedDir, path)
	if err != nil {
		return d.fail(name, err)
	}

	fp, err := fingerprint.Compute(abs)
	if err != nil {
		return d.fail(name, err)
	}

	if d.cfg.Incremental && d.upToDate(abs, fp) {
		fmt.Fprintf(d.out, "skipped:   %s (up to date)\n", name)
		return types.FileSkipped
	}

	markdown, err := d.converter.Convert(abs)
	if err != nil {
		return d.fail(name, err)
	}

	// Converted office documents occasionally carry NUL bytes; strip them
	// so the output is valid text everywhere.
	markdown = strings.ReplaceAll(markdown, "\x00", "")

	if d.cfg.Frontmatter {
		markdown = addFrontmatter(abs, fp, markdown)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return d.fail(name, err)
	}
	if err := os.WriteFile(outPath, []byte(markdown), 0o644); err != nil {
		return d.fail(name, err)
	}

	d.store.Put(types.RegistryEntry{
		SourcePath:      abs,
		Fingerprint:     fp,
		OutputPath:      outPath,
		LastProcessedAt: time.Now().UTC(),
	})

	fmt.Fprintf(d.out, "converted: %s -> %s\n", name, outPath)
	return types.FileConverted
}

// upToDate reports whether the registry proves the file needs no work: an
// entry exists, its fingerprint matches, and its recorded output is still on
// disk. A registry hit whose output was deleted externally is not up to date.
func (d *Dispatcher) upToDate(abs string, fp types.Fingerprint) bool {
	entry, ok := d.store.Get(abs)
	if !ok {
		return false
	}
	if !entry.Fingerprint.Equal(fp) {
		return false
	}
	if _, err := os.Stat(entry.OutputPath); err != nil {
		return false
	}
	return true
}

func (d *Dispatcher) fail(name string, err error) types.FileStatus {
	fmt.Fprintf(d.out, "failed:    %s (%v)\n", name, err)
	d.logger.Error("conversion failed", "file", name, "err", err)
	return types.FileFailed
}

// addFrontmatter prepends a YAML header with the source provenance.
func addFrontmatter(sourcePath string, fp types.Fingerprint, body string) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "source: %q\n", sourcePath)
	fmt.Fprintf(&b, "sha256: %q\n", fp.SHA256)
	fmt.Fprintf(&b, "converted_at: %q\n", time.Now().UTC().Format(time.RFC3339))
	b.WriteString("---\n\n")
	b.WriteString(body)
	return b.String()
}

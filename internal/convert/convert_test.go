// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/any2md/internal/registry"
	"github.com/pdiddy/any2md/pkg/types"
)

// fakeConverter returns canned Markdown or an error and counts invocations.
type fakeConverter struct {
	output string
	err    error
	calls  int
}

func (f *fakeConverter) Convert(path string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

type dispatcherFixture struct {
	sourceDir    string
	processedDir string
	store        registry.Store
	log          bytes.Buffer
}

func newFixture(t *testing.T) *dispatcherFixture {
	t.Helper()
	root := t.TempDir()
	fx := &dispatcherFixture{
		sourceDir:    filepath.Join(root, "source"),
		processedDir: filepath.Join(root, "processed"),
	}
	if err := os.MkdirAll(fx.sourceDir, 0o755); err != nil {
		t.Fatal(err)
	}
	store, err := registry.Open(types.RegistryConfig{Backend: types.RegistryJSON}, fx.processedDir, log.New(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	fx.store = store
	return fx
}

func (fx *dispatcherFixture) dispatcher(conv Converter, incremental bool) *Dispatcher {
	cfg := types.ConversionConfig{
		ProcessedDir: fx.processedDir,
		Incremental:  incremental,
	}
	return NewDispatcher(conv, fx.store, cfg, fx.sourceDir, log.New(io.Discard), &fx.log)
}

func (fx *dispatcherFixture) writeSource(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(fx.sourceDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"top level", "source/a.txt", "processed/a.md"},
		{"nested", "source/sub/b.pdf", "processed/sub/b.md"},
		{"uppercase extension", "source/notes.TXT", "processed/notes.md"},
		{"already markdown", "source/readme.md", "processed/readme.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OutputPath("source", "processed", filepath.FromSlash(tt.path))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("OutputPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProcess_ConvertsAndRegisters(t *testing.T) {
	fx := newFixture(t)
	src := fx.writeSource(t, "sub/doc.txt", "body")
	d := fx.dispatcher(&fakeConverter{output: "# Doc"}, false)

	status := d.Process(src)
	if status != types.FileConverted {
		t.Fatalf("status = %q, want converted", status)
	}

	outPath := filepath.Join(fx.processedDir, "sub", "doc.md")
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if string(data) != "# Doc" {
		t.Errorf("output = %q, want %q", data, "# Doc")
	}

	abs, _ := filepath.Abs(src)
	entry, ok := fx.store.Get(abs)
	if !ok {
		t.Fatal("registry entry missing after success")
	}
	if entry.OutputPath != outPath {
		t.Errorf("entry output = %q, want %q", entry.OutputPath, outPath)
	}
	if entry.LastProcessedAt.IsZero() {
		t.Error("entry timestamp not set")
	}
	if !strings.Contains(fx.log.String(), "converted:") {
		t.Errorf("status log missing converted line: %q", fx.log.String())
	}
}

func TestProcess_IncrementalSkipsUnchanged(t *testing.T) {
	fx := newFixture(t)
	src := fx.writeSource(t, "doc.txt", "body")
	conv := &fakeConverter{output: "# Doc"}
	d := fx.dispatcher(conv, true)

	if status := d.Process(src); status != types.FileConverted {
		t.Fatalf("first pass status = %q, want converted", status)
	}
	if status := d.Process(src); status != types.FileSkipped {
		t.Fatalf("second pass status = %q, want skipped", status)
	}
	if conv.calls != 1 {
		t.Errorf("converter called %d times, want 1", conv.calls)
	}
	if !strings.Contains(fx.log.String(), "skipped:") {
		t.Errorf("status log missing skipped line: %q", fx.log.String())
	}
}

func TestProcess_NonIncrementalAlwaysConverts(t *testing.T) {
	fx := newFixture(t)
	src := fx.writeSource(t, "doc.txt", "body")
	conv := &fakeConverter{output: "# Doc"}
	d := fx.dispatcher(conv, false)

	d.Process(src)
	if status := d.Process(src); status != types.FileConverted {
		t.Fatalf("status = %q, want converted on every pass", status)
	}
	if conv.calls != 2 {
		t.Errorf("converter called %d times, want 2", conv.calls)
	}
}

func TestProcess_ChangedContentReconverts(t *testing.T) {
	fx := newFixture(t)
	src := fx.writeSource(t, "doc.txt", "version one")
	conv := &fakeConverter{output: "# Doc"}
	d := fx.dispatcher(conv, true)

	d.Process(src)
	fx.writeSource(t, "doc.txt", "version two, longer")

	if status := d.Process(src); status != types.FileConverted {
		t.Fatalf("status after edit = %q, want converted", status)
	}
	if conv.calls != 2 {
		t.Errorf("converter called %d times, want 2", conv.calls)
	}
}

func TestProcess_DeletedOutputReconverts(t *testing.T) {
	fx := newFixture(t)
	src := fx.writeSource(t, "doc.txt", "body")
	conv := &fakeConverter{output: "# Doc"}
	d := fx.dispatcher(conv, true)

	d.Process(src)
	outPath := filepath.Join(fx.processedDir, "doc.md")
	if err := os.Remove(outPath); err != nil {
		t.Fatal(err)
	}

	// Fingerprint is unchanged, but the missing output must not count as done.
	if status := d.Process(src); status != types.FileConverted {
		t.Fatalf("status after output deletion = %q, want converted", status)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output not recreated: %v", err)
	}
}

func TestProcess_FailureLeavesRegistryUntouched(t *testing.T) {
	fx := newFixture(t)
	src := fx.writeSource(t, "corrupt.docx", "not really a docx")
	d := fx.dispatcher(&fakeConverter{err: errors.New("parse error")}, true)

	if status := d.Process(src); status != types.FileFailed {
		t.Fatalf("status = %q, want failed", status)
	}

	abs, _ := filepath.Abs(src)
	if _, ok := fx.store.Get(abs); ok {
		t.Error("registry must not record failed conversions")
	}
	if _, err := os.Stat(filepath.Join(fx.processedDir, "corrupt.md")); !os.IsNotExist(err) {
		t.Error("no output file may exist for a failed conversion")
	}
	if !strings.Contains(fx.log.String(), "failed:") {
		t.Errorf("status log missing failed line: %q", fx.log.String())
	}
}

func TestProcess_VanishedFileFails(t *testing.T) {
	fx := newFixture(t)
	gone := filepath.Join(fx.sourceDir, "gone.pdf")
	d := fx.dispatcher(&fakeConverter{output: "unused"}, true)

	if status := d.Process(gone); status != types.FileFailed {
		t.Fatalf("status = %q, want failed for vanished file", status)
	}
}

func TestProcess_StripsNULBytes(t *testing.T) {
	fx := newFixture(t)
	src := fx.writeSource(t, "doc.txt", "body")
	d := fx.dispatcher(&fakeConverter{output: "before\x00after"}, false)

	d.Process(src)
	data, err := os.ReadFile(filepath.Join(fx.processedDir, "doc.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "beforeafter" {
		t.Errorf("output = %q, want NULs stripped", data)
	}
}

func TestProcess_Frontmatter(t *testing.T) {
	fx := newFixture(t)
	src := fx.writeSource(t, "doc.txt", "body")
	cfg := types.ConversionConfig{
		ProcessedDir: fx.processedDir,
		Frontmatter:  true,
	}
	d := NewDispatcher(&fakeConverter{output: "# Doc"}, fx.store, cfg, fx.sourceDir, log.New(io.Discard), &fx.log)

	d.Process(src)
	data, err := os.ReadFile(filepath.Join(fx.processedDir, "doc.md"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "---\n") {
		t.Error("output should start with a YAML frontmatter delimiter")
	}
	for _, field := range []string{"source:", "sha256:", "converted_at:"} {
		if !strings.Contains(content, field) {
			t.Errorf("frontmatter missing %s", field)
		}
	}
	if !strings.Contains(content, "# Doc") {
		t.Error("output should still contain the Markdown body")
	}
}

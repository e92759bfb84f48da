// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// NativeConverter decodes documents without external tools. Plain text and
// Markdown pass through as-is; PDFs are reduced to their text layer page by
// page. Office formats need the markitdown backend and return
// ErrUnsupported here.
type NativeConverter struct{}

// Convert implements Converter.
func (n *NativeConverter) Convert(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		return string(data), nil
	case ".pdf":
		return extractPDF(path)
	default:
		return "", fmt.Errorf("%s: %w (the markitdown backend handles office formats)", filepath.Base(path), ErrUnsupported)
	}
}

// extractPDF pulls the plain-text layer out of each page, separated by
// horizontal rules. Scanned PDFs without a text layer come out empty and
// are treated as failures rather than silently producing blank output.
func extractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	var b strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("reading page %d of %s: %w", pageNum, path, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if b.Len() > 0 {
			b.WriteString("\n\n---\n\n")
		}
		b.WriteString(text)
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("no extractable text in %s", path)
	}
	return b.String(), nil
}

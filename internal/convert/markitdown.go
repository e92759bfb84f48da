// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pdiddy/any2md/internal/container"
)

// DefaultMarkitdownImage is the container image used when none is configured.
const DefaultMarkitdownImage = "markitdown:latest"

// MarkitdownConverter converts documents by piping them through the
// markitdown container image, which handles every format the tool scans
// (text, PDF, and office documents). It depends on a container.Runtime
// (docker or podman) injected at construction time.
type MarkitdownConverter struct {
	runtime container.Runtime
	image   string
}

// NewMarkitdownConverter creates a converter backed by the given container
// runtime. It verifies up front that the image exists locally; a missing
// image is a startup error, not a per-file one.
func NewMarkitdownConverter(rt container.Runtime, image string) (*MarkitdownConverter, error) {
	if image == "" {
		image = DefaultMarkitdownImage
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownConverter{runtime: rt, image: image}, nil
}

// Convert pipes the document at path through the markitdown container and
// returns the resulting Markdown text.
func (m *MarkitdownConverter) Convert(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(m.image, f, &out); err != nil {
		return "", fmt.Errorf("converting %s with markitdown: %w", path, err)
	}

	if out.Len() == 0 {
		return "", fmt.Errorf("markitdown produced empty output for %s", path)
	}
	return out.String(), nil
}

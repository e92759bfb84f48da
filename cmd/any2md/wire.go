// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/any2md/internal/container"
	"github.com/pdiddy/any2md/internal/convert"
	"github.com/pdiddy/any2md/internal/registry"
	"github.com/pdiddy/any2md/internal/scan"
	"github.com/pdiddy/any2md/pkg/types"
)

// newConverter selects the conversion backend. Backend problems (no
// container runtime, missing image, unknown name) are startup errors.
func newConverter(cfg types.ConversionConfig, logger *log.Logger) (convert.Converter, error) {
	switch cfg.Backend {
	case types.BackendMarkitdown, "":
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		logger.Debug("container runtime detected", "runtime", rt.Name())
		return convert.NewMarkitdownConverter(rt, cfg.MarkitdownImage)
	case types.BackendNative:
		return &convert.NativeConverter{}, nil
	default:
		return nil, fmt.Errorf("unknown conversion backend %q: use markitdown or native", cfg.Backend)
	}
}

// newRunner assembles the scanner, converter, registry store, dispatcher,
// and runner for one invocation. The caller owns closing the returned store.
func newRunner(cfg types.ToolConfig, logger *log.Logger, out io.Writer) (*convert.Runner, registry.Store, error) {
	scanner, err := scan.New(cfg.Scan, logger)
	if err != nil {
		return nil, nil, err
	}

	converter, err := newConverter(cfg.Conversion, logger)
	if err != nil {
		return nil, nil, err
	}

	store, err := registry.Open(cfg.Registry, cfg.Conversion.ProcessedDir, logger)
	if err != nil {
		return nil, nil, err
	}

	dispatcher := convert.NewDispatcher(converter, store, cfg.Conversion, cfg.Scan.SourceDir, logger, out)
	runner := convert.NewRunner(scanner, dispatcher, store, cfg.Scan.SourceDir, logger, out)
	return runner, store, nil
}

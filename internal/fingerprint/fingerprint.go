// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fingerprint computes change-detection signatures for source files.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/any2md/pkg/types"
)

// Compute returns the fingerprint of the file at path: size, modification
// time, and SHA-256 content hash. It fails when the file is unreadable or
// vanished between scanning and fingerprinting; callers count that as a
// per-file failure and continue the run.
func Compute(path string) (types.Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.Fingerprint{}, fmt.Errorf("stating %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return types.Fingerprint{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return types.Fingerprint{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	return types.Fingerprint{
		Size:    info.Size(),
		ModTime: info.ModTime().UnixNano(),
		SHA256:  hex.EncodeToString(h.Sum(nil)),
	}, nil
}

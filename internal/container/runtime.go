// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container detects and drives a local container runtime. The
// markitdown conversion backend uses it to pipe documents through a
// converter image without the host needing a Python toolchain.
package container

import (
	"fmt"
	"io"
	"os/exec"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Runtime provides the container operations the conversion backend needs:
// availability and image checks plus a stdin/stdout piped run.
type Runtime interface {
	// Name returns the runtime binary name ("docker" or "podman").
	Name() string

	// Available reports whether the binary is on PATH and responds to an
	// info command.
	Available() bool

	// ImageExists returns nil when the named image is present locally.
	ImageExists(image string) error

	// Run executes a one-shot container, piping stdin in and stdout out.
	Run(image string, stdin io.Reader, stdout io.Writer) error
}

// executor abstracts command execution so tests can run without a real
// container runtime installed.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	RunPiped(name string, args []string, stdin io.Reader, stdout io.Writer) error
}

type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (osExecutor) RunPiped(name string, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	return cmd.Run()
}

// cliRuntime implements Runtime for one container binary. Docker and podman
// share the invocation shape; only the binary name and the image-existence
// subcommand differ.
type cliRuntime struct {
	bin           string
	imageCheckCmd []string
	exec          executor
}

func (r *cliRuntime) Name() string { return r.bin }

func (r *cliRuntime) Available() bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(r.bin, "info") == nil
}

func (r *cliRuntime) ImageExists(image string) error {
	args := append(append([]string{}, r.imageCheckCmd...), image)
	if err := r.exec.RunSilent(r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *cliRuntime) Run(image string, stdin io.Reader, stdout io.Writer) error {
	if err := r.exec.RunPiped(r.bin, []string{"run", "--rm", "-i", image}, stdin, stdout); err != nil {
		return fmt.Errorf("running %s container %s: %w", r.bin, image, err)
	}
	return nil
}

func newDockerRuntime(exec executor) *cliRuntime {
	return &cliRuntime{bin: binDocker, imageCheckCmd: []string{"image", "inspect"}, exec: exec}
}

func newPodmanRuntime(exec executor) *cliRuntime {
	return &cliRuntime{bin: binPodman, imageCheckCmd: []string{"image", "exists"}, exec: exec}
}

var defaultExec = osExecutor{}

// DetectRuntime returns docker when operational, podman as a fallback, or an
// error when neither is usable.
func DetectRuntime() (Runtime, error) {
	return detectRuntime(defaultExec)
}

func detectRuntime(exec executor) (Runtime, error) {
	if docker := newDockerRuntime(exec); docker.Available() {
		return docker, nil
	}
	if podman := newPodmanRuntime(exec); podman.Available() {
		return podman, nil
	}
	return nil, fmt.Errorf("no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman)
}

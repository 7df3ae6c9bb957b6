package multipass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

const binaryName = "multipass"

// Result holds the outcome of a captured multipass invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner abstracts process execution so tests can record the argv vectors
// the client issues without a multipass binary present. Run captures
// output; a nonzero exit is reported through Result, not err. Interactive
// attaches the invocation to the caller's stdio and yields only the exit
// code. Both return err only when the process could not be run at all.
type Runner interface {
	Run(ctx context.Context, args ...string) (Result, error)
	Interactive(ctx context.Context, args ...string) (int, error)
}

type execRunner struct{}

// NewRunner returns a Runner that invokes the multipass binary.
func NewRunner() Runner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, binaryName, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("run %s: %w", binaryName, err)
	}
	return res, nil
}

func (execRunner) Interactive(ctx context.Context, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, binaryName, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("run %s: %w", binaryName, err)
}

// Installed reports whether the multipass binary resolves on PATH.
func Installed() bool {
	_, err := exec.LookPath(binaryName)
	return err == nil
}

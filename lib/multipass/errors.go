package multipass

import "errors"

var (
	// ErrNotInstalled is returned when the multipass binary does not
	// resolve on PATH. Callers abort before any VM interaction.
	ErrNotInstalled = errors.New("multipass is not installed (see https://multipass.run/)")

	// ErrCommandFailed is returned when a multipass invocation exits
	// nonzero in a checked context.
	ErrCommandFailed = errors.New("multipass command failed")
)

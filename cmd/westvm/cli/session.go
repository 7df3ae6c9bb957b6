package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/westvm/westvm/cmd/westvm/config"
	"github.com/westvm/westvm/lib/guestpath"
	"github.com/westvm/westvm/lib/instance"
	"github.com/westvm/westvm/lib/multipass"
)

// Guest mount points for the host workspace. The build and test trees
// are kept apart so their artifact layouts never interfere.
const (
	buildMountRoot   = "/mnt/workspace"
	twisterMountRoot = "/mnt/workspace_vbuild"
)

// session bundles the per-invocation plumbing the proxy commands share:
// the platform client, the instance handle, the resolved host roots and
// the path virtualizer.
type session struct {
	client     *multipass.Client
	inst       *instance.Instance
	zephyrBase string // canonical host ZEPHYR_BASE
	workspace  string // canonical host workspace root
	resolver   guestpath.Resolver
}

// newSession resolves the host-side context every proxy command needs.
// It fails fast when multipass is missing or ZEPHYR_BASE is unset.
func newSession(cfg *config.Config, guestWorkspaceRoot string) (*session, error) {
	if !multipass.Installed() {
		return nil, fmt.Errorf("%w: install it from https://multipass.run/", multipass.ErrNotInstalled)
	}

	base := os.Getenv("ZEPHYR_BASE")
	if base == "" {
		return nil, errors.New("ZEPHYR_BASE is not set; run 'source zephyr-env.sh' or equivalent")
	}
	zephyrBase, err := guestpath.Canonical(base)
	if err != nil {
		return nil, fmt.Errorf("resolve ZEPHYR_BASE: %w", err)
	}

	workspace, err := findWorkspaceRoot(zephyrBase)
	if err != nil {
		return nil, err
	}

	client := multipass.NewClient(multipass.NewRunner())
	return &session{
		client:     client,
		inst:       instance.New(cfg, client),
		zephyrBase: zephyrBase,
		workspace:  workspace,
		resolver: guestpath.Resolver{
			WorkspaceRoot:      workspace,
			WorkspaceGuestRoot: guestWorkspaceRoot,
		},
	}, nil
}

// findWorkspaceRoot walks up from the working directory looking for a
// .west marker, falling back to the toolchain parent when the command
// runs outside any west workspace.
func findWorkspaceRoot(zephyrBase string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	dir, err := guestpath.Canonical(cwd)
	if err != nil {
		return "", err
	}
	for {
		if fi, err := os.Stat(filepath.Join(dir, ".west")); err == nil && fi.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return filepath.Dir(zephyrBase), nil
		}
		dir = parent
	}
}

// mountWorkspace binds the host workspace at the session's guest root.
func (s *session) mountWorkspace(ctx context.Context) error {
	return s.inst.MountHostPath(ctx, s.workspace, s.resolver.WorkspaceGuestRoot)
}

// mapPath translates a host path into the guest namespace, establishing
// a dedicated mount when the path lives outside the workspace.
func (s *session) mapPath(ctx context.Context, hostPath string) (string, error) {
	guest, needsMount, err := s.resolver.Map(hostPath)
	if err != nil {
		return "", err
	}
	if needsMount {
		if err := s.inst.MountHostPath(ctx, hostPath, guest); err != nil {
			return "", err
		}
	}
	return guest, nil
}

// pickSourceDir splits positional args into a source directory and the
// west passthrough remainder. Unless an explicit dir was flagged, the
// first arg naming an existing directory is taken as the source dir;
// everything else passes through. Empty means the working directory.
func pickSourceDir(args []string, explicit string) (sourceDir string, remainder []string) {
	sourceDir = explicit
	for _, arg := range args {
		if sourceDir == "" && len(arg) > 0 && arg[0] != '-' {
			if fi, err := os.Stat(arg); err == nil && fi.IsDir() {
				sourceDir = arg
				continue
			}
		}
		remainder = append(remainder, arg)
	}
	if sourceDir == "" {
		sourceDir, _ = os.Getwd()
	}
	return sourceDir, remainder
}

// exitCodeError carries a guest exit code to the process exit status.
type exitCodeError struct{ code int }

func (e exitCodeError) Error() string {
	return fmt.Sprintf("guest command exited with code %d", e.code)
}

func (e exitCodeError) ExitCode() int {
	return e.code
}

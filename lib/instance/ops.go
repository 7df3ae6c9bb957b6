package instance

import (
	"context"
	"fmt"
	"path"

	"github.com/westvm/westvm/lib/guestpath"
	"github.com/westvm/westvm/lib/logger"
)

// BuildDir returns the guest-local build directory for a host source
// directory. Callers pass the canonical host path so the fingerprint is
// stable across invocations and working directories.
func (i *Instance) BuildDir(canonicalSourceDir string) string {
	return path.Join(i.cfg.BuildsRoot, guestpath.Fingerprint(canonicalSourceDir))
}

// BuildsRoot returns the parent of all hashed build directories.
func (i *Instance) BuildsRoot() string {
	return i.cfg.BuildsRoot
}

// LocalSrcRoot returns the guest-local mirror root used by the sync
// accelerator.
func (i *Instance) LocalSrcRoot() string {
	return i.cfg.LocalSrcRoot
}

// EnsureGuestDir creates a directory inside the guest.
func (i *Instance) EnsureGuestDir(ctx context.Context, guestPath string) error {
	return i.run(ctx, "mkdir -p "+guestPath)
}

// DeleteDir removes a directory tree inside the guest.
func (i *Instance) DeleteDir(ctx context.Context, guestPath string) error {
	logger.FromContext(ctx).InfoContext(ctx, "deleting guest directory",
		"instance", i.name, "guest_path", guestPath)
	return i.run(ctx, "rm -rf "+guestPath)
}

// PullFile copies a file from the guest to the host.
func (i *Instance) PullFile(ctx context.Context, guestPath, hostPath string) error {
	logger.FromContext(ctx).InfoContext(ctx, "transferring file from guest",
		"instance", i.name, "guest_path", guestPath, "host_path", hostPath)
	return i.client.Transfer(ctx, i.name, guestPath, hostPath)
}

// ZephyrExport registers the toolchain's CMake packages inside the
// guest. Required after a fresh mount or mirror, before any build.
func (i *Instance) ZephyrExport(ctx context.Context, guestWorkspace, guestZephyrBase string) error {
	logger.FromContext(ctx).InfoContext(ctx, "exporting CMake package registry", "instance", i.name)
	return i.run(ctx, fmt.Sprintf("export ZEPHYR_BASE=%s && cd %s && west zephyr-export",
		guestZephyrBase, guestWorkspace))
}

// InstallPythonDeps installs the workspace's Python requirements into
// the runtime environment. All routes are best-effort: a missing extra
// surfaces later as a build error, which is more actionable than
// aborting here.
func (i *Instance) InstallPythonDeps(ctx context.Context, guestWorkspace, guestZephyrBase string) {
	logger.FromContext(ctx).InfoContext(ctx, "installing python dependencies", "instance", i.name)
	i.runBestEffort(ctx, fmt.Sprintf("export ZEPHYR_BASE=%s && cd %s && west packages pip --install",
		guestZephyrBase, guestWorkspace))
	i.runBestEffort(ctx, fmt.Sprintf("pip3 install -r %s/scripts/requirements.txt", guestZephyrBase))
	// pyelftools is a frequent missing extra; install it explicitly.
	i.runBestEffort(ctx, "pip3 install pyelftools")
}

// SetupSimNetwork brings up the TAP device native_sim binaries expect.
// Failure leaves the simulation without networking but never blocks the
// run.
func (i *Instance) SetupSimNetwork(ctx context.Context) {
	logger.FromContext(ctx).InfoContext(ctx, "setting up simulator network", "instance", i.name)
	script := `if ! ip link show zeth >/dev/null 2>&1; then
sudo ip tuntap add zeth mode tap user $(whoami) &&
sudo ip link set zeth up &&
sudo ip addr add 192.0.2.2/24 dev zeth
fi`
	i.runBestEffort(ctx, script)
}

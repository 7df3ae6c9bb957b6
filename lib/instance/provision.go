package instance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/westvm/westvm/lib/logger"
)

// guestPackages are installed before any build can run.
var guestPackages = []string{
	"git", "cmake", "ninja-build", "gperf", "ccache", "device-tree-compiler",
	"wget", "file", "libmagic1", "xz-utils", "python3-dev", "python3-pip",
	"python3-setuptools", "python3-wheel", "python3-venv", "build-essential",
	"libsdl2-dev", "bridge-utils",
}

// requiredExecutables must resolve on PATH in the guest for the instance
// to count as provisioned.
var requiredExecutables = []string{"west", "cmake", "ninja", "brctl", "pip3"}

// sdkVersionMarker is the file read from the host toolchain base to pin
// the SDK version.
const sdkVersionMarker = "SDK_VERSION"

// isProvisioned probes the guest read-only: required executables on
// PATH, runtime environment and SDK directories present. It
// short-circuits on the first failure; missing names that dependency for
// diagnostics only, since callers re-provision regardless.
func (i *Instance) isProvisioned(ctx context.Context) (ok bool, missing string) {
	for _, exe := range requiredExecutables {
		if _, code, err := i.Exec(ctx, "which "+exe, ExecOpts{}); err != nil || code != 0 {
			return false, exe
		}
	}
	for _, dir := range []string{i.cfg.VenvDir, i.cfg.SDKDir} {
		if _, code, err := i.Exec(ctx, "test -d "+dir, ExecOpts{}); err != nil || code != 0 {
			return false, dir
		}
	}
	return true, ""
}

// provision runs the full setup sequence in a fixed order. Only the
// sshfs workaround is best-effort; every later step aborts the whole
// operation on failure.
func (i *Instance) provision(ctx context.Context, sdkHintPath string) error {
	log := logger.FromContext(ctx)
	log.InfoContext(ctx, "provisioning instance", "instance", i.name)

	// Classic multipass mounts need sshfs inside the guest; recent
	// images usually ship it, so a failed install is not fatal.
	i.runBestEffort(ctx, "sudo apt-get install -y sshfs")

	install := "sudo apt-get update && sudo apt-get install -y --no-install-recommends " +
		strings.Join(guestPackages, " ")
	if err := i.run(ctx, install); err != nil {
		return fmt.Errorf("%w: install packages: %v", ErrProvisioning, err)
	}

	version := i.detectSDKVersion(ctx, sdkHintPath)
	if err := i.installSDK(ctx, version); err != nil {
		return err
	}

	if _, code, err := i.Exec(ctx, "test -d "+i.cfg.SDKDir, ExecOpts{}); err != nil || code != 0 {
		return fmt.Errorf("%w: SDK directory %s missing after install", ErrProvisioning, i.cfg.SDKDir)
	}

	venv := fmt.Sprintf("python3 -m venv %s && %s/bin/pip install west", i.cfg.VenvDir, i.cfg.VenvDir)
	if err := i.run(ctx, venv); err != nil {
		return fmt.Errorf("%w: create runtime environment: %v", ErrProvisioning, err)
	}

	for _, cmd := range i.persistentEnvCommands() {
		if err := i.run(ctx, cmd); err != nil {
			return fmt.Errorf("%w: persist environment: %v", ErrProvisioning, err)
		}
	}

	log.InfoContext(ctx, "provisioning complete", "instance", i.name)
	return nil
}

// detectSDKVersion reads the version marker from the host toolchain base
// when available, falling back to the pinned default.
func (i *Instance) detectSDKVersion(ctx context.Context, sdkHintPath string) string {
	version := i.cfg.FallbackSDKVersion
	if sdkHintPath == "" {
		return version
	}
	marker := filepath.Join(sdkHintPath, sdkVersionMarker)
	data, err := os.ReadFile(marker)
	if err != nil {
		logger.FromContext(ctx).WarnContext(ctx, "could not read SDK version marker, using fallback",
			"marker", marker, "fallback", version, "error", err)
		return version
	}
	if v := strings.TrimSpace(string(data)); v != "" {
		version = v
	}
	logger.FromContext(ctx).InfoContext(ctx, "detected SDK version", "version", version)
	return version
}

// installSDK downloads and installs the architecture-specific SDK,
// entirely inside the guest so the archive never crosses the mount
// boundary. Re-running with the SDK already in place downloads nothing.
func (i *Instance) installSDK(ctx context.Context, version string) error {
	out, _, err := i.Exec(ctx, "uname -m", ExecOpts{Check: true})
	if err != nil {
		return fmt.Errorf("%w: detect architecture: %v", ErrProvisioning, err)
	}
	arch := strings.TrimSpace(out)
	switch arch {
	case "x86_64", "aarch64":
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedArch, arch)
	}

	logger.FromContext(ctx).InfoContext(ctx, "installing SDK", "version", version, "arch", arch)
	script := fmt.Sprintf(sdkInstallScript, version, arch, i.cfg.SDKDir)
	if err := i.run(ctx, script); err != nil {
		return fmt.Errorf("%w: install SDK %s for %s: %v", ErrProvisioning, version, arch, err)
	}
	return nil
}

const sdkInstallScript = `set -e
SDK_VERSION=%s
ARCH=%s
SDK_DIR=%s
if [ ! -d "$SDK_DIR" ]; then
    URL="https://github.com/zephyrproject-rtos/sdk-ng/releases/download/v${SDK_VERSION}/zephyr-sdk-${SDK_VERSION}_linux-${ARCH}_minimal.tar.xz"
    wget -q "$URL" -O /tmp/sdk.tar.xz
    cd "$(dirname "$SDK_DIR")"
    tar xf /tmp/sdk.tar.xz
    if [ -d "zephyr-sdk-${SDK_VERSION}" ]; then
        mv "zephyr-sdk-${SDK_VERSION}" "$SDK_DIR"
    else
        mv "zephyr-sdk-${SDK_VERSION}_linux-${ARCH}_minimal" "$SDK_DIR"
    fi
    rm /tmp/sdk.tar.xz
    "$SDK_DIR/setup.sh" -c
fi`

// persistentEnvCommands appends toolchain exports to the login profile
// (guarded so re-provisioning does not duplicate them) and configures
// the compilation cache.
func (i *Instance) persistentEnvCommands() []string {
	profile := i.cfg.GuestHome + "/.profile"
	appendOnce := func(line string) string {
		return fmt.Sprintf("grep -qxF '%s' %s || echo '%s' >> %s", line, profile, line, profile)
	}
	return []string{
		appendOnce("export ZEPHYR_TOOLCHAIN_VARIANT=zephyr"),
		appendOnce("export ZEPHYR_SDK_INSTALL_DIR=" + i.cfg.SDKDir),
		appendOnce(fmt.Sprintf("export PATH=%s/bin:$PATH:$HOME/.local/bin", i.cfg.VenvDir)),
		fmt.Sprintf("ccache --max-size=%s", i.cfg.CcacheSize),
		fmt.Sprintf("ccache --set-config=cache_dir=%s/.ccache", i.cfg.GuestHome),
	}
}

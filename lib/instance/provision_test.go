package instance

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/westvm/westvm/lib/multipass"
)

func TestIsProvisionedDetectsMissingExecutable(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) multipass.Result {
		if script, ok := execScript(args); ok && strings.Contains(script, "which ninja") {
			return multipass.Result{ExitCode: 1}
		}
		return multipass.Result{}
	}}
	inst := New(testConfig(), multipass.NewClient(runner))

	ok, missing := inst.isProvisioned(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "ninja", missing)
}

func TestIsProvisionedDetectsMissingSDKDir(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) multipass.Result {
		if script, ok := execScript(args); ok && strings.Contains(script, "test -d /home/ubuntu/zephyr-sdk") {
			return multipass.Result{ExitCode: 1}
		}
		return multipass.Result{}
	}}
	inst := New(testConfig(), multipass.NewClient(runner))

	ok, missing := inst.isProvisioned(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "/home/ubuntu/zephyr-sdk", missing)
}

func TestInstallSDKRejectsUnsupportedArch(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) multipass.Result {
		if script, ok := execScript(args); ok && strings.Contains(script, "uname -m") {
			return multipass.Result{Stdout: "riscv64\n"}
		}
		return multipass.Result{}
	}}
	inst := New(testConfig(), multipass.NewClient(runner))

	err := inst.installSDK(context.Background(), "0.17.0")
	require.ErrorIs(t, err, ErrUnsupportedArch)
}

func TestInstallSDKScript(t *testing.T) {
	runner := &fakeRunner{handler: healthyGuest("Running")}
	inst := New(testConfig(), multipass.NewClient(runner))

	require.NoError(t, inst.installSDK(context.Background(), "0.16.8"))

	var script string
	for _, call := range runner.calls {
		if s, ok := execScript(call); ok && strings.Contains(s, "sdk-ng") {
			script = s
		}
	}
	require.NotEmpty(t, script)
	assert.Contains(t, script, "SDK_VERSION=0.16.8")
	assert.Contains(t, script, "ARCH=x86_64")
	assert.Contains(t, script, "SDK_DIR=/home/ubuntu/zephyr-sdk")
	// The download is skipped entirely when the SDK is already in place.
	assert.Contains(t, script, `if [ ! -d "$SDK_DIR" ]; then`)
	assert.Contains(t, script, "_minimal.tar.xz")
	assert.Contains(t, script, `"$SDK_DIR/setup.sh" -c`)
}

func TestDetectSDKVersionReadsHostMarker(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SDK_VERSION"), []byte("0.16.8\n"), 0o644))

	inst := New(testConfig(), multipass.NewClient(&fakeRunner{}))

	assert.Equal(t, "0.16.8", inst.detectSDKVersion(context.Background(), dir))
}

func TestDetectSDKVersionFallsBack(t *testing.T) {
	inst := New(testConfig(), multipass.NewClient(&fakeRunner{}))

	// No hint at all.
	assert.Equal(t, "0.17.0", inst.detectSDKVersion(context.Background(), ""))
	// Hint without a marker file.
	assert.Equal(t, "0.17.0", inst.detectSDKVersion(context.Background(), t.TempDir()))
}

func TestPersistentEnvCommandsAreGuarded(t *testing.T) {
	inst := New(testConfig(), multipass.NewClient(&fakeRunner{}))

	cmds := inst.persistentEnvCommands()
	require.Len(t, cmds, 5)
	for _, cmd := range cmds[:3] {
		assert.Contains(t, cmd, "grep -qxF", "profile appends must not duplicate on re-run")
		assert.Contains(t, cmd, "/home/ubuntu/.profile")
	}
	assert.Contains(t, cmds[3], "ccache --max-size=5G")
	assert.Contains(t, cmds[4], "cache_dir=/home/ubuntu/.ccache")
}

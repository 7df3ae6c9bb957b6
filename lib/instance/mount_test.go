package instance

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/westvm/westvm/lib/multipass"
)

// mountTable simulates the platform's persistent mount state so repeated
// bind requests observe earlier ones.
func mountTable(bindings map[string]string) func(args []string) multipass.Result {
	return func(args []string) multipass.Result {
		switch args[0] {
		case "mount":
			guest := strings.TrimPrefix(args[2], "zephyr-vm:")
			bindings[guest] = args[1]
		case "unmount":
			delete(bindings, strings.TrimPrefix(args[1], "zephyr-vm:"))
		case "info":
			mounts := map[string]map[string]string{}
			for guest, source := range bindings {
				mounts[guest] = map[string]string{"source_path": source}
			}
			out, _ := json.Marshal(map[string]any{
				"info": map[string]any{"zephyr-vm": map[string]any{"mounts": mounts}},
			})
			return multipass.Result{Stdout: string(out)}
		}
		return multipass.Result{}
	}
}

func TestMountHostPathIsIdempotent(t *testing.T) {
	runner := &fakeRunner{handler: mountTable(map[string]string{})}
	inst := New(testConfig(), multipass.NewClient(runner))

	require.NoError(t, inst.MountHostPath(context.Background(), "/data/app", "/mnt/workspace"))
	require.NoError(t, inst.MountHostPath(context.Background(), "/data/app", "/mnt/workspace"))

	assert.Equal(t, 1, runner.countCalls("mount /data/app"))
	assert.Zero(t, runner.countCalls("unmount"))
}

func TestMountHostPathRebindsDifferentSource(t *testing.T) {
	bindings := map[string]string{}
	runner := &fakeRunner{handler: mountTable(bindings)}
	inst := New(testConfig(), multipass.NewClient(runner))

	require.NoError(t, inst.MountHostPath(context.Background(), "/data/app", "/mnt/workspace"))
	require.NoError(t, inst.MountHostPath(context.Background(), "/data/other", "/mnt/workspace"))

	assert.Equal(t, 1, runner.countCalls("unmount"))
	assert.Equal(t, 1, runner.countCalls("mount /data/app"))
	assert.Equal(t, 1, runner.countCalls("mount /data/other"))
	assert.Equal(t, "/data/other", bindings["/mnt/workspace"])
}

func TestMountHostPathCreatesMountPoint(t *testing.T) {
	runner := &fakeRunner{handler: mountTable(map[string]string{})}
	inst := New(testConfig(), multipass.NewClient(runner))

	require.NoError(t, inst.MountHostPath(context.Background(), "/data/app", "/mnt/workspace"))

	assert.Equal(t, []string{"exec", "zephyr-vm", "--", "sudo", "mkdir", "-p", "/mnt/workspace"}, runner.calls[0])
}

package multipass

import (
	"context"
	"strings"
	"testing"

	"github.com/c2h5oh/datasize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records issued argv vectors and answers from a handler.
type fakeRunner struct {
	calls   [][]string
	handler func(args []string) Result
}

func (f *fakeRunner) Run(ctx context.Context, args ...string) (Result, error) {
	f.calls = append(f.calls, args)
	if f.handler != nil {
		return f.handler(args), nil
	}
	return Result{}, nil
}

func (f *fakeRunner) Interactive(ctx context.Context, args ...string) (int, error) {
	f.calls = append(f.calls, args)
	if f.handler != nil {
		return f.handler(args).ExitCode, nil
	}
	return 0, nil
}

func TestList(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) Result {
		return Result{Stdout: `{"list":[{"name":"zephyr-vm","state":"Running"},{"name":"other","state":"Stopped"}]}`}
	}}
	c := NewClient(runner)

	instances, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, instances, 2)
	assert.Equal(t, "zephyr-vm", instances[0].Name)
	assert.Equal(t, StateRunning, instances[0].State)
	assert.Equal(t, [][]string{{"list", "--format", "json"}}, runner.calls)
}

func TestFind(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) Result {
		return Result{Stdout: `{"list":[{"name":"zephyr-vm","state":"Stopped"}]}`}
	}}
	c := NewClient(runner)

	inst, ok, err := c.Find(context.Background(), "zephyr-vm")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StateStopped, inst.State)

	_, ok, err = c.Find(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLaunch(t *testing.T) {
	runner := &fakeRunner{}
	c := NewClient(runner)

	err := c.Launch(context.Background(), "24.04", "zephyr-vm", 6, 12*datasize.GB, "20G")
	require.NoError(t, err)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{
		"launch", "24.04", "--name", "zephyr-vm", "--cpus", "6", "--memory", "12G", "--disk", "20G",
	}, runner.calls[0])
}

func TestExecCaptureNoCheck(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) Result {
		return Result{Stdout: "not found", ExitCode: 1}
	}}
	c := NewClient(runner)

	out, code, err := c.Exec(context.Background(), "zephyr-vm", "which west", ExecOpts{})
	require.NoError(t, err, "probe mode must not error on nonzero exit")
	assert.Equal(t, 1, code)
	assert.Equal(t, "not found", out)
	assert.Equal(t, []string{"exec", "zephyr-vm", "--", "bash", "-c", "which west"}, runner.calls[0])
}

func TestExecCaptureCheck(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) Result {
		return Result{Stderr: "boom", ExitCode: 2}
	}}
	c := NewClient(runner)

	_, code, err := c.Exec(context.Background(), "zephyr-vm", "false", ExecOpts{Check: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Equal(t, 2, code)
	assert.Contains(t, err.Error(), "boom")
}

func TestExecStream(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) Result {
		return Result{ExitCode: 3}
	}}
	c := NewClient(runner)

	_, code, err := c.Exec(context.Background(), "zephyr-vm", "west build", ExecOpts{Stream: true})
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestMounts(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) Result {
		return Result{Stdout: `{"info":{"zephyr-vm":{"mounts":{"/mnt/workspace":{"source_path":"/home/u/ws"}}}}}`}
	}}
	c := NewClient(runner)

	mounts, err := c.Mounts(context.Background(), "zephyr-vm")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"/mnt/workspace": "/home/u/ws"}, mounts)
	assert.Equal(t, []string{"info", "zephyr-vm", "--format", "json"}, runner.calls[0])
}

func TestMountsUnknownInstance(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) Result {
		return Result{Stdout: `{"info":{}}`}
	}}
	c := NewClient(runner)

	mounts, err := c.Mounts(context.Background(), "zephyr-vm")
	require.NoError(t, err)
	assert.Empty(t, mounts)
}

func TestGetSetLocal(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) Result {
		return Result{Stdout: "4.0GiB\n"}
	}}
	c := NewClient(runner)

	v, err := c.GetLocal(context.Background(), "zephyr-vm", "memory")
	require.NoError(t, err)
	assert.Equal(t, "4.0GiB", v)
	assert.Equal(t, []string{"get", "local.zephyr-vm.memory"}, runner.calls[0])

	require.NoError(t, c.SetLocal(context.Background(), "zephyr-vm", "cpus", "6"))
	assert.Equal(t, []string{"set", "local.zephyr-vm.cpus=6"}, runner.calls[1])
}

func TestRunNonzeroExit(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) Result {
		return Result{Stderr: "instance does not exist", ExitCode: 1}
	}}
	c := NewClient(runner)

	err := c.Start(context.Background(), "zephyr-vm")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.True(t, strings.Contains(err.Error(), "instance does not exist"))
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected datasize.ByteSize
		wantErr  bool
	}{
		{"4.0GiB", 4 * datasize.GB, false},
		{"12G", 12 * datasize.GB, false},
		{"512MiB", 512 * datasize.MB, false},
		{"2048", 2 * datasize.KB, false},
		{"1.5GiB", datasize.ByteSize(1.5 * float64(datasize.GB)), false},
		{"", 0, true},
		{"lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestFormatGiB(t *testing.T) {
	assert.Equal(t, "4G", FormatGiB(4*datasize.GB))
	assert.Equal(t, "12G", FormatGiB(12*datasize.GB))
}

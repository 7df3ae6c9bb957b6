// Package multipass drives the Multipass CLI as an opaque external tool.
// All guest state is derived by shelling out and parsing the platform's
// JSON output; nothing is cached between calls.
package multipass

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/samber/lo"
)

// Client issues typed operations against the multipass binary.
type Client struct {
	runner Runner
}

// NewClient creates a client on top of a Runner.
func NewClient(runner Runner) *Client {
	return &Client{runner: runner}
}

// List returns the platform's instance inventory.
func (c *Client) List(ctx context.Context) ([]Instance, error) {
	res, err := c.run(ctx, "list", "--format", "json")
	if err != nil {
		return nil, err
	}
	var out listOutput
	if err := json.Unmarshal([]byte(res.Stdout), &out); err != nil {
		return nil, fmt.Errorf("parse instance list: %w", err)
	}
	return out.List, nil
}

// Find returns the named instance. ok is false when the platform does not
// know the name.
func (c *Client) Find(ctx context.Context, name string) (Instance, bool, error) {
	instances, err := c.List(ctx)
	if err != nil {
		return Instance{}, false, err
	}
	inst, ok := lo.Find(instances, func(i Instance) bool { return i.Name == name })
	return inst, ok, nil
}

// Launch creates a new instance with the given sizing. Disk size is fixed
// at creation and cannot be changed afterwards.
func (c *Client) Launch(ctx context.Context, image, name string, cpus int, memory datasize.ByteSize, disk string) error {
	_, err := c.run(ctx, "launch", image,
		"--name", name,
		"--cpus", strconv.Itoa(cpus),
		"--memory", FormatGiB(memory),
		"--disk", disk)
	return err
}

// Start starts a stopped instance.
func (c *Client) Start(ctx context.Context, name string) error {
	_, err := c.run(ctx, "start", name)
	return err
}

// Stop stops a running instance.
func (c *Client) Stop(ctx context.Context, name string) error {
	_, err := c.run(ctx, "stop", name)
	return err
}

// ExecOpts configures guest command execution.
type ExecOpts struct {
	// Stream attaches the command to the caller's stdio; only the exit
	// code comes back.
	Stream bool
	// Check turns a nonzero exit into an error. Ignored when streaming.
	Check bool
}

// Exec runs a shell script inside the guest via `bash -c`. In capture
// mode the guest's stdout and exit code are returned regardless of
// status unless Check is set.
func (c *Client) Exec(ctx context.Context, name, script string, opts ExecOpts) (string, int, error) {
	args := []string{"exec", name, "--", "bash", "-c", script}
	if opts.Stream {
		code, err := c.runner.Interactive(ctx, args...)
		return "", code, err
	}
	res, err := c.runner.Run(ctx, args...)
	if err != nil {
		return "", -1, err
	}
	if opts.Check && res.ExitCode != 0 {
		return res.Stdout, res.ExitCode, fmt.Errorf("%w: exec in %s: exit %d: %s",
			ErrCommandFailed, name, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return res.Stdout, res.ExitCode, nil
}

// ExecArgs runs a raw argv inside the guest, without a shell.
func (c *Client) ExecArgs(ctx context.Context, name string, argv ...string) (Result, error) {
	args := append([]string{"exec", name, "--"}, argv...)
	return c.runner.Run(ctx, args...)
}

// Mounts returns the instance's mount table as guest path to canonical
// host source path.
func (c *Client) Mounts(ctx context.Context, name string) (map[string]string, error) {
	res, err := c.run(ctx, "info", name, "--format", "json")
	if err != nil {
		return nil, err
	}
	var out infoOutput
	if err := json.Unmarshal([]byte(res.Stdout), &out); err != nil {
		return nil, fmt.Errorf("parse instance info: %w", err)
	}
	info, ok := out.Info[name]
	if !ok {
		return map[string]string{}, nil
	}
	mounts := make(map[string]string, len(info.Mounts))
	for guest, m := range info.Mounts {
		mounts[guest] = m.SourcePath
	}
	return mounts, nil
}

// Mount binds a host directory at a guest path.
func (c *Client) Mount(ctx context.Context, hostPath, name, guestPath string) error {
	_, err := c.run(ctx, "mount", hostPath, name+":"+guestPath)
	return err
}

// Unmount removes the binding at a guest path.
func (c *Client) Unmount(ctx context.Context, name, guestPath string) error {
	_, err := c.run(ctx, "unmount", name+":"+guestPath)
	return err
}

// Transfer copies a file from the guest to the host, creating the host
// parent directory when needed.
func (c *Client) Transfer(ctx context.Context, name, guestPath, hostPath string) error {
	abs, err := filepath.Abs(hostPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("create transfer target dir: %w", err)
	}
	_, err = c.run(ctx, "transfer", name+":"+guestPath, abs)
	return err
}

// GetLocal reads a per-instance setting such as cpus or memory.
func (c *Client) GetLocal(ctx context.Context, name, key string) (string, error) {
	res, err := c.run(ctx, "get", fmt.Sprintf("local.%s.%s", name, key))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// SetLocal writes a per-instance setting. The instance must be stopped
// for cpu and memory changes to take effect.
func (c *Client) SetLocal(ctx context.Context, name, key, value string) error {
	_, err := c.run(ctx, "set", fmt.Sprintf("local.%s.%s=%s", name, key, value))
	return err
}

// run executes a multipass command and converts nonzero exits to errors.
func (c *Client) run(ctx context.Context, args ...string) (Result, error) {
	res, err := c.runner.Run(ctx, args...)
	if err != nil {
		return res, err
	}
	if res.ExitCode != 0 {
		return res, fmt.Errorf("%w: multipass %s: exit %d: %s",
			ErrCommandFailed, strings.Join(args, " "), res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return res, nil
}

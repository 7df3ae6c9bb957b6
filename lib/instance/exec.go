package instance

import (
	"context"
	"fmt"
	"strings"

	"github.com/westvm/westvm/lib/logger"
	"github.com/westvm/westvm/lib/multipass"
)

// ExecOpts configures guest command execution.
type ExecOpts struct {
	// Stream attaches the command to the caller's stdio; only the exit
	// code comes back.
	Stream bool
	// Check turns a nonzero exit into an error. Ignored when streaming.
	Check bool
}

// envPrologue is prefixed to every guest command so non-interactive
// shells see the toolchain without sourcing login profiles. The isolated
// runtime environment shadows system tools on PATH.
func (i *Instance) envPrologue() string {
	return strings.Join([]string{
		fmt.Sprintf("export PATH=%s/bin:$PATH:$HOME/.local/bin", i.cfg.VenvDir),
		"export ZEPHYR_TOOLCHAIN_VARIANT=zephyr",
		fmt.Sprintf("export ZEPHYR_SDK_INSTALL_DIR=%s", i.cfg.SDKDir),
		"export PIP_BREAK_SYSTEM_PACKAGES=1",
	}, " && ")
}

// Exec runs a shell command in the guest with the fixed env prologue.
func (i *Instance) Exec(ctx context.Context, script string, opts ExecOpts) (string, int, error) {
	full := i.envPrologue() + " && " + script
	return i.client.Exec(ctx, i.name, full, multipass.ExecOpts{Stream: opts.Stream, Check: opts.Check})
}

// StreamExec runs a guest command attached to the caller's terminal and
// returns its exit code. Interpretation of the code is the caller's:
// remote failures propagate as the operation's own result.
func (i *Instance) StreamExec(ctx context.Context, script string) (int, error) {
	_, code, err := i.Exec(ctx, script, ExecOpts{Stream: true})
	return code, err
}

// run executes a guest command and propagates failure.
func (i *Instance) run(ctx context.Context, script string) error {
	_, _, err := i.Exec(ctx, script, ExecOpts{Check: true})
	return err
}

// runBestEffort executes a guest command and downgrades failure to a
// warning.
func (i *Instance) runBestEffort(ctx context.Context, script string) {
	_, code, err := i.Exec(ctx, script, ExecOpts{})
	if err != nil || code != 0 {
		logger.FromContext(ctx).WarnContext(ctx, "best-effort guest command failed",
			"instance", i.name, "command", script, "exit_code", code, "error", err)
	}
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/westvm/westvm/lib/guestpath"
	"github.com/westvm/westvm/lib/instance"
	"github.com/westvm/westvm/lib/logger"
)

var runCmd = &cobra.Command{
	Use:   "run [source-dir] [-- <program args>]",
	Short: "Run a built native_sim binary in the sandbox VM",
	Long: `Runs a previously built zephyr.exe (or zephyr.elf) inside the VM,
attached to the caller's terminal. The build directory is located the
same way "westvm build" chose it: hashed from the source directory
unless -d names one explicitly.`,
	RunE: runRun,
}

var (
	runBuildDir string
	runNet      bool
	runNoNet    bool
)

func init() {
	runCmd.Flags().StringVarP(&runBuildDir, "build-dir", "d", "", "build directory containing the binary")
	runCmd.Flags().BoolVar(&runNet, "net", false, "force TAP network setup for native_sim")
	runCmd.Flags().BoolVar(&runNoNet, "no-net", false, "skip network setup")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logger.FromContext(ctx)

	s, err := newSession(cfg, twisterMountRoot)
	if err != nil {
		return err
	}
	if err := s.inst.EnsureReady(ctx, instance.EnsureOpts{SDKHintPath: s.zephyrBase}); err != nil {
		return err
	}

	sourceDir, remainder := pickSourceDir(args, "")

	var guestBuildDir string
	if runBuildDir != "" {
		guestBuildDir, err = s.mapPath(ctx, runBuildDir)
		if err != nil {
			return err
		}
	} else {
		canonSource, err := guestpath.Canonical(sourceDir)
		if err != nil {
			return err
		}
		guestBuildDir = s.inst.BuildDir(canonSource)
	}

	// Modern native_sim produces zephyr.exe; fall back to zephyr.elf.
	probe := fmt.Sprintf(
		"if [ -f %[1]s/zephyr/zephyr.exe ]; then echo %[1]s/zephyr/zephyr.exe; elif [ -f %[1]s/zephyr/zephyr.elf ]; then echo %[1]s/zephyr/zephyr.elf; fi",
		guestBuildDir)
	out, _, err := s.inst.Exec(ctx, probe, instance.ExecOpts{})
	if err != nil {
		return err
	}
	exe := strings.TrimSpace(out)
	if exe == "" {
		return fmt.Errorf("no zephyr.exe or zephyr.elf under %s/zephyr in the VM; build first", guestBuildDir)
	}

	if wantSimNetwork(exe) {
		s.inst.SetupSimNetwork(ctx)
	}

	log.InfoContext(ctx, "running binary", "instance", s.inst.Name(), "exe", exe)
	script := strings.TrimSpace(fmt.Sprintf("chmod +x %s && %s %s", exe, exe, strings.Join(remainder, " ")))
	code, err := s.inst.StreamExec(ctx, script)
	if err != nil {
		return err
	}
	if code != 0 {
		return exitCodeError{code}
	}
	return nil
}

// wantSimNetwork decides whether to bring up the TAP device: forced by
// --net, suppressed by --no-net, otherwise inferred from the binary.
func wantSimNetwork(exe string) bool {
	if runNet {
		return true
	}
	if runNoNet {
		return false
	}
	return strings.Contains(exe, "native_sim") || strings.HasSuffix(exe, ".exe")
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/westvm/westvm/lib/guestpath"
	"github.com/westvm/westvm/lib/instance"
	"github.com/westvm/westvm/lib/logger"
	"github.com/westvm/westvm/lib/multipass"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [source-dir]",
	Short: "Delete build directories inside the sandbox VM",
	Long: `Removes guest-internal build directories to reclaim disk space.
Targets the build dir derived from the given (or current) source
directory; --all removes every build. Never creates or resizes the VM.`,
	RunE: runClean,
}

var cleanAll bool

func init() {
	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "remove all build directories in the VM")
}

func runClean(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logger.FromContext(ctx)

	if !multipass.Installed() {
		return fmt.Errorf("%w: install it from https://multipass.run/", multipass.ErrNotInstalled)
	}
	inst := instance.New(cfg, multipass.NewClient(multipass.NewRunner()))

	state, err := inst.Status(ctx)
	if err != nil {
		return err
	}
	if state == instance.StateAbsent {
		log.InfoContext(ctx, "instance does not exist, nothing to clean", "instance", inst.Name())
		return nil
	}

	if cleanAll {
		log.InfoContext(ctx, "cleaning all builds", "instance", inst.Name())
		return inst.DeleteDir(ctx, inst.BuildsRoot()+"/*")
	}

	sourceDir := ""
	if len(args) > 0 {
		sourceDir = args[0]
	} else {
		sourceDir, err = os.Getwd()
		if err != nil {
			return err
		}
	}
	canonSource, err := guestpath.Canonical(sourceDir)
	if err != nil {
		return err
	}
	buildDir := inst.BuildDir(canonSource)
	log.InfoContext(ctx, "cleaning build", "source", canonSource, "build_dir", buildDir)
	return inst.DeleteDir(ctx, buildDir)
}

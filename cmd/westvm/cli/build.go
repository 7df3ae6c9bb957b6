package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/westvm/westvm/lib/guestpath"
	"github.com/westvm/westvm/lib/instance"
	"github.com/westvm/westvm/lib/logger"
	"github.com/westvm/westvm/lib/resources"
)

var buildCmd = &cobra.Command{
	Use:   "build [source-dir] [-- <west build args>]",
	Short: "Build a Zephyr application in the sandbox VM",
	Long: `Proxies "west build" into the VM. The workspace is mounted into the
guest, host paths are remapped, and the build runs in a hashed
guest-internal build directory unless -d names one explicitly.`,
	RunE: runBuild,
}

var (
	buildSourceDir string
	buildBuildDir  string
	buildBoard     string
)

func init() {
	buildCmd.Flags().StringVarP(&buildSourceDir, "source-dir", "s", "", "source directory to build")
	buildCmd.Flags().StringVarP(&buildBuildDir, "build-dir", "d", "", "build directory")
	buildCmd.Flags().StringVarP(&buildBoard, "board", "b", "", "board to build for")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logger.FromContext(ctx)

	s, err := newSession(cfg, buildMountRoot)
	if err != nil {
		return err
	}

	sourceDir, remainder := pickSourceDir(args, buildSourceDir)
	canonSource, err := guestpath.Canonical(sourceDir)
	if err != nil {
		return err
	}

	return resources.WithProfile(ctx, s.client, cfg.InstanceName, cfg.KeepWarm,
		func(ctx context.Context, target resources.Target) error {
			if err := s.inst.EnsureReady(ctx, instance.EnsureOpts{
				SDKHintPath: s.zephyrBase,
				CPUs:        target.CPUs,
				Memory:      target.Memory,
			}); err != nil {
				return err
			}

			if err := s.mountWorkspace(ctx); err != nil {
				return err
			}
			guestSource, err := s.mapPath(ctx, canonSource)
			if err != nil {
				return err
			}
			guestZephyrBase, err := s.mapPath(ctx, s.zephyrBase)
			if err != nil {
				return err
			}

			// Default to a guest-internal build dir keyed by source hash;
			// mounted build dirs hit shared-filesystem permission issues.
			guestBuildDir := s.inst.BuildDir(canonSource)
			if buildBuildDir != "" {
				guestBuildDir, err = s.mapPath(ctx, buildBuildDir)
				if err != nil {
					return err
				}
			}
			if err := s.inst.EnsureGuestDir(ctx, guestBuildDir); err != nil {
				return err
			}

			if err := s.inst.ZephyrExport(ctx, buildMountRoot, guestZephyrBase); err != nil {
				return err
			}
			s.inst.InstallPythonDeps(ctx, buildMountRoot, guestZephyrBase)

			westArgs := []string{"west", "build", "-s", guestSource, "-d", guestBuildDir}
			if buildBoard != "" {
				westArgs = append(westArgs, "-b", buildBoard)
			}
			westArgs = append(westArgs, remainder...)

			log.InfoContext(ctx, "running build", "instance", s.inst.Name(),
				"source", guestSource, "build_dir", guestBuildDir)
			script := fmt.Sprintf("cd %s && export ZEPHYR_BASE=%s && %s",
				buildMountRoot, guestZephyrBase, strings.Join(westArgs, " "))
			code, err := s.inst.StreamExec(ctx, script)
			if err != nil {
				return err
			}
			if code != 0 {
				return exitCodeError{code}
			}
			log.InfoContext(ctx, "build completed")
			return nil
		})
}

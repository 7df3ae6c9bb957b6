package cli

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/westvm/westvm/lib/guestpath"
	"github.com/westvm/westvm/lib/instance"
	"github.com/westvm/westvm/lib/logger"
	"github.com/westvm/westvm/lib/resources"
)

var twisterCmd = &cobra.Command{
	Use:   "twister [-- <west twister args>]",
	Short: "Run Zephyr twister tests in the sandbox VM",
	Long: `Proxies "west twister" into the VM. By default the mounted workspace
is first mirrored into guest-local storage, which avoids the shared
filesystem's I/O cost on large test runs.`,
	RunE: runTwister,
}

// Summary files pulled to the host after a --pull-results run.
var twisterResultFiles = []string{"twister.json", "twister.log"}

var (
	twisterNoSync      bool
	twisterPullResults bool
	twisterOutdir      string
)

func init() {
	twisterCmd.Flags().BoolVar(&twisterNoSync, "no-sync", false, "skip the local-storage mirror, run directly from the mount")
	twisterCmd.Flags().BoolVar(&twisterPullResults, "pull-results", false, "pull twister results from the VM to the host after the run")
	twisterCmd.Flags().StringVarP(&twisterOutdir, "outdir", "O", "", "output directory for twister results")
}

func runTwister(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logger.FromContext(ctx)

	s, err := newSession(cfg, twisterMountRoot)
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
			guestZephyrBase, err := s.mapPath(ctx, s.zephyrBase)
			if err != nil {
				return err
			}

			workRoot := twisterMountRoot
			if !twisterNoSync {
				if err := s.inst.MirrorToLocal(ctx, twisterMountRoot, s.inst.LocalSrcRoot()); err != nil {
					return err
				}
				workRoot = s.inst.LocalSrcRoot()
				guestZephyrBase = guestpath.Rebase(guestZephyrBase, twisterMountRoot, workRoot)
			}

			if err := s.inst.ZephyrExport(ctx, workRoot, guestZephyrBase); err != nil {
				return err
			}
			s.inst.InstallPythonDeps(ctx, workRoot, guestZephyrBase)

			twisterArgs := []string{"west", "twister"}
			guestOutdir := "twister-out"
			if twisterOutdir != "" {
				if filepath.IsAbs(twisterOutdir) {
					guestOutdir, err = s.mapPath(ctx, twisterOutdir)
					if err != nil {
						return err
					}
					guestOutdir = guestpath.Rebase(guestOutdir, twisterMountRoot, workRoot)
				} else {
					guestOutdir = twisterOutdir
				}
				twisterArgs = append(twisterArgs, "-O", guestOutdir)
			}
			twisterArgs = append(twisterArgs, args...)

			log.InfoContext(ctx, "running twister", "instance", s.inst.Name(), "workdir", workRoot)
			script := fmt.Sprintf("cd %s && export ZEPHYR_BASE=%s && %s",
				workRoot, guestZephyrBase, strings.Join(twisterArgs, " "))
			code, err := s.inst.StreamExec(ctx, script)
			if err != nil {
				return err
			}

			if twisterPullResults {
				// Results matter even when the run itself reported failures,
				// so pull before propagating the exit code.
				if err := pullTwisterResults(ctx, s, workRoot, guestOutdir); err != nil {
					log.WarnContext(ctx, "pulling results failed", "error", err)
				}
			}

			if code != 0 {
				return exitCodeError{code}
			}
			log.InfoContext(ctx, "twister completed")
			return nil
		})
}

// pullTwisterResults mirrors the result tree back onto the workspace
// mount (when the run used local storage) and transfers the summary
// files to the host output directory.
func pullTwisterResults(ctx context.Context, s *session, workRoot, guestOutdir string) error {
	absOutdir := guestOutdir
	if !path.IsAbs(absOutdir) {
		absOutdir = path.Join(workRoot, absOutdir)
	}
	mountOutdir := guestpath.Rebase(absOutdir, workRoot, twisterMountRoot)
	if mountOutdir != absOutdir {
		if err := s.inst.MirrorBack(ctx, absOutdir, mountOutdir); err != nil {
			return err
		}
	}

	hostOutdir := twisterOutdir
	if hostOutdir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		hostOutdir = filepath.Join(cwd, "twister-out")
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range twisterResultFiles {
		name := name
		g.Go(func() error {
			return s.inst.PullFile(ctx, path.Join(mountOutdir, name), filepath.Join(hostOutdir, name))
		})
	}
	return g.Wait()
}

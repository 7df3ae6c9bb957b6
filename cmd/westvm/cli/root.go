// Package cli implements the westvm command-line front-ends. Each
// subcommand proxies a west workflow into the sandbox VM: build, twister
// and run forward the real work, clean reclaims guest disk space.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/westvm/westvm/cmd/westvm/config"
	"github.com/westvm/westvm/lib/logger"
)

var cfg *config.Config

var (
	flagVMName   string
	flagKeepWarm bool
)

var rootCmd = &cobra.Command{
	Use:   "westvm",
	Short: "Run Zephyr west builds inside a Multipass sandbox VM",
	Long: `westvm provisions a long-lived Multipass VM with the Zephyr toolchain
and proxies west workflows into it, so builds and tests run in a POSIX
environment on hosts that cannot run them natively.

The VM is created, provisioned and resized on demand; host paths are
mapped to stable guest paths automatically.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "completion" {
			return nil
		}
		cfg = config.Load()
		if flagVMName != "" {
			cfg.InstanceName = flagVMName
		}
		if flagKeepWarm {
			cfg.KeepWarm = true
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		log := logger.New(logger.ParseLevel(cfg.LogLevel))
		cmd.SetContext(logger.AddToContext(cmd.Context(), log))
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagVMName, "vm-name", "", "name of the Multipass VM to use")
	rootCmd.PersistentFlags().BoolVar(&flagKeepWarm, "keep-warm", false, "skip the scale-down after heavy work")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(twisterCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)
}

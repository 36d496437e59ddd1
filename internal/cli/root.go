package cli

import (
	"github.com/spf13/cobra"
)

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cargotest",
		Short: "Discover and run Rust tests of a Cargo workspace",
		Long: `cargotest lists the tests of every package of a Cargo workspace as a tree
of packages, build targets and modules, runs any node of that tree through
cargo test, and reports per-test results with their failure output.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.out.SetQuiet(a.quiet)
			if a.noColor {
				a.out.SetColor(false)
			}
		},
	}
	root.SetFlagErrorFunc(usageError)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.dir, "dir", "C", "", "Directory inside the Cargo workspace (default: current directory)")
	flags.StringVar(&a.configPath, "config", "", "Configuration file (default: <workspace>/.cargotest.yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Log debug diagnostics to stderr")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "Minimal output (failures and errors only)")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		a.listCmd(),
		a.runCmd(),
		a.locateCmd(),
		a.watchCmd(),
		a.summaryCmd(),
		a.versionCmd(),
	)
	return root
}

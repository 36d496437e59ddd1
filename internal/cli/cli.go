// Package cli provides the cargotest command tree.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AndreyAkinshin/cargotest/internal/cargo"
	"github.com/AndreyAkinshin/cargotest/internal/config"
	"github.com/AndreyAkinshin/cargotest/internal/errors"
	"github.com/AndreyAkinshin/cargotest/internal/output"
)

// Version is set at build time.
var Version = "dev"

// errTestsFailed reports failed or errored tests. Its details were already
// printed by the run summary.
var errTestsFailed = errors.New("tests failed")

// app holds what commands share: output, the cargo process factory and the
// global flags.
type app struct {
	out       *output.Writer
	stdin     io.Reader
	newRunner func(cfg *config.Config, env []string, logger *zap.Logger) cargo.Runner

	dir        string
	configPath string
	verbose    bool
	quiet      bool
	noColor    bool
}

func newApp() *app {
	return &app{
		out:   output.New(),
		stdin: os.Stdin,
		newRunner: func(cfg *config.Config, env []string, logger *zap.Logger) cargo.Runner {
			return cargo.NewExecRunner(cfg.Cargo, env, cfg.MaxOutputBytes, logger)
		},
	}
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newApp().execute(ctx, args)
}

func (a *app) execute(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.out.Out())
	root.SetErr(a.out.Err())

	err := root.ExecuteContext(ctx)
	if err == nil {
		return errors.ExitSuccess
	}
	if err != errTestsFailed {
		a.out.ErrorPrefix("%v", err)
	}
	return errors.GetExitCode(err)
}

// usageError marks bad flags or arguments as configuration errors so they
// exit with the same code as an invalid config file.
func usageError(_ *cobra.Command, err error) error {
	return errors.Config(err.Error())
}

// args wraps a cobra argument validator with usageError.
func args(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError(cmd, err)
		}
		return nil
	}
}

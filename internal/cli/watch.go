package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AndreyAkinshin/cargotest/internal/watch"
)

func (a *app) watchCmd() *cobra.Command {
	var autorun bool
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload the tests when Rust sources or manifests change",
		Long: `Watch src/ and tests/ of every package and the Cargo.toml manifests.
After each settled change the test tree is reloaded; with --run the whole
workspace is run again as well. Stop with Ctrl+C.`,
		Args: args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := a.open(nil)
			if err != nil {
				return err
			}
			defer s.close()

			snap, err := a.load(ctx, s)
			if err != nil {
				return err
			}
			a.out.Info("%d tests loaded, watching for changes", snap.CaseCount())
			if autorun {
				a.runAll(ctx, s)
			}

			onChange := func(ctx context.Context, paths []string) {
				s.logger.Info("sources changed", zap.Strings("paths", paths))
				snap, err := s.explorer.Load(ctx)
				if err != nil {
					a.out.Warning("reload failed: %v", err)
				}
				a.out.Info("%d tests loaded", snap.CaseCount())
				if autorun {
					a.runAll(ctx, s)
				}
			}

			dirs := append(s.explorer.PackageDirs(), s.project.Root)
			w, err := watch.New(dirs, onChange, watch.Options{Debounce: debounce, Logger: s.logger})
			if err != nil {
				return err
			}
			w.Start(ctx)
			<-ctx.Done()
			w.Stop()
			return nil
		},
	}
	cmd.Flags().BoolVar(&autorun, "run", false, "Run every test after each reload")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "How long changes must settle before reloading")
	return cmd
}

// runAll runs the whole workspace and prints the summary.
func (a *app) runAll(ctx context.Context, s *session) {
	result, err := s.explorer.Run(ctx, nil)
	if err != nil {
		a.out.Warning("run failed: %v", err)
	}
	a.out.TestSummary(&result.Counts)
}

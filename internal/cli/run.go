package cli

import (
	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/cargotest/internal/explorer"
	"github.com/AndreyAkinshin/cargotest/internal/output"
	"github.com/AndreyAkinshin/cargotest/internal/tree"
)

func (a *app) runCmd() *cobra.Command {
	var asJSON, noProgress bool
	cmd := &cobra.Command{
		Use:   "run [id...]",
		Short: "Run tests by tree node id (default: the whole workspace)",
		Long: `Run one or more nodes of the test tree. A node can be a package, a build
target, a module or a single test; ids are printed by "cargotest list --flat"
and "cargotest list --json". One cargo process runs per build target.`,
		Example: `  cargotest run
  cargotest run core::core::lib::parser::tests
  cargotest run --json core::smoke::test::smoke_runs`,
		RunE: func(cmd *cobra.Command, ids []string) error {
			showProgress := !asJSON && !noProgress && !a.quiet && a.out.Interactive()

			var enc *eventEncoder
			var progress *output.Progress
			var onEvent func(explorer.Event)
			switch {
			case asJSON:
				enc = newEventEncoder(a.out.Out())
				onEvent = enc.Encode
			case showProgress:
				onEvent = func(ev explorer.Event) {
					if ev, ok := ev.(explorer.TestEvent); ok && progress != nil {
						progress.Observe(ev.ResultEvent)
					}
				}
			default:
				onEvent = func(ev explorer.Event) {
					if ev, ok := ev.(explorer.TestEvent); ok {
						a.out.TestResult(ev.ResultEvent)
					}
				}
			}

			s, err := a.open(onEvent)
			if err != nil {
				return err
			}
			defer s.close()

			snap, err := a.load(cmd.Context(), s)
			if err != nil {
				return err
			}
			if showProgress {
				progress = a.out.NewProgress(countCases(snap, ids))
			}

			result, runErr := s.explorer.Run(cmd.Context(), ids)
			if progress != nil {
				progress.Finish()
			}
			if asJSON {
				if err := enc.Err(); err != nil {
					return err
				}
			} else {
				if !a.quiet && len(result.Events) > 0 {
					a.out.ResultsTable(result.Events, &result.Counts)
				}
				a.out.TestSummary(&result.Counts)
			}

			if runErr != nil {
				return runErr
			}
			if !result.Counts.OK() {
				return errTestsFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Stream load and run events as JSON lines")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Print each result instead of a progress bar")
	return cmd
}

// countCases returns how many test cases the given ids cover. No ids means
// the whole tree.
func countCases(snap *tree.Snapshot, ids []string) int {
	if len(ids) == 0 {
		return snap.CaseCount()
	}
	seen := make(map[string]bool)
	var visit func(id string)
	visit = func(id string) {
		n, ok := snap.Lookup(id)
		if !ok {
			// Unknown ids still report one errored result.
			seen[id] = true
			return
		}
		switch n := n.(type) {
		case *tree.CaseNode:
			seen[n.ID] = true
		case *tree.SuiteNode:
			for _, child := range n.ChildIDs {
				visit(child)
			}
		}
	}
	for _, id := range ids {
		visit(id)
	}
	return len(seen)
}

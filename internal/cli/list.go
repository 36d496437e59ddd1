package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) listCmd() *cobra.Command {
	var asJSON, flat bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tests of the workspace as a tree",
		Example: `  cargotest list
  cargotest list --flat | grep parser
  cargotest list --json > tests.json`,
		Args: args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON && flat {
				return usageError(cmd, fmt.Errorf("--json and --flat cannot be used together"))
			}
			s, err := a.open(nil)
			if err != nil {
				return err
			}
			defer s.close()

			snap, err := a.load(cmd.Context(), s)
			if err != nil {
				return err
			}

			info := snap.Describe()
			switch {
			case asJSON:
				enc := json.NewEncoder(a.out.Out())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			case flat:
				a.out.TestIDs(info)
			default:
				a.out.Tree(info)
				a.out.Info("%d tests", snap.CaseCount())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the tree as JSON descriptors")
	cmd.Flags().BoolVar(&flat, "flat", false, "Print one test id per line")
	return cmd
}

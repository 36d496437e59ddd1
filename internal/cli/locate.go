package cli

import (
	"github.com/spf13/cobra"
)

func (a *app) locateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "locate <id>",
		Short:   "Print the source position of a test as file:line",
		Example: `  cargotest locate core::core::lib::parser::tests::parses_empty_input`,
		Args:    args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, ids []string) error {
			s, err := a.open(nil)
			if err != nil {
				return err
			}
			defer s.close()

			if _, err := a.load(cmd.Context(), s); err != nil {
				return err
			}
			loc, err := s.explorer.Locate(ids[0])
			if err != nil {
				return err
			}
			a.out.Location(loc.File, loc.Line)
			return nil
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCleanCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Drop all catalog schema objects (irreversible)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				return fmt.Errorf("clean drops all catalog metadata irreversibly; re-run with --force")
			}

			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.engine.Clean(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "catalog cleaned")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "confirm the irreversible drop")
	return cmd
}

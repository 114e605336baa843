package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the recorded catalog version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			rec, err := a.engine.CurrentVersion(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog version: %s (upgraded on %s, target %s)\n",
				rec.Version, rec.UpgradedOn.Format("2006-01-02 15:04:05 MST"), a.engine.TargetVersion())
			return nil
		},
	}
}

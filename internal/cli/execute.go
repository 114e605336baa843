package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newExecuteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute [file]",
		Short: "Run an admin query from a JSON file (or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				payload []byte
				err     error
			)
			if len(args) == 1 && args[0] != "-" {
				payload, err = os.ReadFile(args[0]) //nolint:gosec // path is caller-controlled
			} else {
				payload, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read admin query payload: %w", err)
			}

			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.executor.Execute(cmd.Context(), payload)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(result))
			return nil
		},
	}
}

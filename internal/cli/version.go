package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vodscribe/vodscribe/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the vodscribe version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "vodscribe v%s\n", version.Resolve())
			return err
		},
	}
}

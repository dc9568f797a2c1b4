package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gothamlabs/gothambuild/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show gothambuild version information.

Displays the CLI version, commit, build date and Go version.`,
		RunE: runVersion,
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), version.GetInfo().String())
	return nil
}

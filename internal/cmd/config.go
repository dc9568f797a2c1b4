package cmd

import (
	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config command group.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage gothambuild configuration",
		Long: `Manage the gothambuild configuration.

Configuration is loaded from ~/.gothambuild/config.yaml (override with
GOTHAM_CONFIG or --config) with GOTHAM_* environment variables taking
precedence over file values.`,
	}

	cmd.AddCommand(NewConfigInitCmd())
	cmd.AddCommand(NewConfigVetCmd())

	return cmd
}

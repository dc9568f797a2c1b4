package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gothamlabs/gothambuild/internal/config"
	"github.com/gothamlabs/gothambuild/internal/output"
)

var configVetShowFlag bool

// NewConfigVetCmd creates the config vet command.
func NewConfigVetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vet",
		Short: "Validate configuration",
		Long: `Validate the effective gothambuild configuration.

Loads the config file, applies environment overrides and defaults,
then checks the result for release readiness: registry account shape,
region, repository name charset, worker count and port range.

The config path is resolved using precedence:
  --config flag > GOTHAM_CONFIG env > ~/.gothambuild/config.yaml

Examples:
  # Validate the effective configuration
  gothambuild config vet

  # Validate and print the effective configuration
  gothambuild config vet --show`,
		RunE: runConfigVet,
	}

	cmd.Flags().BoolVar(&configVetShowFlag, "show", false,
		"Print the effective configuration as YAML")

	return cmd
}

func runConfigVet(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	if err := config.Validate(cfg); err != nil {
		return WrapConfig(err)
	}

	if configVetShowFlag {
		content, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("rendering configuration: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(content))
	}

	output.Println(output.FormatCheckmark("Configuration is valid"))
	return nil
}

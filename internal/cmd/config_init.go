package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gothamlabs/gothambuild/internal/config"
	"github.com/gothamlabs/gothambuild/internal/output"
)

var configInitForce bool

const configFileHeader = `# gothambuild configuration.
# Environment variables (GOTHAM_*) override values in this file.
`

// NewConfigInitCmd creates the config init command.
func NewConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize default configuration",
		Long: `Initialize the gothambuild configuration.

Writes ~/.gothambuild/config.yaml populated with every default value,
ready to edit. The registry account and region are intentionally left
empty: set them in the file or via GOTHAM_REGISTRY_ACCOUNT and
GOTHAM_REGISTRY_REGION.

Examples:
  # Initialize configuration
  gothambuild config init

  # Overwrite existing configuration
  gothambuild config init --force`,
		RunE: runConfigInit,
	}

	cmd.Flags().BoolVarP(&configInitForce, "force", "f", false,
		"Overwrite existing configuration")

	return cmd
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	paths, err := config.DefaultPaths()
	if err != nil {
		return fmt.Errorf("determining home directory: %w", err)
	}

	if _, err := os.Stat(paths.ConfigFile); err == nil && !configInitForce {
		return WrapConfig(fmt.Errorf("configuration already exists at %s (use --force to overwrite)", paths.ConfigFile))
	}

	if err := config.EnsureHomeDir(); err != nil {
		return fmt.Errorf("creating %s: %w", paths.HomeDir, err)
	}

	content, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return fmt.Errorf("rendering default configuration: %w", err)
	}

	if err := os.WriteFile(paths.ConfigFile, append([]byte(configFileHeader), content...), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", paths.ConfigFile, err)
	}

	output.Println("Configuration initialized at " + paths.ConfigFile)
	output.Println("")
	output.Println("Next: set registry.account and registry.region, then validate with 'gothambuild config vet'")

	return nil
}

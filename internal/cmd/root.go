package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gothamlabs/gothambuild/internal/config"
	"github.com/gothamlabs/gothambuild/internal/output"
)

var (
	// Global flags
	configFlag     string
	accountFlag    string
	regionFlag     string
	repositoryFlag string
	verboseFlag    bool
	timestampsFlag bool

	// Resolved configuration (loaded during PersistentPreRunE)
	gothamConfig *config.Config
)

// NewRootCmd creates the root command for the gothambuild CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gothambuild",
		Short:         "Container build and release pipeline",
		Long:          `gothambuild builds a tested, secret-free runtime image and releases it to ECR with a deployment descriptor.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals(cmd)
		},
	}

	// Add global flags
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (env: GOTHAM_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&accountFlag, "account", "", "AWS account ID of the registry (env: GOTHAM_REGISTRY_ACCOUNT)")
	rootCmd.PersistentFlags().StringVar(&regionFlag, "region", "", "AWS region of the registry (env: GOTHAM_REGISTRY_REGION)")
	rootCmd.PersistentFlags().StringVar(&repositoryFlag, "repository", "", "Image repository name (env: GOTHAM_REPOSITORY)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&timestampsFlag, "timestamps", true, "Show timestamps in log output")

	// Add subcommands
	rootCmd.AddCommand(NewReleaseCmd())
	rootCmd.AddCommand(NewBuildCmd())
	rootCmd.AddCommand(NewTagCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// initializeGlobals sets up logging and loads configuration.
func initializeGlobals(cmd *cobra.Command) error {
	cfg, err := config.NewLoader().Load(configFlag)
	if err != nil {
		return WrapConfig(err)
	}

	// Flags override file and environment values.
	if accountFlag != "" {
		cfg.Registry.Account = accountFlag
	}
	if regionFlag != "" {
		cfg.Registry.Region = regionFlag
	}
	if repositoryFlag != "" {
		cfg.Registry.Repository = repositoryFlag
	}

	gothamConfig = cfg.WithDefaults()

	// Timestamp precedence: flag (if explicitly set) > config > default(true)
	logCfg := output.LogConfig{Verbose: verboseFlag}
	if cmd.Flags().Changed("timestamps") {
		logCfg.Timestamps = output.BoolPtr(timestampsFlag)
	} else if gothamConfig.Log.Timestamps != nil {
		logCfg.Timestamps = gothamConfig.Log.Timestamps
	}
	output.SetupLogging(logCfg)

	if verboseFlag {
		output.Debug("initializing CLI",
			"config", configFlag,
			"account", gothamConfig.Registry.Account,
			"region", gothamConfig.Registry.Region,
			"repository", gothamConfig.Registry.Repository,
		)
	}

	return nil
}

// GetConfig returns the loaded, defaulted configuration.
func GetConfig() *config.Config {
	return gothamConfig
}

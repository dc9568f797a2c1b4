package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gothamlabs/gothambuild/internal/buildstage"
	"github.com/gothamlabs/gothambuild/internal/engine"
	"github.com/gothamlabs/gothambuild/internal/output"
	"github.com/gothamlabs/gothambuild/internal/pipeline"
	"github.com/gothamlabs/gothambuild/internal/registry"
)

var buildSkipScanFlag bool

// NewBuildCmd creates the build command.
func NewBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the runtime image without pushing",
		Long: `Build the runtime image locally.

Runs the same two-stage build as release (test gate, release compile,
secret purge, runtime assembly) and the post-build secret scan, but
pushes nothing and writes no descriptor. Useful for verifying a build
before cutting a release.

The image is tagged <repository>:latest, or with the full registry URI
when the registry account and region are configured.

Examples:
  # Build from the current directory
  gothambuild build

  # Build without the layer scan
  gothambuild build --skip-layer-scan`,
		RunE: runBuild,
	}

	cmd.Flags().BoolVar(&buildSkipScanFlag, "skip-layer-scan", false,
		"Skip the post-build secret scan of the image")

	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	// A local build does not need registry settings; tag with the full
	// URI only when they are present.
	imageRef := registry.Ref(cfg.Registry.Repository, "latest")
	if cfg.Registry.Account != "" && cfg.Registry.Region != "" {
		uri := registry.RepositoryURI(cfg.Registry.Account, cfg.Registry.Region, cfg.Registry.Repository)
		imageRef = registry.Ref(uri, "latest")
	}

	api, err := engine.NewClient()
	if err != nil {
		return err
	}

	var result *buildstage.Result
	err = output.RunWithSpinner(cmd.Context(), func() error {
		var buildErr error
		result, buildErr = pipeline.Build(cmd.Context(), cfg,
			buildstage.New(api), buildstage.NewLayerScanner(api),
			imageRef, buildSkipScanFlag)
		return buildErr
	}, output.WithTitle("Building "+imageRef+"..."))
	if err != nil {
		return err
	}

	output.Println(output.FormatStepLine(result.ImageRef, output.StatusBuilt))
	output.Println(output.FormatCheckmark("Image " + result.ImageID + " built"))
	return nil
}

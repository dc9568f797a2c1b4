package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/gothamlabs/gothambuild/internal/buildstage"
	"github.com/gothamlabs/gothambuild/internal/config"
	"github.com/gothamlabs/gothambuild/internal/engine"
	"github.com/gothamlabs/gothambuild/internal/output"
	"github.com/gothamlabs/gothambuild/internal/pipeline"
	"github.com/gothamlabs/gothambuild/internal/registry"
	"github.com/gothamlabs/gothambuild/internal/revision"
)

var (
	releaseDescriptorFlag string
	releaseSkipScanFlag   bool
)

// NewReleaseCmd creates the release command.
func NewReleaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Build, push and describe a release",
		Long: `Run the full release pipeline.

Steps, in order:
  1. Authenticate to the ECR registry
  2. Build the runtime image (tests gate the build; secrets are
     injected for the build stage only and purged before the runtime
     stage)
  3. Tag the image with the derived version tag
  4. Push :latest, then the derived tag
  5. Write the Dockerrun.aws.json deployment descriptor

The derived tag is the first 7 characters of the resolved source
revision, or "latest" when no revision is available.

The pipeline never retries: the first failure aborts the run and the
exit code names the failing stage.

Examples:
  # Release from the current directory
  gothambuild release

  # Release with an explicit descriptor location
  gothambuild release --descriptor deploy/Dockerrun.aws.json`,
		RunE: runRelease,
	}

	cmd.Flags().StringVar(&releaseDescriptorFlag, "descriptor", "",
		"Descriptor output path (default from config)")
	cmd.Flags().BoolVar(&releaseSkipScanFlag, "skip-layer-scan", false,
		"Skip the post-build secret scan of the image")

	return cmd
}

func runRelease(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := config.Validate(cfg); err != nil {
		return WrapConfig(err)
	}

	ctx := cmd.Context()
	rev := revision.Resolve()

	api, err := engine.NewClient()
	if err != nil {
		return err
	}

	ecrClient, err := registry.NewECRClient(ctx, cfg.Registry.Region)
	if err != nil {
		return err
	}

	pipe := pipeline.New(cfg,
		registry.NewAuthenticator(ecrClient),
		buildstage.New(api),
		registry.NewPusher(api),
		buildstage.NewLayerScanner(api),
	)

	var result *pipeline.Result
	err = output.RunWithSpinner(ctx, func() error {
		var runErr error
		result, runErr = pipe.Release(ctx, pipeline.Options{
			Revision:       rev,
			SkipLayerScan:  releaseSkipScanFlag,
			DescriptorPath: releaseDescriptorFlag,
		})
		return runErr
	}, output.WithTitle("Releasing "+registry.Ref(cfg.Registry.Repository, rev.Tag())+"..."))
	if err != nil {
		return err
	}

	for _, ref := range result.Pushed {
		output.Println(output.FormatStepLine(ref, output.StatusPushed))
	}
	output.Println(output.FormatStepLine(result.DescriptorPath, output.StatusWritten))
	output.Println(output.FormatCheckmark(
		output.FormatSummary(result.Tag, len(result.Pushed), result.Duration.Round(time.Millisecond).String())))

	return nil
}

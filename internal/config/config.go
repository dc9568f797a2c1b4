// Package config provides configuration loading and management.
package config

import "fmt"

// RegistryConfig identifies the target image registry.
type RegistryConfig struct {
	// Account is the 12-digit AWS account ID owning the registry.
	// Env: GOTHAM_REGISTRY_ACCOUNT
	Account string `mapstructure:"account" yaml:"account"`

	// Region is the AWS region of the registry.
	// Env: GOTHAM_REGISTRY_REGION, falls back to AWS_REGION
	Region string `mapstructure:"region" yaml:"region"`

	// Repository is the image repository name.
	// Env: GOTHAM_REPOSITORY, Default: "gothambuild"
	Repository string `mapstructure:"repository" yaml:"repository"`
}

// BuildConfig controls the build stage.
type BuildConfig struct {
	// Context is the build context directory.
	// Default: "."
	Context string `mapstructure:"context" yaml:"context"`

	// TestWorkers bounds test-suite parallelism inside the build stage.
	// Default: 4
	TestWorkers int `mapstructure:"testWorkers" yaml:"testWorkers"`

	// Secrets are the names of build-time credentials injected as build
	// arguments. Values come from the environment; a missing value is a
	// tolerated degraded mode, not an error.
	Secrets []string `mapstructure:"secrets" yaml:"secrets"`

	// BuilderImage is the build-stage base image.
	BuilderImage string `mapstructure:"builderImage" yaml:"builderImage"`

	// RuntimeImage is the runtime-stage base image.
	RuntimeImage string `mapstructure:"runtimeImage" yaml:"runtimeImage"`

	// TestCommand overrides the generated test-gate command.
	// Default: "cargo test -j <testWorkers>"
	TestCommand string `mapstructure:"testCommand" yaml:"testCommand"`

	// CompileCommand overrides the release-compile command.
	// Default: "cargo build --release"
	CompileCommand string `mapstructure:"compileCommand" yaml:"compileCommand"`

	// ArtifactPath is the compiled binary's path inside the build stage.
	ArtifactPath string `mapstructure:"artifactPath" yaml:"artifactPath"`

	// Entrypoint is the entry-point script path in the build context.
	Entrypoint string `mapstructure:"entrypoint" yaml:"entrypoint"`

	// RuntimePackages are installed fresh in the runtime stage.
	RuntimePackages []string `mapstructure:"runtimePackages" yaml:"runtimePackages"`
}

// ImageConfig describes the produced runtime image.
type ImageConfig struct {
	// Port is the service port the image exposes.
	// Default: 8000
	Port int `mapstructure:"port" yaml:"port"`
}

// DescriptorConfig controls deployment descriptor emission.
type DescriptorConfig struct {
	// Path is the descriptor output path.
	// Default: "Dockerrun.aws.json"
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps *bool `mapstructure:"timestamps" yaml:"timestamps,omitempty"`
}

// Config represents the gothambuild configuration.
// Loaded from ~/.gothambuild/config.yaml with GOTHAM_* env overrides.
type Config struct {
	Registry   RegistryConfig   `mapstructure:"registry" yaml:"registry"`
	Build      BuildConfig      `mapstructure:"build" yaml:"build"`
	Image      ImageConfig      `mapstructure:"image" yaml:"image"`
	Descriptor DescriptorConfig `mapstructure:"descriptor" yaml:"descriptor"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

// DefaultSecrets are the build credentials a stock pipeline injects:
// the attestation-service token used by the test suite and the two
// database role passwords.
var DefaultSecrets = []string{
	"GOTHAM_TEST_SLOT_TOKEN",
	"GOTHAM_DB_PASS_W",
	"GOTHAM_DB_PASS_R",
}

// WithDefaults returns a copy of the config with defaults applied to
// every unset field.
func (c *Config) WithDefaults() *Config {
	out := *c

	if out.Registry.Repository == "" {
		out.Registry.Repository = "gothambuild"
	}
	if out.Build.Context == "" {
		out.Build.Context = "."
	}
	if out.Build.TestWorkers == 0 {
		out.Build.TestWorkers = 4
	}
	if out.Build.Secrets == nil {
		out.Build.Secrets = append([]string(nil), DefaultSecrets...)
	}
	if out.Build.BuilderImage == "" {
		out.Build.BuilderImage = "rust:1.70-slim"
	}
	if out.Build.RuntimeImage == "" {
		out.Build.RuntimeImage = "debian:bookworm-slim"
	}
	if out.Build.TestCommand == "" {
		out.Build.TestCommand = fmt.Sprintf("cargo test -j %d", out.Build.TestWorkers)
	}
	if out.Build.CompileCommand == "" {
		out.Build.CompileCommand = "cargo build --release"
	}
	if out.Build.ArtifactPath == "" {
		out.Build.ArtifactPath = "target/release/server"
	}
	if out.Build.Entrypoint == "" {
		out.Build.Entrypoint = "docker-entrypoint.sh"
	}
	if out.Build.RuntimePackages == nil {
		out.Build.RuntimePackages = []string{"libssl3", "ca-certificates"}
	}
	if out.Image.Port == 0 {
		out.Image.Port = 8000
	}
	if out.Descriptor.Path == "" {
		out.Descriptor.Path = "Dockerrun.aws.json"
	}

	return &out
}

// DefaultConfig returns a Config with all default values populated.
// Used by `gothambuild config init` to generate the initial file.
func DefaultConfig() *Config {
	return (&Config{}).WithDefaults()
}

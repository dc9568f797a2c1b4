package config

import (
	"fmt"
	"regexp"
)

var (
	accountPattern = regexp.MustCompile(`^\d{12}$`)

	// ECR repository name charset.
	repositoryPattern = regexp.MustCompile(`^[a-z0-9]+(?:[._-][a-z0-9]+)*(?:/[a-z0-9]+(?:[._-][a-z0-9]+)*)*$`)
)

// Validate checks a fully-defaulted config for release readiness.
// It reports the first violation found.
func Validate(cfg *Config) error {
	if cfg.Registry.Account == "" {
		return fmt.Errorf("registry.account is required (set GOTHAM_REGISTRY_ACCOUNT or the config file)")
	}
	if !accountPattern.MatchString(cfg.Registry.Account) {
		return fmt.Errorf("registry.account %q must be a 12-digit AWS account ID", cfg.Registry.Account)
	}
	if cfg.Registry.Region == "" {
		return fmt.Errorf("registry.region is required (set GOTHAM_REGISTRY_REGION or AWS_REGION)")
	}
	if !repositoryPattern.MatchString(cfg.Registry.Repository) {
		return fmt.Errorf("registry.repository %q is not a valid repository name", cfg.Registry.Repository)
	}
	if cfg.Build.TestWorkers < 1 {
		return fmt.Errorf("build.testWorkers must be at least 1, got %d", cfg.Build.TestWorkers)
	}
	if cfg.Image.Port < 1 || cfg.Image.Port > 65535 {
		return fmt.Errorf("image.port %d is outside the valid port range", cfg.Image.Port)
	}
	if cfg.Descriptor.Path == "" {
		return fmt.Errorf("descriptor.path must not be empty")
	}
	return nil
}

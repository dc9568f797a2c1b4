package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Registry.Account = "123456789012"
	cfg.Registry.Region = "us-west-2"
	return cfg
}

func TestValidate(t *testing.T) {
	t.Run("accepts a complete config", func(t *testing.T) {
		require.NoError(t, Validate(validConfig()))
	})

	t.Run("requires account", func(t *testing.T) {
		cfg := validConfig()
		cfg.Registry.Account = ""
		assert.ErrorContains(t, Validate(cfg), "registry.account is required")
	})

	t.Run("rejects malformed account", func(t *testing.T) {
		cfg := validConfig()
		cfg.Registry.Account = "12345"
		assert.ErrorContains(t, Validate(cfg), "12-digit")
	})

	t.Run("requires region", func(t *testing.T) {
		cfg := validConfig()
		cfg.Registry.Region = ""
		assert.ErrorContains(t, Validate(cfg), "registry.region is required")
	})

	t.Run("rejects invalid repository name", func(t *testing.T) {
		cfg := validConfig()
		cfg.Registry.Repository = "Not_Valid!"
		assert.ErrorContains(t, Validate(cfg), "not a valid repository name")
	})

	t.Run("rejects zero test workers", func(t *testing.T) {
		cfg := validConfig()
		cfg.Build.TestWorkers = -1
		assert.ErrorContains(t, Validate(cfg), "testWorkers")
	})

	t.Run("rejects out-of-range port", func(t *testing.T) {
		cfg := validConfig()
		cfg.Image.Port = 70000
		assert.ErrorContains(t, Validate(cfg), "port range")
	})
}

func TestWithDefaults(t *testing.T) {
	t.Run("does not clobber explicit values", func(t *testing.T) {
		cfg := &Config{}
		cfg.Build.TestWorkers = 2
		cfg.Build.Secrets = []string{"ONLY_ONE"}

		out := cfg.WithDefaults()
		assert.Equal(t, 2, out.Build.TestWorkers)
		assert.Equal(t, "cargo test -j 2", out.Build.TestCommand)
		assert.Equal(t, []string{"ONLY_ONE"}, out.Build.Secrets)
	})

	t.Run("empty secret list stays empty", func(t *testing.T) {
		cfg := &Config{}
		cfg.Build.Secrets = []string{}

		out := cfg.WithDefaults()
		assert.Empty(t, out.Build.Secrets)
	})
}

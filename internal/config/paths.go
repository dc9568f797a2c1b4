package config

import (
	"os"
	"path/filepath"
)

// Paths contains standard filesystem paths for gothambuild.
type Paths struct {
	// ConfigFile is the path to the config file (~/.gothambuild/config.yaml).
	ConfigFile string

	// HomeDir is the gothambuild home directory (~/.gothambuild).
	HomeDir string
}

// DefaultPaths returns the default paths for gothambuild.
func DefaultPaths() (*Paths, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	gothamHome := filepath.Join(homeDir, ".gothambuild")

	return &Paths{
		ConfigFile: filepath.Join(gothamHome, "config.yaml"),
		HomeDir:    gothamHome,
	}, nil
}

// GetConfigFile returns the config file path.
// If GOTHAM_CONFIG is set, it takes precedence.
func GetConfigFile() (string, error) {
	if envPath := os.Getenv("GOTHAM_CONFIG"); envPath != "" {
		return envPath, nil
	}

	paths, err := DefaultPaths()
	if err != nil {
		return "", err
	}

	return paths.ConfigFile, nil
}

// EnsureHomeDir creates the gothambuild home directory if it doesn't exist.
func EnsureHomeDir() error {
	paths, err := DefaultPaths()
	if err != nil {
		return err
	}

	return os.MkdirAll(paths.HomeDir, 0o755)
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) == 0 {
		return path, nil
	}

	if path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if len(path) == 1 {
		return homeDir, nil
	}

	return filepath.Join(homeDir, path[1:]), nil
}

package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - HG_CONFIG_PATH: config file location (default: ~/.config/hg.toml)
//   - HG_HOME: base directory for hg data (default: ~/.local/share/hg)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking HG_CONFIG_PATH env var first,
// then falling back to the default ~/.config/hg.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("HG_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "hg.toml"), nil
}

// getBaseDir returns the base directory for hg data, checking HG_HOME env var first,
// then falling back to the XDG default ~/.local/share/hg.
func getBaseDir() (string, error) {
	if path := os.Getenv("HG_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "hg"), nil
}

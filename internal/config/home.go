package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HomeEnv overrides the dora home directory.
const HomeEnv = "DORA_HOME"

// GetDoraHome returns the dora home directory
// Priority order:
//  1. DORA_HOME environment variable (if set)
//  2. .dora under the current working directory
//
// The directory is created if it doesn't exist
func GetDoraHome() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return GetDoraHomeIn(cwd)
}

// GetDoraHomeIn is GetDoraHome with dir standing in for the working directory.
func GetDoraHomeIn(dir string) (string, error) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		home = filepath.Join(dir, ".dora")
	}
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create dora home directory: %w", err)
	}
	return home, nil
}

// Load resolves the configuration for a command invocation. An explicit path
// wins, then $DORA_HOME/config.yaml, then .dora/config.yaml under the working
// directory. When DORA_HOME is set, default .dora/ paths move under it.
func Load(explicitPath string) (*Config, error) {
	var home string
	if os.Getenv(HomeEnv) != "" {
		h, err := GetDoraHome()
		if err != nil {
			return nil, err
		}
		home = h
	}

	var (
		cfg *Config
		err error
	)
	switch {
	case explicitPath != "":
		if _, statErr := os.Stat(explicitPath); statErr != nil {
			return nil, fmt.Errorf("config file %s: %w", explicitPath, statErr)
		}
		cfg, err = LoadConfig(explicitPath)
	case home != "":
		cfg, err = LoadConfig(filepath.Join(home, "config.yaml"))
	default:
		cfg, err = LoadConfigFromDir(".")
	}
	if err != nil {
		return nil, err
	}

	if home != "" {
		cfg.rebaseHome(home)
	}
	return cfg, nil
}

// rebaseHome swaps the default ".dora/" prefix for home so a relocated home
// keeps its logs, database and reports together.
func (c *Config) rebaseHome(home string) {
	rebase := func(p *string) {
		rel, err := filepath.Rel(".dora", *p)
		if err != nil || filepath.IsAbs(*p) || rel == ".." || strings.HasPrefix(rel, "../") {
			return
		}
		*p = filepath.Join(home, rel)
	}
	rebase(&c.LogDir)
	rebase(&c.Storage.Path)
	rebase(&c.Delivery.ReportDir)
	rebase(&c.Metrics.Textfile)
}

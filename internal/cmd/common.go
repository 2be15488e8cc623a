package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/harrison/dora/internal/config"
	"github.com/harrison/dora/internal/display"
	"github.com/harrison/dora/internal/parser"
	"github.com/harrison/dora/internal/storage"
	"github.com/spf13/cobra"
)

// loadConfig reads the configuration named by --config (or the default
// location), applies any flags the user set explicitly and validates the
// result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.MergeWithFlags(
		changedString(cmd, "log-level"),
		changedString(cmd, "log-dir"),
		changedString(cmd, "lang"),
		changedString(cmd, "storage"),
		changedString(cmd, "storage-path"),
	)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// changedString returns a pointer to the flag's value only when the user set
// it, so unset flags never override the config file.
func changedString(cmd *cobra.Command, name string) *string {
	flag := cmd.Flags().Lookup(name)
	if flag == nil || !flag.Changed {
		return nil
	}
	v := flag.Value.String()
	return &v
}

func openStore(cfg *config.Config) (storage.Store, error) {
	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}
	return store, nil
}

// warnIgnoredParts tells the user about files a catalog directory skips.
func warnIgnoredParts(path string, out io.Writer) {
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return
	}
	if w, ok := display.IgnoredCatalogFiles(path, parser.IgnoredFiles(path)); ok {
		w.Display(out)
	}
}

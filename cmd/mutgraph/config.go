package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/odvcencio/mutgraph/pkg/mutation"
	"github.com/odvcencio/mutgraph/pkg/mutstore"
)

// cliConfig is the mutgraph.toml layout:
//
//	[mutation]
//	enabled = true
//	record = true
//	user = "alice"
//
//	[store]
//	path = ".mutgraph/log.db"
type cliConfig struct {
	Mutation mutation.Config `toml:"mutation"`
	Store    storeConfig     `toml:"store"`
}

type storeConfig struct {
	Path string `toml:"path"`
}

// loadConfig reads the config file named by the --config flag. A missing file
// yields defaults with tracking and recording enabled.
func loadConfig(cmd *cobra.Command) (*cliConfig, error) {
	cfg := &cliConfig{
		Mutation: mutation.Config{Enabled: true, Record: true},
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("read config: unmarshal: %w", err)
	}
	return cfg, nil
}

// openStore opens the mutation log named by the --store flag, falling back to
// the configured path.
func openStore(cmd *cobra.Command, cfg *cliConfig) (*mutstore.Store, error) {
	path, err := cmd.Flags().GetString("store")
	if err != nil {
		return nil, err
	}
	if !cmd.Flags().Changed("store") && cfg.Store.Path != "" {
		path = cfg.Store.Path
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("open store: mkdir: %w", err)
		}
	}
	return mutstore.Open(path)
}

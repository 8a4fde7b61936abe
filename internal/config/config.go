// Package config loads the service configuration: typed structs with
// explicit defaults, an optional YAML file, and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// #region types

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	StreamDelayMS int    `yaml:"stream_delay_ms"`
}

// DatabaseConfig configures the audit store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ConsensusConfig tunes the aggregation threshold.
type ConsensusConfig struct {
	MinAverageConfidence float64 `yaml:"min_average_confidence"`
}

// Config is the full service configuration.
type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Database   DatabaseConfig  `yaml:"database"`
	Consensus  ConsensusConfig `yaml:"consensus"`
	CatalogDir string          `yaml:"catalog_dir"`
	Narrator   string          `yaml:"narrator"`
}

// #endregion types

// #region defaults

// Default returns the configuration used when no file or overrides exist.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:          ":8080",
			StreamDelayMS: 150,
		},
		Database:   DatabaseConfig{Path: "ordergate.db"},
		Consensus:  ConsensusConfig{MinAverageConfidence: 0.70},
		CatalogDir: "data",
		Narrator:   "template",
	}
}

// #endregion defaults

// #region load

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty or the file is absent), then environment
// overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// absent file keeps defaults
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.Server.Addr = envOr("ORDERGATE_ADDR", cfg.Server.Addr)
	cfg.Database.Path = envOr("ORDERGATE_DB", cfg.Database.Path)
	cfg.CatalogDir = envOr("ORDERGATE_CATALOG_DIR", cfg.CatalogDir)
	cfg.Narrator = envOr("ORDERGATE_NARRATOR", cfg.Narrator)
	if v := os.Getenv("ORDERGATE_STREAM_DELAY_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse ORDERGATE_STREAM_DELAY_MS: %w", err)
		}
		cfg.Server.StreamDelayMS = n
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot run.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server addr is required")
	}
	if c.Server.StreamDelayMS < 0 {
		return fmt.Errorf("config: stream delay must be non-negative, got %d", c.Server.StreamDelayMS)
	}
	if c.Consensus.MinAverageConfidence <= 0 || c.Consensus.MinAverageConfidence > 1 {
		return fmt.Errorf("config: consensus threshold must be in (0, 1], got %.2f", c.Consensus.MinAverageConfidence)
	}
	switch c.Narrator {
	case "noop", "template":
	default:
		return fmt.Errorf("config: unknown narrator %q", c.Narrator)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion load

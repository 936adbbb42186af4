package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the viewer's YAML configuration.
type Config struct {
	// RootDir is the directory to ingest.
	RootDir string `yaml:"root_dir"`
	// Recursive enables descent into subdirectories.
	Recursive bool `yaml:"recursive"`
	// LedgerPath is the sqlite ledger location. Empty disables the
	// ledger.
	LedgerPath string `yaml:"ledger_path"`
	// PreviewDir receives PNG previews of the first frame of each
	// series. Empty disables previews.
	PreviewDir string `yaml:"preview_dir"`
	// PreviewMaxDim caps preview width and height in pixels.
	PreviewMaxDim int `yaml:"preview_max_dim"`
	// PollIntervalMs is the pipeline message poll interval.
	PollIntervalMs int `yaml:"poll_interval_ms"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		RootDir:        ".",
		Recursive:      true,
		PreviewMaxDim:  512,
		PollIntervalMs: 100,
	}
}

// Read loads a YAML configuration file, filling omitted fields with
// defaults.
func Read(filePath string) (*Config, error) {
	file, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", filePath, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(file, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filePath, err)
	}

	if cfg.PreviewMaxDim <= 0 {
		cfg.PreviewMaxDim = 512
	}
	if cfg.PollIntervalMs <= 0 {
		cfg.PollIntervalMs = 100
	}
	return cfg, nil
}

// Package config provides configuration loading and management for
// straingen. It handles loading configuration from YAML files and provides
// default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Input parameters
	Input struct {
		// ImagesDir is the directory containing the reference images
		ImagesDir string `yaml:"imagesDir"`

		// MasksDir is the directory containing the foreground masks,
		// one per image with a matching filename stem
		MasksDir string `yaml:"masksDir"`
	} `yaml:"input"`

	// Displacement-field synthesis parameters
	Fields struct {
		// Bumps is the number of Gaussian bumps summed per field
		Bumps int `yaml:"bumps"`

		// MinWidth and MaxWidth bound the bump standard deviation in pixels
		MinWidth float64 `yaml:"minWidth"`
		MaxWidth float64 `yaml:"maxWidth"`

		// MaxDisplacement bounds the per-component bump amplitude in pixels
		MaxDisplacement float64 `yaml:"maxDisplacement"`
	} `yaml:"fields"`

	// Noise parameters
	Noise struct {
		// Sigma is the standard deviation of the additive Gaussian noise;
		// zero disables noise injection
		Sigma float64 `yaml:"sigma"`

		// Seed seeds field synthesis and noise injection so runs are
		// reproducible
		Seed uint64 `yaml:"seed"`
	} `yaml:"noise"`

	// Output parameters
	Output struct {
		// Dir is the dataset root directory
		Dir string `yaml:"dir"`

		// SamplesPerPair is how many samples to generate from each
		// image/mask pair
		SamplesPerPair int `yaml:"samplesPerPair"`

		// Visualize controls whether the eight-panel diagnostic figure is
		// rendered for every sample
		Visualize bool `yaml:"visualize"`

		// Report controls whether the HTML dataset report is written after
		// the run
		Report bool `yaml:"report"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default field synthesis parameters
	cfg.Fields.Bumps = 8
	cfg.Fields.MinWidth = 8.0
	cfg.Fields.MaxWidth = 32.0
	cfg.Fields.MaxDisplacement = 4.0

	// Set default noise parameters
	cfg.Noise.Sigma = 2.0
	cfg.Noise.Seed = 1

	// Set default output parameters
	cfg.Output.Dir = "training_set"
	cfg.Output.SamplesPerPair = 1
	cfg.Output.Visualize = true
	cfg.Output.Report = true

	return cfg
}

// Validate checks that the configuration values are usable.
func (cfg *Config) Validate() error {
	if cfg.Fields.Bumps <= 0 {
		return fmt.Errorf("fields.bumps must be positive, got %d", cfg.Fields.Bumps)
	}
	if cfg.Fields.MinWidth <= 0 || cfg.Fields.MaxWidth < cfg.Fields.MinWidth {
		return fmt.Errorf("fields.minWidth/maxWidth must satisfy 0 < min <= max, got %g and %g",
			cfg.Fields.MinWidth, cfg.Fields.MaxWidth)
	}
	if cfg.Fields.MaxDisplacement < 0 {
		return fmt.Errorf("fields.maxDisplacement must be non-negative, got %g", cfg.Fields.MaxDisplacement)
	}
	if cfg.Noise.Sigma < 0 {
		return fmt.Errorf("noise.sigma must be non-negative, got %g", cfg.Noise.Sigma)
	}
	if cfg.Output.SamplesPerPair < 1 {
		return fmt.Errorf("output.samplesPerPair must be at least 1, got %d", cfg.Output.SamplesPerPair)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Package config provides configuration loading and management for specfield.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Continuum normalization parameters
	Continuum struct {
		// FitOrder is the polynomial degree of the continuum model
		FitOrder int `yaml:"fitOrder"`

		// RestLowBand is the rest-frame [low, high] side-band below the feature,
		// in Angstroms; it is scaled by (1+z) at run time
		RestLowBand [2]float64 `yaml:"restLowBand"`

		// RestHighBand is the rest-frame side-band above the feature
		RestHighBand [2]float64 `yaml:"restHighBand"`

		// Subtract switches from dividing the continuum out to subtracting it
		Subtract bool `yaml:"subtract"`
	} `yaml:"continuum"`

	// Cutout extraction parameters
	Cutout struct {
		// SourcePixelScale is the wide-field image pixel scale in arcsec/pixel
		SourcePixelScale float64 `yaml:"sourcePixelScale"`

		// Stretch names the display stretch: asinh, linear, sqrt or log
		Stretch string `yaml:"stretch"`

		// ScaleMin and ScaleMax bound the display scaling
		ScaleMin float64 `yaml:"scaleMin"`
		ScaleMax float64 `yaml:"scaleMax"`

		// AsinhSoftening is the asinh stretch transition parameter
		AsinhSoftening float64 `yaml:"asinhSoftening"`
	} `yaml:"cutout"`

	// Output parameters
	Output struct {
		// PreviewDir is the directory where cutout previews are written
		PreviewDir string `yaml:"previewDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Quadratic continuum over the Na I D side-bands by default.
	cfg.Continuum.FitOrder = 2
	cfg.Continuum.RestLowBand = [2]float64{5810, 5865}
	cfg.Continuum.RestHighBand = [2]float64{5905, 5960}
	cfg.Continuum.Subtract = false

	cfg.Cutout.SourcePixelScale = 0.05
	cfg.Cutout.Stretch = "asinh"
	cfg.Cutout.ScaleMin = 0.0
	cfg.Cutout.ScaleMax = 1.0
	cfg.Cutout.AsinhSoftening = 0.1

	cfg.Output.PreviewDir = "previews"
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}

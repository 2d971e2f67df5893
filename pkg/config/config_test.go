package config

import (
	"path/filepath"
	"testing"
)

// TestDefaultConfig verifies the documented defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Continuum.FitOrder != 2 {
		t.Errorf("Expected default fit order 2, got %d", cfg.Continuum.FitOrder)
	}
	if cfg.Continuum.RestLowBand != [2]float64{5810, 5865} {
		t.Errorf("Unexpected default low band: %v", cfg.Continuum.RestLowBand)
	}
	if cfg.Continuum.RestHighBand != [2]float64{5905, 5960} {
		t.Errorf("Unexpected default high band: %v", cfg.Continuum.RestHighBand)
	}
	if cfg.Continuum.Subtract {
		t.Error("Division mode should be the default")
	}
	if cfg.Cutout.SourcePixelScale != 0.05 {
		t.Errorf("Expected default source pixel scale 0.05, got %g", cfg.Cutout.SourcePixelScale)
	}
	if cfg.Cutout.Stretch != "asinh" {
		t.Errorf("Expected default stretch asinh, got %q", cfg.Cutout.Stretch)
	}
}

// TestLoadMissingFile verifies that a missing config file yields defaults
// without an error.
func TestLoadMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig on missing file failed: %v", err)
	}
	if cfg.Continuum.FitOrder != 2 {
		t.Errorf("Expected defaults for missing file, got fit order %d", cfg.Continuum.FitOrder)
	}
}

// TestSaveLoadRoundTrip verifies configuration survives a YAML round trip.
func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "specfield.yaml")

	cfg := DefaultConfig()
	cfg.Continuum.FitOrder = 3
	cfg.Continuum.Subtract = true
	cfg.Cutout.SourcePixelScale = 0.1
	cfg.Cutout.Stretch = "log"
	cfg.Output.Verbose = false

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.Continuum.FitOrder != 3 || !loaded.Continuum.Subtract {
		t.Errorf("Continuum settings lost in round trip: %+v", loaded.Continuum)
	}
	if loaded.Cutout.SourcePixelScale != 0.1 || loaded.Cutout.Stretch != "log" {
		t.Errorf("Cutout settings lost in round trip: %+v", loaded.Cutout)
	}
	if loaded.Output.Verbose {
		t.Error("Output settings lost in round trip")
	}
}

// TestCreateDefaultConfigFile verifies the generated file parses back into
// the defaults.
func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specfield.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if *loaded != *DefaultConfig() {
		t.Errorf("Loaded config differs from defaults: %+v", loaded)
	}
}

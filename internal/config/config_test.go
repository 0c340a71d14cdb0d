// Package config provides configuration management for the Wincast pipeline.
package config

import (
	"os"
	"strings"
	"testing"
)

const (
	validConfigPath              = "testdata/valid_config.yaml"
	expectedNoErrorLoadingConfig = "expected no error loading config, got %v"
)

// TestLoadConfigSuccess tests loading a valid configuration file
func TestLoadConfigSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	if cfg == nil {
		t.Fatal("expected non-nil config")
	}

	if cfg.App.Name != "wincast" {
		t.Errorf("expected app name 'wincast', got '%s'", cfg.App.Name)
	}

	if cfg.App.Environment != "development" {
		t.Errorf("expected environment 'development', got '%s'", cfg.App.Environment)
	}

	if len(cfg.Data.Venues) != 2 {
		t.Errorf("expected 2 venues, got %d", len(cfg.Data.Venues))
	}

	if cfg.Database.Port != 5432 {
		t.Errorf("expected database port 5432, got %d", cfg.Database.Port)
	}
}

// TestLoadConfigDefaults tests that tuning constants fall back to defaults
func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	if cfg.Training.Seed != 42 {
		t.Errorf("expected default seed 42, got %d", cfg.Training.Seed)
	}
	if cfg.Training.TreeCount != 5 {
		t.Errorf("expected default tree count 5, got %d", cfg.Training.TreeCount)
	}
	if cfg.Inference.SoftmaxTemperature != 0.6 {
		t.Errorf("expected default softmax temperature 0.6, got %f", cfg.Inference.SoftmaxTemperature)
	}
	if cfg.Inference.RescaleFloor != 0.1 || cfg.Inference.RescaleCeil != 0.9 {
		t.Errorf("expected default rescale bounds [0.1, 0.9], got [%f, %f]",
			cfg.Inference.RescaleFloor, cfg.Inference.RescaleCeil)
	}
	if cfg.Features.WinsorizeLow != 0.01 || cfg.Features.WinsorizeHigh != 0.99 {
		t.Errorf("expected default winsorize bounds [0.01, 0.99], got [%f, %f]",
			cfg.Features.WinsorizeLow, cfg.Features.WinsorizeHigh)
	}
}

// TestLoadConfigMissingFile tests that a missing file still yields defaults
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := Load("testdata/nonexistent_config.yaml")
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	if cfg.App.Name != "wincast" {
		t.Errorf("expected default app name 'wincast', got '%s'", cfg.App.Name)
	}
}

// TestLoadConfigEnvironmentVariableExpansion tests ${VAR} expansion in the file
func TestLoadConfigEnvironmentVariableExpansion(t *testing.T) {
	os.Setenv("TEST_DB_PASSWORD", "expanded_secret_value")
	defer os.Unsetenv("TEST_DB_PASSWORD")

	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	if cfg.Database.Password != "expanded_secret_value" {
		t.Errorf("expected password from environment expansion, got '%s'", cfg.Database.Password)
	}
}

// TestValidateSuccess tests validation of a valid configuration
func TestValidateSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	if err := Validate(cfg); err != nil {
		t.Fatalf("expected no validation error, got %v", err)
	}
}

// TestValidateInvalidEnvironment tests validation of invalid environment
func TestValidateInvalidEnvironment(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.App.Environment = "invalid"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for invalid environment")
	}
}

// TestValidateInvalidBlendMode tests validation of an unknown blend mode
func TestValidateInvalidBlendMode(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.Inference.BlendMode = "chaos"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for invalid blend mode")
	}
}

// TestValidateCrossFieldBounds tests the cross-field range checks
func TestValidateCrossFieldBounds(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.Inference.RescaleFloor = 0.9
	cfg.Inference.RescaleCeil = 0.1
	err = Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for inverted rescale bounds")
	}
	if !strings.Contains(err.Error(), "rescale_floor") {
		t.Errorf("expected rescale_floor error, got: %v", err)
	}
}

// TestGetDatabaseDSN tests DSN generation
func TestGetDatabaseDSN(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	dsn := cfg.GetDatabaseDSN()
	if dsn == "" {
		t.Fatal("expected non-empty DSN")
	}
	if !strings.HasPrefix(dsn, "postgres://") {
		t.Errorf("expected DSN to start with 'postgres://', got '%s'", dsn)
	}
}

// TestHasDatabase tests optional database detection
func TestHasDatabase(t *testing.T) {
	cfg := &Config{}
	if cfg.HasDatabase() {
		t.Error("expected HasDatabase() to return false with no host")
	}

	cfg.Database.Host = "localhost"
	if !cfg.HasDatabase() {
		t.Error("expected HasDatabase() to return true with a host")
	}
}

// TestIsDevelopment tests environment check function
func TestIsDevelopment(t *testing.T) {
	cfg := &Config{App: AppConfig{Environment: "development"}}

	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment() to return true")
	}
	if cfg.IsProduction() {
		t.Error("expected IsProduction() to return false")
	}
}

package app

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadConfig verifies basic config loading.
func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config == nil {
		t.Fatal("LoadConfig() returned nil config")
	}
	if config.LogFormat == "" {
		t.Error("LogFormat not set to default")
	}
	if config.LogOutput != "stderr" && os.Getenv("LOG_OUTPUT") == "" {
		t.Errorf("LogOutput = %s, want stderr", config.LogOutput)
	}
}

// TestConfig_EnvironmentVariables verifies environment variable loading.
func TestConfig_EnvironmentVariables(t *testing.T) {
	t.Setenv("EXPRMAP_DATASET", "/data/vertebrates.yaml")
	t.Setenv("VERBOSE", "true")
	t.Setenv("FORMAT", "yaml")
	t.Setenv("LOG_LEVEL", "warn")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.Dataset != "/data/vertebrates.yaml" {
		t.Errorf("Dataset = %s, want /data/vertebrates.yaml", config.Dataset)
	}
	if !config.Verbose {
		t.Error("VERBOSE environment variable not loaded")
	}
	if config.Format != "yaml" {
		t.Errorf("Format = %s, want yaml", config.Format)
	}
	if config.LogLevel != "warn" {
		t.Errorf("LogLevel = %s, want warn", config.LogLevel)
	}
}

// TestConfig_File verifies values are read from an explicit config file.
func TestConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exprmap.yaml")
	if err := os.WriteFile(path, []byte("dataset: from-file.yaml\nformat: wide\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	t.Setenv("CONFIG", path)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.ConfigFile != path {
		t.Errorf("ConfigFile = %s, want %s", config.ConfigFile, path)
	}
	if config.Dataset != "from-file.yaml" {
		t.Errorf("Dataset = %s, want from-file.yaml", config.Dataset)
	}
	if config.Format != "wide" {
		t.Errorf("Format = %s, want wide", config.Format)
	}
}

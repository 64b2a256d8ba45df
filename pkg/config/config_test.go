package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine.MaxIterations != 10 {
		t.Fatalf("expected default max_iterations 10, got %d", cfg.Engine.MaxIterations)
	}
	if cfg.Data.Source != "synthetic" {
		t.Fatalf("expected default data source synthetic, got %s", cfg.Data.Source)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
}

func TestLoadRejectsBadSource(t *testing.T) {
	path := writeConfig(t, "environment: test\ndata:\n  source: carrier_pigeon\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error for unknown data source")
	}
}

func TestLoadRejectsThresholdAboveOne(t *testing.T) {
	path := writeConfig(t, "environment: test\nengine:\n  threshold_fraction: 1.5\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error for threshold >= 1")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "environment: test\n")
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("DATA_SOURCE", "synthetic")

	cfg, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Fatalf("env port override lost, got %d", cfg.Server.Port)
	}
}

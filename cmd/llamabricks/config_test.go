package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "models_dir: /models\nport: 9000\ntemperature: 0.3\nlog_format: json\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := loadConfigFile(path)
	if cfg.ModelsDir != "/models" || cfg.LogFormat != "json" {
		t.Fatalf("loadConfigFile() = %+v", cfg)
	}
	if cfg.Port == nil || *cfg.Port != 9000 {
		t.Fatalf("Port = %v, want 9000", cfg.Port)
	}
	if cfg.Temperature == nil || *cfg.Temperature != 0.3 {
		t.Fatalf("Temperature = %v, want 0.3", cfg.Temperature)
	}
	if cfg.TopK != nil {
		t.Fatalf("TopK = %v, want unset", *cfg.TopK)
	}
}

func TestLoadConfigFileMissingOrInvalid(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if cfg := loadConfigFile(filepath.Join(dir, "absent.yaml")); cfg.ModelsDir != "" {
		t.Fatalf("missing file gave %+v", cfg)
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("port: [oops"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if cfg := loadConfigFile(bad); cfg.Port != nil {
		t.Fatalf("invalid file gave %+v", cfg)
	}
}

func TestDefaultStorePath(t *testing.T) {
	t.Parallel()

	if got := defaultStorePath(Config{StoreFile: "/tmp/s.json"}); got != "/tmp/s.json" {
		t.Fatalf("defaultStorePath() = %q", got)
	}
}

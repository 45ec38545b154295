package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  path: data/test.db
approval:
  planning_threshold: "7500.50"
  request_kind: CAP
logger:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host default = %s", cfg.Server.Host)
	}
	if cfg.Database.MigrationsDir != "migrations" {
		t.Errorf("migrations dir default = %s", cfg.Database.MigrationsDir)
	}

	cents, err := cfg.Approval.PlanningThresholdCents()
	if err != nil {
		t.Fatalf("PlanningThresholdCents: %v", err)
	}
	if cents != 750050 {
		t.Errorf("threshold = %d, want 750050", cents)
	}
	if cfg.Approval.RequestKind != "CAP" {
		t.Errorf("request kind = %s, want CAP", cfg.Approval.RequestKind)
	}
}

func TestLoad_InvalidThreshold(t *testing.T) {
	path := writeConfig(t, `
approval:
  planning_threshold: "5000.001"
`)

	if _, err := Load(path); err == nil {
		t.Error("expected error for sub-cent threshold")
	}
}

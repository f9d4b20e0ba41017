package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "8080"
  baseURL: "http://localhost:3000"
live:
  defaultTimeLimitSeconds: 45
  gracePeriod: "120s"
redis:
  addr: "localhost:6379"
zoom:
  accountId: "file-account"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PORT", "9090")
	t.Setenv("ZOOM_ACCOUNT_ID", "env-account")
	t.Setenv("FRONTEND_URL", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected env port, got %s", cfg.Server.Port)
	}
	if cfg.Server.BaseURL != "http://localhost:3000" {
		t.Fatalf("empty env must not clear file value, got %q", cfg.Server.BaseURL)
	}
	if cfg.Zoom.AccountID != "env-account" {
		t.Fatalf("expected env zoom account, got %s", cfg.Zoom.AccountID)
	}
	if cfg.Live.DefaultTimeLimitSeconds != 45 || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if d := TTLDuration(cfg.Live.GracePeriod, time.Minute); d != 120*time.Second {
		t.Fatalf("expected 120s grace, got %v", d)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if d := TTLDuration("", time.Minute); d != time.Minute {
		t.Fatalf("expected fallback, got %v", d)
	}
	if d := TTLDuration("soon", time.Minute); d != time.Minute {
		t.Fatalf("expected fallback for garbage, got %v", d)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSessionRetentionIsOptIn(t *testing.T) {
	var cfg Config
	if d := cfg.SessionRetention(); d != 0 {
		t.Fatalf("expected sessions kept by default, got %v", d)
	}
	cfg.Live.Retention = "720h"
	if d := cfg.SessionRetention(); d != 720*time.Hour {
		t.Fatalf("expected 720h retention, got %v", d)
	}

	shipped, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	if err != nil {
		t.Fatalf("load shipped config: %v", err)
	}
	if d := shipped.SessionRetention(); d != 0 {
		t.Fatalf("shipped config must not expire sessions, got %v", d)
	}
}

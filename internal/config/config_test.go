package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CURRENCY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Currency != "UGX" {
		t.Errorf("expected default currency UGX, got %q", cfg.Currency)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Errorf("expected 15m access ttl, got %s", cfg.AccessTokenTTL)
	}
	if cfg.UploadMaxBytes != 5<<20 {
		t.Errorf("expected 5MiB upload limit, got %d", cfg.UploadMaxBytes)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_REFRESH_TTL", "48h")
	t.Setenv("CURRENCY", "KES")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("expected sqlite driver, got %q", cfg.DBDriver)
	}
	if cfg.RefreshTokenTTL != 48*time.Hour {
		t.Errorf("expected 48h refresh ttl, got %s", cfg.RefreshTokenTTL)
	}
	if cfg.Currency != "KES" {
		t.Errorf("expected KES, got %q", cfg.Currency)
	}
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Errorf("expected fallback 15m, got %s", cfg.AccessTokenTTL)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("UPLOAD_DIR: /srv/receipts\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.UploadDir != "/srv/receipts" {
		t.Errorf("expected upload dir from file, got %q", cfg.UploadDir)
	}
}

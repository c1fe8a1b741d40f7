package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8099" {
		t.Errorf("port = %q, want 8099", cfg.Server.Port)
	}
	if cfg.Database.Driver != "local" {
		t.Errorf("driver = %q, want local", cfg.Database.Driver)
	}
	if cfg.JWT.AccessExpiry != 15*time.Minute {
		t.Errorf("access expiry = %v", cfg.JWT.AccessExpiry)
	}
	if cfg.Points.CheckinRadiusMeters != 300 {
		t.Errorf("radius = %v", cfg.Points.CheckinRadiusMeters)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("STATS_CACHE_TTL", "2m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Points.StatsCacheTTL != 2*time.Minute {
		t.Errorf("ttl = %v", cfg.Points.StatsCacheTTL)
	}
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for default secret in production")
	}
}

package config

import (
	"os"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.FirstRun {
		t.Error("expected first run on a fresh directory")
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if !cfg.Business.TaxRate.Equal(decimal.RequireFromString("0.08")) {
		t.Errorf("tax rate = %s, want 0.08", cfg.Business.TaxRate)
	}
	if cfg.ToastTTL().Milliseconds() != 3000 {
		t.Errorf("toast ttl = %v, want 3s", cfg.ToastTTL())
	}
	if cfg.Auth.JWTSecret == "" {
		t.Error("expected a generated jwt secret")
	}
}

func TestSaveEncryptsSecrets(t *testing.T) {
	dir := t.TempDir()
	cfg := Default(dir)
	cfg.Database.Password = "hunter2"
	cfg.Auth.JWTSecret = "signing-key"

	if err := Save(dir, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if cfg.Database.Password != "hunter2" {
		t.Fatal("Save modified the caller's config")
	}

	raw, err := os.ReadFile(GetConfigPath(dir))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if strings.Contains(string(raw), "hunter2") || strings.Contains(string(raw), "signing-key") {
		t.Fatal("secrets were written in plain text")
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Database.Password != "hunter2" {
		t.Errorf("password = %q after round trip", loaded.Database.Password)
	}
	if loaded.Auth.JWTSecret != "signing-key" {
		t.Errorf("jwt secret = %q after round trip", loaded.Auth.JWTSecret)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://pos:pos@db:5432/pos")
	t.Setenv("WS_PORT", "9090")
	t.Setenv("TAX_RATE", "0.1")

	cfg := Default(t.TempDir())
	if err := ApplyEnv(cfg); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("driver = %q, want postgres when DATABASE_URL is set", cfg.Database.Driver)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if !cfg.Business.TaxRate.Equal(decimal.RequireFromString("0.1")) {
		t.Errorf("tax rate = %s, want 0.1", cfg.Business.TaxRate)
	}
}

func TestApplyEnvRejectsBadPort(t *testing.T) {
	t.Setenv("WS_PORT", "eighty")
	if err := ApplyEnv(Default(t.TempDir())); err == nil {
		t.Fatal("expected an error for a non-numeric port")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"unknown driver", func(c *AppConfig) { c.Database.Driver = "oracle" }},
		{"sqlite without path", func(c *AppConfig) { c.Database.Path = "" }},
		{"negative tax", func(c *AppConfig) { c.Business.TaxRate = decimal.NewFromInt(-1) }},
		{"zero toast ttl", func(c *AppConfig) { c.System.ToastTTLMillis = 0 }},
		{"bad port", func(c *AppConfig) { c.Server.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

package config_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/assetledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.Backend != config.BackendMemory {
		t.Fatalf("expected memory backend by default, got %s", cfg.Backend)
	}

	if cfg.JWTSecret != "" {
		t.Fatalf("expected JWT secret default to be empty, got %q", cfg.JWTSecret)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	rates, err := cfg.ConversionTable()
	if err != nil {
		t.Fatalf("conversion table: %v", err)
	}
	if rates.Reporting != "VND" || !rates.Rates["USD"].Equal(decimal.NewFromInt(25200)) {
		t.Fatalf("unexpected default rates %+v", rates)
	}

	policy := cfg.MatchPolicy()
	if !policy.TolerancePct.Equal(decimal.NewFromInt(2)) || policy.RiskGate != 80 {
		t.Fatalf("unexpected default match policy %+v", policy)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("AS_OF_DATE", "2025-08-15")
	t.Setenv("AP_MATCH_TOLERANCE_ABS", "500000")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.Backend != config.BackendPostgres || cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected postgres backend override, got %s %s", cfg.Backend, cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.JWTSecret != "top-secret" || !cfg.AuthEnabled {
		t.Fatalf("expected auth settings to be set, got secret=%s enabled=%v", cfg.JWTSecret, cfg.AuthEnabled)
	}

	today, err := cfg.Today()
	if err != nil || !today.Equal(time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected as-of date override, got %s err=%v", today, err)
	}

	if !cfg.MatchPolicy().ToleranceAbs.Equal(decimal.NewFromInt(500000)) {
		t.Fatalf("expected tolerance override, got %s", cfg.MatchToleranceAbs)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "invalid duration", env: map[string]string{"HTTP_READ_TIMEOUT": "not-a-duration"}},
		{name: "unknown backend", env: map[string]string{"LEDGER_BACKEND": "sqlite"}},
		{name: "auth without secret", env: map[string]string{"AUTH_ENABLED": "true", "JWT_SECRET": ""}},
		{name: "malformed rates", env: map[string]string{"FX_RATES": "VND=1"}},
		{name: "malformed as-of date", env: map[string]string{"AS_OF_DATE": "15/08/2025"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, err := config.Load(); err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
		})
	}
}

package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.Env != "development" {
		t.Fatalf("expected development default env, got %q", cfg.Env)
	}
	if cfg.Port != "8723" {
		t.Fatalf("expected default port 8723, got %q", cfg.Port)
	}
	if cfg.DatabasePath != "warungpos.db" {
		t.Fatalf("expected default database path, got %q", cfg.DatabasePath)
	}
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestAddressBindsLoopbackOnly(t *testing.T) {
	t.Setenv("PORT", "9001")

	cfg := Load()
	if !strings.HasPrefix(cfg.Address(), "127.0.0.1:") {
		t.Fatalf("expected loopback bind, got %q", cfg.Address())
	}
}

func TestCacheTTLFallsBackOnGarbage(t *testing.T) {
	t.Setenv("PRODUCT_CACHE_TTL_SECONDS", "not-a-number")

	cfg := Load()
	if cfg.ProductCacheTTL != 30 {
		t.Fatalf("expected fallback TTL 30, got %d", cfg.ProductCacheTTL)
	}
}

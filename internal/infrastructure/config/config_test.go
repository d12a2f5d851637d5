package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	l, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := l.Snapshot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Response.Generator != "lorem" {
		t.Errorf("default generator = %q, want lorem", cfg.Response.Generator)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "server:\n  port: 9999\nerrors:\n  rate_limit_rate: 0.25\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := l.Snapshot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Errors.RateLimitRate != 0.25 {
		t.Errorf("rate_limit_rate = %v, want 0.25", cfg.Errors.RateLimitRate)
	}
}

func TestBindFlagsOverridesFile(t *testing.T) {
	l, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.BindFlags("127.0.0.1", 1234, "echo", 10, true, true, true, true)
	cfg, err := l.Snapshot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 1234 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Response.Generator != "echo" || cfg.Response.TargetTokens != 10 {
		t.Errorf("unexpected response config: %+v", cfg.Response)
	}
}

func TestEnvOverrideHostAndPort(t *testing.T) {
	t.Setenv("LLMSIM_HOST", "10.0.0.5")
	t.Setenv("LLMSIM_PORT", "4321")

	l, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := l.Snapshot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Host != "10.0.0.5" {
		t.Errorf("host = %q, want 10.0.0.5", cfg.Server.Host)
	}
	if cfg.Server.Port != 4321 {
		t.Errorf("port = %d, want 4321", cfg.Server.Port)
	}
}

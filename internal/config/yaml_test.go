package config

import (
	"path/filepath"
	"testing"
)

func TestWriteAndLoadDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "showcase.yaml")
	if err := WriteDefaultConfig(path); err != nil {
		t.Fatalf("WriteDefaultConfig: %v", err)
	}

	cfg, err := LoadYAMLConfig(path)
	if err != nil {
		t.Fatalf("LoadYAMLConfig: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Auth.Secret != "" {
		t.Error("default config must not ship a secret")
	}
	if cfg.Auth.MaxAge != "24h" || cfg.Auth.BcryptCost != 12 {
		t.Errorf("auth defaults = %+v", cfg.Auth)
	}
	if cfg.Reviews.Revalidate != "1h" {
		t.Errorf("reviews.revalidate = %q, want 1h", cfg.Reviews.Revalidate)
	}
}

func TestLoadYAMLConfigExpandsEnv(t *testing.T) {
	t.Setenv("SHOWCASE_TEST_SECRET", "from-env")
	path := writeSeed(t, "auth:\n  secret: ${SHOWCASE_TEST_SECRET}\nlog:\n  level: debug\n")

	cfg, err := LoadYAMLConfig(path)
	if err != nil {
		t.Fatalf("LoadYAMLConfig: %v", err)
	}
	if cfg.Auth.Secret != "from-env" {
		t.Errorf("secret = %q, want from-env", cfg.Auth.Secret)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want debug", cfg.Log.Level)
	}
	// Unset keys keep their defaults.
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Server.Port)
	}
}

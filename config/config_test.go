package config

import (
	"strings"
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/contesthub_test")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_x")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.ServerPort)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:5173" {
		t.Errorf("default origins = %v", cfg.AllowedOrigins)
	}
	if cfg.R2Configured() {
		t.Error("R2 reported configured without any R2 variables")
	}
}

func TestLoadMissingRequired(t *testing.T) {
	for _, missing := range []string{"DATABASE_URL", "JWT_SECRET_KEY", "STRIPE_SECRET_KEY"} {
		t.Run(missing, func(t *testing.T) {
			setRequired(t)
			t.Setenv(missing, "")

			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), missing) {
				t.Fatalf("Load() error = %v, want it to name %s", err, missing)
			}
		})
	}
}

func TestLoadInvalidPort(t *testing.T) {
	for _, port := range []string{"nope", "0", "-1", "70000"} {
		t.Run(port, func(t *testing.T) {
			setRequired(t)
			t.Setenv("SERVER_PORT", port)

			if _, err := Load(); err == nil {
				t.Fatalf("Load() accepted SERVER_PORT=%q", port)
			}
		})
	}
}

func TestLoadSplitsOrigins(t *testing.T) {
	setRequired(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.contesthub.dev, http://localhost:5173")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"https://app.contesthub.dev", "http://localhost:5173"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("origins = %v, want %v", cfg.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Errorf("origin[%d] = %q, want %q", i, cfg.AllowedOrigins[i], want[i])
		}
	}
}

func TestR2Configured(t *testing.T) {
	setRequired(t)
	t.Setenv("R2_ACCOUNT_ID", "acc")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "banners")
	t.Setenv("R2_PUBLIC_BASE_URL", "https://cdn.contesthub.dev")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.R2Configured() {
		t.Error("R2Configured() = false with the full R2 group set")
	}

	t.Setenv("R2_BUCKET_NAME", "")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.R2Configured() {
		t.Error("R2Configured() = true with an incomplete R2 group")
	}
}

package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	t.Setenv("DB_PASSWORD", "test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
		{"FilterDebounce", cfg.View.FilterDebounce, 200 * time.Millisecond},
		{"SessionIdleTimeout", cfg.View.SessionIdleTimeout, 30 * time.Minute},
		{"DirectoryTimeout", cfg.Directory.Timeout, 30 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}

	if cfg.Directory.BaseURL != "https://graph.microsoft.com/" {
		t.Errorf("Directory.BaseURL: got %q", cfg.Directory.BaseURL)
	}
	if cfg.Directory.MaxPages != 100 {
		t.Errorf("Directory.MaxPages: got %d, want 100", cfg.Directory.MaxPages)
	}
	if cfg.View.BatchConcurrency != 0 {
		t.Errorf("View.BatchConcurrency: got %d, want 0", cfg.View.BatchConcurrency)
	}
	if cfg.Email.Enabled {
		t.Error("Email.Enabled: got true, want false")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_READ_TIMEOUT", "30s")
	t.Setenv("VIEW_FILTER_DEBOUNCE", "500ms")
	t.Setenv("BATCH_CONCURRENCY", "8")
	t.Setenv("DIRECTORY_MAX_PAGES", "5")
	t.Setenv("LOGIN_URL", "https://portal.example.com/login")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout: got %v", cfg.Server.ReadTimeout)
	}
	if cfg.View.FilterDebounce != 500*time.Millisecond {
		t.Errorf("FilterDebounce: got %v", cfg.View.FilterDebounce)
	}
	if cfg.View.BatchConcurrency != 8 {
		t.Errorf("BatchConcurrency: got %d", cfg.View.BatchConcurrency)
	}
	if cfg.Directory.MaxPages != 5 {
		t.Errorf("MaxPages: got %d", cfg.Directory.MaxPages)
	}
	if cfg.Server.LoginURL != "https://portal.example.com/login" {
		t.Errorf("LoginURL: got %q", cfg.Server.LoginURL)
	}
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VIEW_FILTER_DEBOUNCE", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.View.FilterDebounce != 200*time.Millisecond {
		t.Errorf("FilterDebounce with invalid value: got %v", cfg.View.FilterDebounce)
	}
}

func TestLoad_ZeroTimeoutHonored(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_READ_TIMEOUT", "0s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Server.ReadTimeout != 0 {
		t.Errorf("ReadTimeout with 0s: got %v, want 0", cfg.Server.ReadTimeout)
	}
}

func TestLoad_MissingSecrets(t *testing.T) {
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("DB_PASSWORD")

	if _, err := Load(); err == nil {
		t.Error("Load() without JWT_SECRET: want error")
	}

	t.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	if _, err := Load(); err == nil {
		t.Error("Load() without DB_PASSWORD: want error")
	}
}

func TestLoad_WeakSecretInProduction(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "short-but-16-chars")

	if _, err := Load(); err == nil {
		t.Error("Load() with short production secret: want error")
	}
}

func TestLoad_EmailRequiresSender(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EMAIL_ENABLED", "true")

	if _, err := Load(); err == nil {
		t.Error("Load() with email enabled and no sender: want error")
	}

	t.Setenv("EMAIL_FROM_ADDRESS", "noreply@example.com")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if !cfg.Email.Enabled {
		t.Error("Email.Enabled: got false")
	}
}

func TestLoad_NonPositiveMaxPages(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DIRECTORY_MAX_PAGES", "0")

	if _, err := Load(); err == nil {
		t.Error("Load() with DIRECTORY_MAX_PAGES=0: want error")
	}
}

func TestLoad_ListValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, ,192.168.0.0/16")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if got := cfg.Server.TrustedProxies; len(got) != 2 || got[0] != "10.0.0.0/8" || got[1] != "192.168.0.0/16" {
		t.Errorf("TrustedProxies: got %v", got)
	}
	if got := cfg.Server.AllowedOrigins; len(got) != 1 || got[0] != "https://admin.example.com" {
		t.Errorf("AllowedOrigins: got %v", got)
	}
	if cfg.Auth.LoginRateLimit != 5 || cfg.View.BatchRateLimit != 30 {
		t.Errorf("rate limits: got %d/%d, want 5/30", cfg.Auth.LoginRateLimit, cfg.View.BatchRateLimit)
	}
}

func TestLoad_BootstrapAdminRequiresBothValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ADMIN_USERNAME", "root")
	t.Setenv("ADMIN_PASSWORD", "")

	if _, err := Load(); err == nil {
		t.Error("Load() = nil, want error for ADMIN_USERNAME without ADMIN_PASSWORD")
	}

	t.Setenv("ADMIN_PASSWORD", "SecureP@ss123")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if cfg.Auth.BootstrapUsername != "root" {
		t.Errorf("BootstrapUsername: got %q", cfg.Auth.BootstrapUsername)
	}
}

package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		DatabaseURL:        "postgres://localhost/pms",
		JWTSecret:          "dev-secret",
		JWTAlgorithm:       "HS256",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
		MaxBodyBytes:       4096,
		MaxUploadBytes:     8192,
		RateLimitPerMinute: 10,
		NotifyWorkers:      2,
		NotifyQueueSize:    16,
		EmailProvider:      "smtp",
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing database", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "DATABASE_URL"},
		{name: "unsupported algorithm", mutate: func(c *Config) { c.JWTAlgorithm = "RS256" }, wantErr: "JWT_ALGORITHM"},
		{name: "weak production secret", mutate: func(c *Config) { c.Environment = "production" }, wantErr: "JWT_SECRET"},
		{name: "smtp without host", mutate: func(c *Config) { c.EmailEnabled = true }, wantErr: "SMTP_HOST"},
		{name: "resend without key", mutate: func(c *Config) { c.EmailEnabled = true; c.EmailProvider = "resend" }, wantErr: "EMAIL_API_KEY"},
		{name: "unknown provider", mutate: func(c *Config) { c.EmailEnabled = true; c.EmailProvider = "pigeon" }, wantErr: "EMAIL_PROVIDER"},
		{name: "bucket without endpoint", mutate: func(c *Config) { c.S3Bucket = "docs" }, wantErr: "S3_ENDPOINT"},
		{name: "zero workers", mutate: func(c *Config) { c.NotifyWorkers = 0 }, wantErr: "NOTIFY_WORKERS"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadReadsListsAndDurations(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,,")
	t.Setenv("CYCLE_ACTIVATION_INTERVAL", "15m")
	t.Setenv("NOTIFY_WORKERS", "not-a-number")
	t.Setenv("EMAIL_PROVIDER", "Resend")

	cfg := Load()
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected origins: %#v", cfg.CORSAllowedOrigins)
	}
	if cfg.CycleActivationInterval != 15*time.Minute {
		t.Fatalf("unexpected interval: %v", cfg.CycleActivationInterval)
	}
	if cfg.NotifyWorkers != 4 {
		t.Fatalf("expected fallback worker count, got %d", cfg.NotifyWorkers)
	}
	if cfg.EmailProvider != "resend" {
		t.Fatalf("expected lowercased provider, got %q", cfg.EmailProvider)
	}
}

func TestSlogLevel(t *testing.T) {
	if (Config{LogLevel: "DEBUG"}).SlogLevel() != slog.LevelDebug {
		t.Fatal("expected debug level")
	}
	if (Config{LogLevel: "bogus"}).SlogLevel() != slog.LevelInfo {
		t.Fatal("expected info fallback")
	}
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr                    string
	DatabaseURL             string
	Environment             string
	JWTSecret               string
	JWTAlgorithm            string
	AccessTokenTTL          time.Duration
	RefreshTokenTTL         time.Duration
	CORSAllowedOrigins      []string
	FrontendURL             string
	FrontendDir             string
	EmailEnabled            bool
	EmailProvider           string
	EmailAPIKey             string
	EmailFrom               string
	SMTPHost                string
	SMTPPort                int
	SMTPUser                string
	SMTPPassword            string
	SMTPUseTLS              bool
	RedisURL                string
	S3Endpoint              string
	S3AccessKey             string
	S3SecretKey             string
	S3Bucket                string
	S3Region                string
	S3UseSSL                bool
	UploadDir               string
	RunMigrations           bool
	RunSeed                 bool
	SeedFile                string
	SeedAdminEmail          string
	SeedAdminPassword       string
	MaxBodyBytes            int64
	MaxUploadBytes          int64
	RateLimitPerMinute      int
	NotifyWorkers           int
	NotifyQueueSize         int
	CycleActivationInterval time.Duration
	OverdueCheckInterval    time.Duration
	RetentionInterval       time.Duration
	NotificationRetention   time.Duration
	JobRunRetention         time.Duration
	AuditRetention          time.Duration
	ReviewPeerCount         int
	MetricsEnabled          bool
	LogLevel                string
}

func Load() Config {
	return Config{
		Addr:                    getEnv("APP_ADDR", ":8080"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		Environment:             getEnv("APP_ENV", "development"),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		JWTAlgorithm:            getEnv("JWT_ALGORITHM", "HS256"),
		AccessTokenTTL:          getEnvDuration("ACCESS_TOKEN_TTL", 30*time.Minute),
		RefreshTokenTTL:         getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		CORSAllowedOrigins:      getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		FrontendURL:             getEnv("FRONTEND_URL", "http://localhost:3000"),
		FrontendDir:             getEnv("FRONTEND_DIR", "frontend/dist"),
		EmailEnabled:            getEnvBool("EMAIL_ENABLED", false),
		EmailProvider:           strings.ToLower(getEnv("EMAIL_PROVIDER", "smtp")),
		EmailAPIKey:             getEnv("EMAIL_API_KEY", ""),
		EmailFrom:               getEnv("EMAIL_FROM", "no-reply@example.com"),
		SMTPHost:                getEnv("SMTP_HOST", ""),
		SMTPPort:                getEnvInt("SMTP_PORT", 587),
		SMTPUser:                getEnv("SMTP_USER", ""),
		SMTPPassword:            getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:              getEnvBool("SMTP_USE_TLS", true),
		RedisURL:                getEnv("REDIS_URL", ""),
		S3Endpoint:              getEnv("S3_ENDPOINT", ""),
		S3AccessKey:             getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:             getEnv("S3_SECRET_KEY", ""),
		S3Bucket:                getEnv("S3_BUCKET", ""),
		S3Region:                getEnv("S3_REGION", "us-east-1"),
		S3UseSSL:                getEnvBool("S3_USE_SSL", true),
		UploadDir:               getEnv("UPLOAD_DIR", "uploads"),
		RunMigrations:           getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:                 getEnvBool("RUN_SEED", true),
		SeedFile:                getEnv("SEED_FILE", ""),
		SeedAdminEmail:          getEnv("SEED_ADMIN_EMAIL", "admin@example.com"),
		SeedAdminPassword:       getEnv("SEED_ADMIN_PASSWORD", ""),
		MaxBodyBytes:            int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		MaxUploadBytes:          int64(getEnvInt("MAX_UPLOAD_BYTES", 10*1048576)),
		RateLimitPerMinute:      getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		NotifyWorkers:           getEnvInt("NOTIFY_WORKERS", 4),
		NotifyQueueSize:         getEnvInt("NOTIFY_QUEUE_SIZE", 256),
		CycleActivationInterval: getEnvDuration("CYCLE_ACTIVATION_INTERVAL", time.Hour),
		OverdueCheckInterval:    getEnvDuration("OVERDUE_CHECK_INTERVAL", time.Hour),
		RetentionInterval:       getEnvDuration("RETENTION_INTERVAL", 24*time.Hour),
		NotificationRetention:   getEnvDuration("NOTIFICATION_RETENTION", 90*24*time.Hour),
		JobRunRetention:         getEnvDuration("JOB_RUN_RETENTION", 30*24*time.Hour),
		AuditRetention:          getEnvDuration("AUDIT_RETENTION", 0),
		ReviewPeerCount:         getEnvInt("REVIEW_PEER_COUNT", 5),
		MetricsEnabled:          getEnvBool("METRICS_ENABLED", true),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
	}
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTAlgorithm != "HS256" {
		return fmt.Errorf("JWT_ALGORITHM %q is not supported, use HS256", c.JWTAlgorithm)
	}
	if c.IsProduction() {
		if len(strings.TrimSpace(c.JWTSecret)) < 32 {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL and REFRESH_TOKEN_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.MaxUploadBytes < c.MaxBodyBytes {
		return fmt.Errorf("MAX_UPLOAD_BYTES must not be smaller than MAX_BODY_BYTES")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.NotifyWorkers <= 0 || c.NotifyQueueSize <= 0 {
		return fmt.Errorf("NOTIFY_WORKERS and NOTIFY_QUEUE_SIZE must be positive")
	}
	if c.ReviewPeerCount < 0 {
		return fmt.Errorf("REVIEW_PEER_COUNT must not be negative")
	}
	if c.EmailEnabled {
		switch c.EmailProvider {
		case "smtp":
			if c.SMTPHost == "" {
				return fmt.Errorf("SMTP_HOST must be set when EMAIL_PROVIDER is smtp")
			}
		case "resend":
			if c.EmailAPIKey == "" {
				return fmt.Errorf("EMAIL_API_KEY must be set when EMAIL_PROVIDER is resend")
			}
		case "noop":
		default:
			return fmt.Errorf("EMAIL_PROVIDER %q is not supported", c.EmailProvider)
		}
	}
	if c.S3Bucket != "" && c.S3Endpoint == "" {
		return fmt.Errorf("S3_ENDPOINT must be set when S3_BUCKET is configured")
	}
	return nil
}

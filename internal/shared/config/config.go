package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Config holds application configuration.
type Config struct {
	Port            string        `env:"PORT" default:"8080"`
	Env             string        `env:"ENV" default:"dev"`
	ServiceName     string        `env:"SERVICE_NAME" default:"invoice-api"`
	CORSAllowOrigin []string      `env:"CORS_ALLOW_ORIGINS" envSeparator:"," default:"[\"http://localhost:3000\"]"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" default:"10485760" validate:"gt=0"`
	StepTimeout     time.Duration `env:"STEP_TIMEOUT" default:"30s" validate:"gt=0"`

	Storage StorageConfig
	LLM     LLMConfig
	Auth    AuthConfig
	Redis   RedisConfig
}

// StorageConfig selects and configures the object store backend.
type StorageConfig struct {
	Type            string `env:"OBJECT_STORE" default:"local" validate:"oneof=local s3 minio"`
	Bucket          string `env:"STORAGE_BUCKET" default:"invoices" validate:"required"`
	LocalDir        string `env:"LOCAL_STORE_DIR" default:"./data"`
	PublicBaseURL   string `env:"PUBLIC_BASE_URL" default:"http://localhost:8080/files"`
	AWSRegion       string `env:"AWS_REGION" default:"us-east-1"`
	S3Prefix        string `env:"S3_PREFIX"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`
	MinIOEndpoint   string `env:"MINIO_ENDPOINT" default:"localhost:9000"`
	MinIOAccessKey  string `env:"MINIO_ACCESS_KEY_ID" default:"minioadmin"`
	MinIOSecretKey  string `env:"MINIO_SECRET_ACCESS_KEY" default:"minioadmin"`
	MinIOUseSSL     bool   `env:"MINIO_USE_SSL" default:"false"`
}

// LLMConfig points at the external document parsing service.
type LLMConfig struct {
	ServerURL string `env:"LLM_SERVER_URL" default:"http://localhost:8000" validate:"required,url"`
	TimeoutMS int    `env:"LLM_TIMEOUT_MS" default:"120000" validate:"gt=0"`
}

// Timeout returns the parsing-call bound as a duration.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// AuthConfig configures bearer-token verification.
type AuthConfig struct {
	Mode        string `env:"AUTH_MODE" default:"jwt" validate:"oneof=jwt remote"`
	JWTSecret   string `env:"AUTH_JWT_SECRET"`
	JWTAudience string `env:"AUTH_JWT_AUDIENCE"`
	URL         string `env:"AUTH_URL" validate:"required_if=Mode remote"`
	APIKey      string `env:"AUTH_API_KEY"`
}

// RedisConfig enables the record read cache when URL is set.
type RedisConfig struct {
	URL string        `env:"REDIS_URL"`
	TTL time.Duration `env:"CACHE_TTL" default:"5m"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return Config{}, fmt.Errorf("apply defaults: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Env = normalizeEnv(cfg.Env)
	cfg.Storage.Type = strings.ToLower(strings.TrimSpace(cfg.Storage.Type))
	cfg.Auth.Mode = strings.ToLower(strings.TrimSpace(cfg.Auth.Mode))
	cfg.CORSAllowOrigin = splitAndTrim(cfg.CORSAllowOrigin)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and production-only requirements.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Auth.Mode == "jwt" && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("invalid config: AUTH_JWT_SECRET is required in jwt auth mode")
	}
	if c.Env == "production" && strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("invalid config: DATABASE_URL is required in production")
	}
	return nil
}

// IsDevLike reports whether the environment tolerates in-memory fallbacks.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func splitAndTrim(raw []string) []string {
	var out []string
	for _, p := range raw {
		for _, part := range strings.Split(p, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

// Package config loads Guardrail configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/coachly/guardrail/pkg/observability"
	"github.com/coachly/guardrail/pkg/storage/postgres"
	"github.com/coachly/guardrail/pkg/tenancy"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Postgres      postgres.Config
	Redis         RedisConfig
	OIDC          OIDCConfig
	Bootstrap     BootstrapConfig
	Features      FeaturesConfig
	Audit         AuditConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// RedisConfig holds the principal snapshot cache configuration. An empty
// Addr disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// OIDCConfig holds identity issuer configuration. An empty IssuerURL
// disables claims-based resolution; principals then resolve via the store.
type OIDCConfig struct {
	IssuerURL string
	ClientID  string
}

// BootstrapConfig holds bootstrap coordinator configuration
type BootstrapConfig struct {
	SuperAdminSlug    string
	DefaultSlug       string
	ReconcileSchedule string // cron expression; empty disables the reconciler
	ReconcileTimeout  time.Duration
}

// FeaturesConfig holds feature registry configuration. When FilePath is set
// the file registry is used; otherwise the database registry.
type FeaturesConfig struct {
	FilePath  string
	CacheSize int
	CacheTTL  time.Duration
}

// AuditConfig holds audit logger configuration. A non-empty FilePath adds a
// JSON-lines file sink alongside the database one.
type AuditConfig struct {
	QueueSize int
	FilePath  string
}

// ObservabilityConfig holds logging and tracing settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	TracingEnabled bool
	OTLPEndpoint   string
	ServiceName    string
	ServiceVersion string
	OTLPInsecure   bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = getEnv("GUARDRAIL_POSTGRES_URL", "")
	if maxConns := getEnvInt("GUARDRAIL_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		pgCfg.MaxConns = maxConns
	}
	if minConns := getEnvInt("GUARDRAIL_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		pgCfg.MinConns = minConns
	}
	if timeout := getEnvDuration("GUARDRAIL_POSTGRES_TIMEOUT", 0); timeout > 0 {
		pgCfg.Timeout = timeout
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("GUARDRAIL_HOST", "0.0.0.0"),
			Port:            getEnv("GUARDRAIL_PORT", "8080"),
			ReadTimeout:     getEnvDuration("GUARDRAIL_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("GUARDRAIL_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("GUARDRAIL_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("GUARDRAIL_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Postgres: pgCfg,
		Redis: RedisConfig{
			Addr:     getEnv("GUARDRAIL_REDIS_ADDR", ""),
			Password: getEnv("GUARDRAIL_REDIS_PASSWORD", ""),
			DB:       getEnvInt("GUARDRAIL_REDIS_DB", 0),
			TTL:      getEnvDuration("GUARDRAIL_REDIS_TTL", 30*time.Second),
		},
		OIDC: OIDCConfig{
			IssuerURL: getEnv("GUARDRAIL_OIDC_ISSUER_URL", ""),
			ClientID:  getEnv("GUARDRAIL_OIDC_CLIENT_ID", ""),
		},
		Bootstrap: BootstrapConfig{
			SuperAdminSlug:    getEnv("GUARDRAIL_SUPER_ADMIN_SLUG", tenancy.SuperAdminSlug),
			DefaultSlug:       getEnv("GUARDRAIL_DEFAULT_SLUG", tenancy.DefaultSlug),
			ReconcileSchedule: getEnv("GUARDRAIL_RECONCILE_SCHEDULE", "*/5 * * * *"),
			ReconcileTimeout:  getEnvDuration("GUARDRAIL_RECONCILE_TIMEOUT", 2*time.Minute),
		},
		Features: FeaturesConfig{
			FilePath:  getEnv("GUARDRAIL_FEATURES_FILE", ""),
			CacheSize: getEnvInt("GUARDRAIL_FEATURES_CACHE_SIZE", 256),
			CacheTTL:  getEnvDuration("GUARDRAIL_FEATURES_CACHE_TTL", time.Minute),
		},
		Audit: AuditConfig{
			QueueSize: getEnvInt("GUARDRAIL_AUDIT_QUEUE_SIZE", 1024),
			FilePath:  getEnv("GUARDRAIL_AUDIT_FILE", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:       observability.ParseLogLevel(getEnv("GUARDRAIL_LOG_LEVEL", "info")),
			TracingEnabled: getEnvBool("GUARDRAIL_TRACING_ENABLED", false),
			OTLPEndpoint:   getEnv("GUARDRAIL_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:    getEnv("GUARDRAIL_SERVICE_NAME", "guardrail"),
			ServiceVersion: getEnv("GUARDRAIL_SERVICE_VERSION", "dev"),
			OTLPInsecure:   getEnvBool("GUARDRAIL_OTLP_INSECURE", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks required and cross-dependent settings.
func (c *Config) Validate() error {
	if c.Postgres.URL == "" {
		return fmt.Errorf("GUARDRAIL_POSTGRES_URL is required")
	}
	if c.OIDC.IssuerURL != "" && c.OIDC.ClientID == "" {
		return fmt.Errorf("GUARDRAIL_OIDC_CLIENT_ID is required when an OIDC issuer is configured")
	}
	if c.Bootstrap.SuperAdminSlug == c.Bootstrap.DefaultSlug {
		return fmt.Errorf("super-admin and default tenant slugs must differ")
	}
	if c.Audit.QueueSize <= 0 {
		return fmt.Errorf("audit queue size must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

package config

import (
	"fmt"

	pkgconfig "github.com/Tago-F/onsen-review/pkg/config"
	"github.com/Tago-F/onsen-review/pkg/database"
)

// Config holds all configuration for the review API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"onsen"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"onsen_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"onsen_reviews"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka. Leave brokers empty to disable event publication.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"" envSeparator:","`

	// Azure Blob Storage. Leave the account name empty to fall back to
	// the in-memory signer (local development).
	AzureAccountName string `env:"AZURE_STORAGE_ACCOUNT" envDefault:""`
	AzureAccountKey  string `env:"AZURE_STORAGE_KEY" envDefault:""`
	AzureContainer   string `env:"AZURE_STORAGE_CONTAINER" envDefault:"onsenreview-images"`

	// CORS
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Tracing
	TracingEnabled  bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint    string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TraceSampleRate float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof endpoints are restricted to these CIDRs.
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load review api config: %w", err)
	}
	return cfg, nil
}

// PostgresConfig maps the flat env fields onto the pool configuration.
func (c *Config) PostgresConfig() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPass
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSL
	return pg
}

// RedisConfig maps the flat env fields onto the Redis configuration.
func (c *Config) RedisConfig() database.RedisConfig {
	rd := database.DefaultRedisConfig()
	rd.Host = c.RedisHost
	rd.Port = c.RedisPort
	rd.Password = c.RedisPass
	rd.DB = c.RedisDB
	return rd
}

// KafkaEnabled reports whether any broker is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaBrokers[0] != ""
}

// AzureEnabled reports whether real Azure storage credentials are configured.
func (c *Config) AzureEnabled() bool {
	return c.AzureAccountName != "" && c.AzureAccountKey != ""
}

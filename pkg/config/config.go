package config

import (
	"context"
	"time"
)

// Config is the complete catalog configuration.
type Config struct {
	Postgres PostgresConfig `koanf:"postgres" validate:"required"`
	Log      LogConfig      `koanf:"log"`
}

// PostgresConfig describes how to reach the catalog database through the
// pooling proxy. Each tier targets its own proxy port.
type PostgresConfig struct {
	Host             string            `koanf:"host"              env:"CATALOG_POSTGRES_HOST"              validate:"required"`
	Database         string            `koanf:"database"          env:"CATALOG_POSTGRES_DATABASE"          validate:"required"`
	App              CredentialConfig  `koanf:"app"               envPrefix:"CATALOG_POSTGRES_APP_"`
	DBA              CredentialConfig  `koanf:"dba"               envPrefix:"CATALOG_POSTGRES_DBA_"`
	SSLMode          string            `koanf:"ssl_mode"          env:"CATALOG_POSTGRES_SSL_MODE"          validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	Properties       map[string]string `koanf:"properties"`
	Admin            TierConfig        `koanf:"admin"             envPrefix:"CATALOG_POSTGRES_ADMIN_"`
	Session          TierConfig        `koanf:"session"           envPrefix:"CATALOG_POSTGRES_SESSION_"`
	Transaction      TierConfig        `koanf:"transaction"       envPrefix:"CATALOG_POSTGRES_TRANSACTION_"`
	AcquireTimeout   time.Duration     `koanf:"acquire_timeout"   env:"CATALOG_POSTGRES_ACQUIRE_TIMEOUT"   validate:"min=0"`
	StatementTimeout time.Duration     `koanf:"statement_timeout" env:"CATALOG_POSTGRES_STATEMENT_TIMEOUT" validate:"min=0"`
}

// CredentialConfig is one database role. An empty User means the role is absent.
type CredentialConfig struct {
	User     string          `koanf:"user"     env:"USER"`
	Password SensitiveString `koanf:"password" env:"PASSWORD" sensitive:"true"`
}

func (c CredentialConfig) Present() bool {
	return c.User != ""
}

type TierConfig struct {
	Port     int `koanf:"port"      env:"PORT"      validate:"min=1,max=65535"`
	PoolSize int `koanf:"pool_size" env:"POOL_SIZE" validate:"min=0"`
}

type LogConfig struct {
	Level  string `koanf:"level"  env:"CATALOG_LOG_LEVEL"  validate:"oneof=debug info warn error disabled"`
	JSON   bool   `koanf:"json"   env:"CATALOG_LOG_JSON"`
	Source bool   `koanf:"source" env:"CATALOG_LOG_SOURCE"`
}

// Service loads and validates configuration.
type Service interface {
	// Load applies defaults, file sources, environment variables, then CLI sources.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	Validate(config *Config) error
	// GetSource reports which source last provided a key.
	GetSource(key string) SourceType
}

// Source is one configuration input.
type Source interface {
	Load() (map[string]any, error)
	Type() SourceType
	Close() error
}

type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

// Default returns the configuration defaults. Host, database and credentials
// have no defaults and must be supplied.
func Default() *Config {
	return &Config{
		Postgres: PostgresConfig{
			Admin:          TierConfig{Port: 15432},
			Session:        TierConfig{Port: 6432, PoolSize: 2},
			Transaction:    TierConfig{Port: 5432, PoolSize: 50},
			AcquireTimeout: 5 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

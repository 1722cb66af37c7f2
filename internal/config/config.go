// Package config defines all configuration structures for the HexaTopo
// platform.  No I/O or parsing logic lives here, only plain data types and
// validation; loading lives in loader.go.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/HexaTopo/internal/infrastructure/monitoring/logging"
)

// Version is the platform version baked into binaries and audit events.
const Version = "0.3.0"

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the feature
// store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// RedisConfig holds the cell-set cache connection parameters.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	CellSetTTL   time.Duration `mapstructure:"cellset_ttl"`
}

// KafkaConfig holds the audit-event producer parameters.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ResolverConfig selects and tunes the ancestor-resolver backend.
type ResolverConfig struct {
	// Backend is "structural" (compute from the id encoding) or "table"
	// (precomputed ancestor columns loaded from the feature store).
	Backend string `mapstructure:"backend"`

	// WindowMin / WindowMax bound the resolutions served by the table
	// backend; ignored by the structural backend, which covers 0..15.
	WindowMin int `mapstructure:"window_min"`
	WindowMax int `mapstructure:"window_max"`

	// Memoize wraps the chosen backend with the process-lifetime
	// memoization decorator.
	Memoize bool `mapstructure:"memoize"`
}

const (
	ResolverBackendStructural = "structural"
	ResolverBackendTable      = "table"
)

// ─────────────────────────────────────────────────────────────────────────────
// Config — the root configuration
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration consumed by cmd/*/main.go.
type Config struct {
	Log      logging.LogConfig `mapstructure:"log"`
	Server   ServerConfig      `mapstructure:"server"`
	Database DatabaseConfig    `mapstructure:"database"`
	Redis    RedisConfig       `mapstructure:"redis"`
	Kafka    KafkaConfig       `mapstructure:"kafka"`
	Resolver ResolverConfig    `mapstructure:"resolver"`
}

// Validate checks cross-field consistency.  Zero values that have defaults
// are filled by ApplyDefaults before Validate runs, so anything still
// invalid here was set explicitly and wrongly.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q must be debug, release, or test", c.Server.Mode)
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d out of range", c.Database.Port)
	}
	switch c.Resolver.Backend {
	case ResolverBackendStructural, ResolverBackendTable:
	default:
		return fmt.Errorf("config: resolver.backend %q must be %s or %s",
			c.Resolver.Backend, ResolverBackendStructural, ResolverBackendTable)
	}
	if c.Resolver.WindowMin < 0 || c.Resolver.WindowMax > 15 || c.Resolver.WindowMin > c.Resolver.WindowMax {
		return fmt.Errorf("config: resolver window [%d,%d] must sit inside 0..15",
			c.Resolver.WindowMin, c.Resolver.WindowMax)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka enabled without brokers")
	}
	return nil
}

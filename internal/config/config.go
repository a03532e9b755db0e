// Package config loads and validates service, site and seed configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/catalog-ingest/internal/logging"
)

// Database drivers accepted by db.driver.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DefaultUserAgent identifies the importer to the sites it crawls.
const DefaultUserAgent = "Mozilla/5.0 (compatible; UM-Importer/0.2; +https://ukrainemart.example)"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	HTTP    HTTPConfig     `mapstructure:"http"`
	DB      DBConfig       `mapstructure:"db"`
	Ingest  IngestConfig   `mapstructure:"ingest"`
	Export  ExportConfig   `mapstructure:"export"`
	PubSub  PubSubConfig   `mapstructure:"pubsub"`
	Logging logging.Config `mapstructure:"logging"`
}

// ServerConfig controls the read API server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// HTTPConfig configures outbound fetches.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// DBConfig controls access to the catalog store.
type DBConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	Workers      int    `mapstructure:"workers"`
	BrandsSeed   string `mapstructure:"brands_seed"`
	BrandAliases string `mapstructure:"brand_aliases"`
}

// ExportConfig sets where the JSON snapshot is written: a local path or gs://bucket/object.
type ExportConfig struct {
	Path string `mapstructure:"path"`
}

// PubSubConfig holds metadata for ingest notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Load builds a Config from disk/environment. Environment variables use the
// CATALOG_ prefix with dots replaced by underscores (CATALOG_DB_DSN).
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("http.timeout_seconds", 20)
	v.SetDefault("http.user_agent", DefaultUserAgent)
	v.SetDefault("db.driver", DriverMemory)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 0)
	v.SetDefault("db.max_conn_lifetime", time.Hour)
	v.SetDefault("ingest.workers", 1)
	v.SetDefault("ingest.brands_seed", "config/brands_seed.json")
	v.SetDefault("ingest.brand_aliases", "config/brand_aliases.json")
	v.SetDefault("export.path", "out/products.json")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Ingest.Workers <= 0 {
		return fmt.Errorf("ingest.workers must be > 0")
	}
	switch c.DB.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set when db.driver is %q", DriverPostgres)
		}
	default:
		return fmt.Errorf("db.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.DB.Driver)
	}
	if c.DB.MaxConns < 0 || c.DB.MinConns < 0 || c.DB.MinConns > c.DB.MaxConns {
		return fmt.Errorf("db.min_conns must be between 0 and db.max_conns")
	}
	if strings.TrimSpace(c.Export.Path) == "" {
		return fmt.Errorf("export.path must be set")
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	return nil
}

// FetchTimeout converts http.timeout_seconds into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

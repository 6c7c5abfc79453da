package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	PolicyClamp  = "clamp"
	PolicyReject = "reject"

	BackendSQL   = "sql"
	BackendRedis = "redis"
)

// Config holds application configuration values.
type Config struct {
	App struct {
		Env string `mapstructure:"env"`
	} `mapstructure:"app"`

	HTTP struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`

	Log struct {
		Level    string `mapstructure:"level"`
		Encoding string `mapstructure:"encoding"`
	} `mapstructure:"log"`

	Database struct {
		Driver       string `mapstructure:"driver"`
		DSN          string `mapstructure:"dsn"`
		MaxOpenConns int    `mapstructure:"max_open_conns"`
	} `mapstructure:"database"`

	Inventory struct {
		SentinelMedicineID int64  `mapstructure:"sentinel_medicine_id"`
		OversellPolicy     string `mapstructure:"oversell_policy"`
	} `mapstructure:"inventory"`

	Pending struct {
		Backend string        `mapstructure:"backend"`
		TTL     time.Duration `mapstructure:"ttl"`
	} `mapstructure:"pending"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`

	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`

	Catalog struct {
		SeedPath string `mapstructure:"seed_path"`
	} `mapstructure:"catalog"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "postgres://postgres@localhost:5432/medstock?sslmode=disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("inventory.sentinel_medicine_id", 1)
	v.SetDefault("inventory.oversell_policy", PolicyClamp)
	v.SetDefault("pending.backend", BackendSQL)
	v.SetDefault("pending.ttl", time.Duration(0))
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "medstock.inventory")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("catalog.seed_path", "")
}

// Load reads configuration from an optional YAML file and the environment.
// Environment keys are the upper-cased dotted keys, e.g. DATABASE_DSN.
func Load(path string) (Config, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return c, c.Validate()
}

// Validate rejects unknown drivers, policies and backends.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Inventory.OversellPolicy {
	case PolicyClamp, PolicyReject:
	default:
		return fmt.Errorf("unsupported oversell policy %q", c.Inventory.OversellPolicy)
	}
	switch c.Pending.Backend {
	case BackendSQL, BackendRedis:
	default:
		return fmt.Errorf("unsupported pending backend %q", c.Pending.Backend)
	}
	if c.Inventory.SentinelMedicineID <= 0 {
		return fmt.Errorf("inventory.sentinel_medicine_id must be positive")
	}
	return nil
}

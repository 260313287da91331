// Package config reads process settings from GTASYNC_* environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Prefix is prepended to every variable name.
const Prefix = "GTASYNC_"

// Config is the full process configuration.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	HTTP     HTTP   `envPrefix:"HTTP_"`
	Source   Source `envPrefix:"SOURCE_"`
	Redis    Redis  `envPrefix:"REDIS_"`
	Metrics  struct {
		Namespace string `env:"NAMESPACE" envDefault:"gtasync"`
	} `envPrefix:"METRICS_"`
}

// HTTP configures the command and read API listener.
type HTTP struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Source selects the element source consulted when a load misses.
type Source struct {
	Driver string `env:"DRIVER" envDefault:"memory"`

	SQLite struct {
		Path string `env:"PATH" envDefault:"gtasync.db"`
	} `envPrefix:"SQLITE_"`
	Postgres struct {
		DSN   string `env:"DSN"`
		Table string `env:"TABLE" envDefault:"gtasync_elements"`
	} `envPrefix:"POSTGRES_"`
	S3 S3 `envPrefix:"S3_"`
}

// S3 configures the bucket-backed source.
type S3 struct {
	Bucket    string `env:"BUCKET"`
	Region    string `env:"REGION" envDefault:"us-east-1"`
	Endpoint  string `env:"ENDPOINT"`
	Prefix    string `env:"PREFIX"`
	PathStyle bool   `env:"PATH_STYLE"`
}

// Redis configures event fan-out.
type Redis struct {
	Enabled  bool   `env:"ENABLED"`
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB"`
	Channel  string `env:"CHANNEL" envDefault:"gtasync.events"`
	Buffer   int    `env:"BUFFER" envDefault:"256"`
}

// Load reads dotenv files (missing files are ignored) and then parses the
// environment. Variables already set win over dotenv values.
func Load(dotenvFiles ...string) (Config, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return Parse()
}

// Parse reads the configuration from the current environment only.
func Parse() (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: Prefix})
	if err != nil {
		var agg env.AggregateError
		if errors.As(err, &agg) && len(agg.Errors) > 0 {
			return Config{}, agg.Errors[0]
		}
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks cross-field constraints env tags cannot express.
func (c Config) Validate() error {
	switch c.Source.Driver {
	case "memory", "sqlite":
	case "postgres":
		if c.Source.Postgres.DSN == "" {
			return fmt.Errorf("%sSOURCE_POSTGRES_DSN required for postgres driver", Prefix)
		}
	case "s3":
		if c.Source.S3.Bucket == "" {
			return fmt.Errorf("%sSOURCE_S3_BUCKET required for s3 driver", Prefix)
		}
	default:
		return fmt.Errorf("unknown source driver %q", c.Source.Driver)
	}
	if c.Redis.Enabled && c.Redis.Channel == "" {
		return fmt.Errorf("%sREDIS_CHANNEL required when redis is enabled", Prefix)
	}
	return nil
}

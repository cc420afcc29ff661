package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// maxRetries matches the ceiling the upstream client enforces.
const maxRetries = 10

type HTTP struct {
	Addr           string `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	MetricsEnabled bool   `yaml:"metrics_enabled" env:"METRICS_ENABLED" env-default:"true"`
	MetricsToken   string `yaml:"metrics_token" env:"METRICS_TOKEN"`
}

type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type Storage struct {
	Driver    string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"leveldb"`
	Path      string `yaml:"path" env:"STORAGE_PATH" env-default:"./data/storefront.db"`
	RedisURL  string `yaml:"redis_url" env:"REDIS_URL" env-default:"redis://localhost:6379/0"`
	DSN       string `yaml:"dsn" env:"DATABASE_URL"`
	Namespace string `yaml:"namespace" env:"STORAGE_NAMESPACE"`
}

type Upstream struct {
	CatalogURL     string        `yaml:"catalog_url" env:"CATALOG_URL" env-default:"https://fakestoreapi.com"`
	AuthURL        string        `yaml:"auth_url" env:"AUTH_URL" env-default:"https://fakestoreapi.com"`
	CurrencyURL    string        `yaml:"currency_url" env:"CURRENCY_URL" env-default:"https://api.exchangerate-api.com/v4/latest/USD"`
	Timeout        time.Duration `yaml:"timeout" env:"UPSTREAM_TIMEOUT" env-default:"10s"`
	Retries        int           `yaml:"retries" env:"UPSTREAM_RETRIES" env-default:"3"`
	InitialBackoff time.Duration `yaml:"initial_backoff" env:"UPSTREAM_BACKOFF" env-default:"1s"`
}

type Cache struct {
	CatalogTTL time.Duration `yaml:"catalog_ttl" env:"CATALOG_CACHE_TTL" env-default:"5m"`
	RatesTTL   time.Duration `yaml:"rates_ttl" env:"RATES_CACHE_TTL" env-default:"1h"`
	FailureTTL time.Duration `yaml:"failure_ttl" env:"UPSTREAM_FAILURE_TTL" env-default:"30s"`
}

type Auth struct {
	Mode          string        `yaml:"mode" env:"AUTH_MODE" env-default:"demo"`
	TokenSecret   string        `yaml:"token_secret" env:"AUTH_TOKEN_SECRET" env-default:"globalstore-demo-secret"`
	TokenTTL      time.Duration `yaml:"token_ttl" env:"AUTH_TOKEN_TTL" env-default:"24h"`
	RegisterDelay time.Duration `yaml:"register_delay" env:"AUTH_REGISTER_DELAY" env-default:"1s"`
}

type Checkout struct {
	OrderDelay time.Duration `yaml:"order_delay" env:"CHECKOUT_ORDER_DELAY" env-default:"2s"`
}

type Config struct {
	Env      string   `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTP     `yaml:"http"`
	Log      Log      `yaml:"log"`
	Storage  Storage  `yaml:"storage"`
	Upstream Upstream `yaml:"upstream"`
	Cache    Cache    `yaml:"cache"`
	Auth     Auth     `yaml:"auth"`
	Checkout Checkout `yaml:"checkout"`
}

// Load reads an optional .env file, then the YAML file named by CONFIG_PATH
// (if any), then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "leveldb", "redis", "postgres", "none":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return errors.New("DATABASE_URL is required for the postgres driver")
	}
	switch c.Auth.Mode {
	case "demo", "local":
	default:
		return fmt.Errorf("unknown auth mode %q", c.Auth.Mode)
	}
	if c.Upstream.Retries < 0 || c.Upstream.Retries > maxRetries {
		return fmt.Errorf("upstream retries must be between 0 and %d", maxRetries)
	}
	return nil
}

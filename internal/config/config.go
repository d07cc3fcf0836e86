// Package config loads kcal settings from defaults, a YAML file, an optional
// .env file and KCAL_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/saadjs/kcal-sync/internal/app"
	"gopkg.in/yaml.v3"
)

const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type Config struct {
	User   string       `yaml:"user" json:"user" validate:"required"`
	Store  string       `yaml:"store" json:"store" validate:"oneof=sqlite redis"`
	DBPath string       `yaml:"db_path" json:"db_path"`
	Redis  RedisConfig  `yaml:"redis" json:"redis"`
	Health HealthConfig `yaml:"health" json:"health"`
	Sync   SyncConfig   `yaml:"sync" json:"sync"`
	Log    LogConfig    `yaml:"log" json:"log"`
	API    APIConfig    `yaml:"api" json:"api"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db" validate:"gte=0"`
	Prefix   string `yaml:"prefix" json:"prefix"`
}

type HealthConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url" validate:"omitempty,url"`
	Token   string        `yaml:"token" json:"token"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"gte=0"`
	Retries int           `yaml:"retries" json:"retries" validate:"gte=0,lte=10"`
}

type SyncConfig struct {
	ForceRefreshDays    int `yaml:"force_refresh_days" json:"force_refresh_days" validate:"gte=0"`
	DefaultLookbackDays int `yaml:"default_lookback_days" json:"default_lookback_days" validate:"gte=1"`
	WeightLookbackDays  int `yaml:"weight_lookback_days" json:"weight_lookback_days" validate:"gte=1"`
	TrendDays           int `yaml:"trend_days" json:"trend_days" validate:"gte=1"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" validate:"oneof=json console"`
}

type APIConfig struct {
	Address string `yaml:"address" json:"address" validate:"required"`
}

func Default() *Config {
	return &Config{
		User:  "me",
		Store: StoreSQLite,
		Redis: RedisConfig{Addr: "localhost:6379", Prefix: "kcal"},
		Health: HealthConfig{
			Timeout: 15 * time.Second,
			Retries: 2,
		},
		Sync: SyncConfig{
			ForceRefreshDays:    2,
			DefaultLookbackDays: 30,
			WeightLookbackDays:  90,
			TrendDays:           30,
		},
		Log: LogConfig{Level: "info", Format: "console"},
		API: APIConfig{Address: "127.0.0.1:8080"},
	}
}

// DefaultPath is config.yaml in the kcal data directory.
func DefaultPath() (string, error) {
	return app.DefaultConfigPath()
}

// Load reads path (a missing file yields defaults), then applies a .env file
// from the same directory and the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse YAML config: %w", err)
			}
		}
		envFile := filepath.Join(filepath.Dir(path), ".env")
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if cfg.DBPath == "" {
		p, err := app.DefaultDBPath()
		if err != nil {
			return nil, err
		}
		cfg.DBPath = p
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Store == StoreRedis && strings.TrimSpace(c.Redis.Addr) == "" {
		return fmt.Errorf("invalid config: redis.addr is required when store is redis")
	}
	return nil
}

// Save writes c as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := app.EnsureParentDir(path); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("KCAL_USER", &cfg.User)
	str("KCAL_STORE", &cfg.Store)
	str("KCAL_DB_PATH", &cfg.DBPath)
	str("KCAL_REDIS_ADDR", &cfg.Redis.Addr)
	str("KCAL_REDIS_PASSWORD", &cfg.Redis.Password)
	str("KCAL_HEALTH_BASE_URL", &cfg.Health.BaseURL)
	str("KCAL_HEALTH_TOKEN", &cfg.Health.Token)
	str("KCAL_LOG_LEVEL", &cfg.Log.Level)
	str("KCAL_LOG_FORMAT", &cfg.Log.Format)
	str("KCAL_API_ADDRESS", &cfg.API.Address)

	if v, ok := os.LookupEnv("KCAL_REDIS_DB"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid KCAL_REDIS_DB %q", v)
		}
		cfg.Redis.DB = n
	}
	return nil
}

// Package config loads the command-line tool's settings from an optional
// YAML file and STORESKEMA_* environment variables. Environment values win.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/kioskcart/storeskema/batch"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "STORESKEMA_"

// Config holds the tool settings.
type Config struct {
	// Policy has no default: batch runs must name one explicitly.
	Policy   string `yaml:"policy" env:"POLICY"`
	Workers  int    `yaml:"workers" env:"WORKERS"`
	Lang     string `yaml:"lang" env:"LANG"`
	MaxDepth int    `yaml:"max_depth" env:"MAX_DEPTH"`

	Log Log `yaml:"log" envPrefix:"LOG_"`
	DB  DB  `yaml:"db" envPrefix:"DB_"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// DB names the database/sql driver and data source used by "query".
type DB struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	DSN    string `yaml:"dsn" env:"DSN"`
}

// Default returns the settings used when neither file nor environment
// provides a value.
func Default() Config {
	return Config{
		Workers:  1,
		Lang:     "en",
		MaxDepth: 64,
		Log:      Log{Level: "info", Format: "text"},
		DB:       DB{Driver: "sqlite"},
	}
}

// Load starts from Default, reads path (skipped when empty) and then applies
// environment overrides. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

// Validate checks value ranges. An empty policy is accepted here; commands
// that process batches call BatchPolicy.
func (c Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("max_depth must be at least 1, got %d", c.MaxDepth))
	}
	if c.Policy != "" {
		if _, err := batch.ParsePolicy(c.Policy); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format must be text or json, got %q", c.Log.Format))
	}
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("db driver must be sqlite or postgres, got %q", c.DB.Driver))
	}
	return errors.Join(errs...)
}

// BatchPolicy returns the configured policy, or batch.ErrPolicyRequired.
func (c Config) BatchPolicy() (batch.Policy, error) {
	return batch.ParsePolicy(c.Policy)
}

// SlogLevel maps the configured level name to a slog.Level.
func (l Log) SlogLevel() (slog.Level, error) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return lv, nil
}

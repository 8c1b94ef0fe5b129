package zipstock

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config holds everything needed to open a store. The zero value is not
// usable directly; start from DefaultConfig and override.
type Config struct {
	Database     DatabaseConfig `yaml:"database"`
	Log          LogConfig      `yaml:"log"`
	SeedDefaults bool           `yaml:"seed_defaults"`
}

type DatabaseConfig struct {
	Path          string `yaml:"path"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no config file exists:
// a database file in the working directory, seeded with the stock catalog.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Path:          "zip_inventory.db",
			BusyTimeoutMS: 10000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		SeedDefaults: true,
	}
}

// LoadConfig reads a YAML config file, filling unset fields from
// DefaultConfig. A missing file is not an error; the defaults are returned.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultConfig().Database.Path
	}
	if cfg.Database.BusyTimeoutMS <= 0 {
		cfg.Database.BusyTimeoutMS = DefaultConfig().Database.BusyTimeoutMS
	}
	return cfg, nil
}

// NewLogger builds a zap logger from the log section of the config.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

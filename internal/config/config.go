package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the CLI and the public client.
type Config struct {
	Store          StoreConfig      `yaml:"store"`
	Simulation     SimulationConfig `yaml:"simulation"`
	DominanceTable string           `yaml:"dominance_table" env:"DNA_DOMINANCE_TABLE"`
	LogLevel       string           `yaml:"log_level" env:"DNA_LOG_LEVEL"`
	MetricsFile    string           `yaml:"metrics_file" env:"DNA_METRICS_FILE"`
}

type StoreConfig struct {
	Kind   string `yaml:"kind" env:"DNA_STORE"`
	DBPath string `yaml:"db_path" env:"DNA_DB_PATH"`
}

type SimulationConfig struct {
	Generations int   `yaml:"generations" env:"DNA_GENERATIONS"`
	Lineages    int   `yaml:"lineages" env:"DNA_LINEAGES"`
	Workers     int   `yaml:"workers" env:"DNA_WORKERS"`
	Seed        int64 `yaml:"seed" env:"DNA_SEED"`
}

func Default() Config {
	return Config{
		Store: StoreConfig{
			Kind:   "memory",
			DBPath: "digitaldna.db",
		},
		Simulation: SimulationConfig{
			Generations: 10,
			Lineages:    1,
			Workers:     1,
			Seed:        1,
		},
		LogLevel: "info",
	}
}

// Load returns Default merged with the YAML file at path (if any) and then
// with DNA_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields whose DNA_* variable is set.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Store.Kind {
	case "memory":
	case "sqlite":
		if c.Store.DBPath == "" {
			return errors.New("store.db_path is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported store kind %q", c.Store.Kind)
	}
	if c.Simulation.Generations < 1 {
		return fmt.Errorf("simulation.generations must be >= 1, got %d", c.Simulation.Generations)
	}
	if c.Simulation.Lineages < 1 {
		return fmt.Errorf("simulation.lineages must be >= 1, got %d", c.Simulation.Lineages)
	}
	if c.Simulation.Workers < 1 {
		return fmt.Errorf("simulation.workers must be >= 1, got %d", c.Simulation.Workers)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

func (c Config) Level() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported log level %q", c.LogLevel)
	}
}

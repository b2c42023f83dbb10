package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"digitaldna/internal/config"
	"digitaldna/pkg/digitaldna"
)

type commonFlags struct {
	configPath *string
	store      *string
	dbPath     *string
	table      *string
	logLevel   *string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	defaults := config.Default()
	return &commonFlags{
		configPath: fs.String("config", "", "yaml config file"),
		store:      fs.String("store", defaults.Store.Kind, "store backend: memory|sqlite"),
		dbPath:     fs.String("db-path", defaults.Store.DBPath, "sqlite database path"),
		table:      fs.String("table", "", "yaml dominance table (built-in table when empty)"),
		logLevel:   fs.String("log-level", defaults.LogLevel, "log level: debug|info|warn|error"),
	}
}

// load merges defaults, the config file, DNA_* variables and finally the
// flags the user actually set. override applies command-specific flags.
func (c *commonFlags) load(fs *flag.FlagSet, override func(*config.Config, map[string]bool)) (config.Config, error) {
	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return config.Config{}, err
	}

	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})
	if setFlags["store"] {
		cfg.Store.Kind = *c.store
	}
	if setFlags["db-path"] {
		cfg.Store.DBPath = *c.dbPath
	}
	if setFlags["table"] {
		cfg.DominanceTable = *c.table
	}
	if setFlags["log-level"] {
		cfg.LogLevel = *c.logLevel
	}
	if override != nil {
		override(&cfg, setFlags)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newClient(cfg config.Config, reg *prometheus.Registry) (*digitaldna.Client, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	opts := digitaldna.Options{
		StoreKind: cfg.Store.Kind,
		DBPath:    cfg.Store.DBPath,
		TablePath: cfg.DominanceTable,
		Logger:    slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}
	if reg != nil {
		opts.Registerer = reg
	}
	return digitaldna.New(opts)
}

func parseValues(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	values := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", p)
		}
		values = append(values, v)
	}
	return values, nil
}

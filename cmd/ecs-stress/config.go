package main

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "ECS_STRESS"

// Config controls a stress run. Values come from flags, then ECS_STRESS_*
// environment variables, then an optional config file.
type Config struct {
	Duration       time.Duration `mapstructure:"duration"`
	Entities       int           `mapstructure:"entities"`
	Workers        int           `mapstructure:"workers"`
	Churn          float64       `mapstructure:"churn"`
	Seed           int64         `mapstructure:"seed"`
	Format         string        `mapstructure:"format"`
	LogFile        string        `mapstructure:"log-file"`
	Profile        string        `mapstructure:"profile"`
	GCPauseMetrics bool          `mapstructure:"gc-pause-metrics"`
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("ecs-stress", pflag.ContinueOnError)
	fs.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	fs.Int("entities", 10000, "The initial number of entities to create.")
	fs.Int("workers", runtime.NumCPU(), "Size of the worker pool running per-type tasks.")
	fs.Float64("churn", 0.01, "Fraction of Heat components removed and re-added each frame.")
	fs.Int64("seed", 1, "Seed for the workload's random source.")
	fs.String("format", "text", "Report format: text or json.")
	fs.String("log-file", "", "Also write logs to this file, rotated.")
	fs.String("profile", "", "Profile the run: cpu or mem.")
	fs.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	fs.String("config", "", "Optional config file (yaml, toml or json).")
	return fs
}

func loadConfig(args []string) (*Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Duration <= 0:
		return fmt.Errorf("duration must be positive, got %s", c.Duration)
	case c.Entities <= 0:
		return fmt.Errorf("entities must be positive, got %d", c.Entities)
	case c.Workers <= 0:
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	case c.Churn < 0 || c.Churn > 1:
		return fmt.Errorf("churn must be within [0, 1], got %g", c.Churn)
	}

	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown report format %q", c.Format)
	}

	switch c.Profile {
	case "", "cpu", "mem":
	default:
		return fmt.Errorf("unknown profile mode %q", c.Profile)
	}
	return nil
}

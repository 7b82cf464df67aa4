package app

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"track-runner/server/internal/telemetry"
)

// Config holds the process-level settings. Race distance and formation
// spread are fixed by the simulation and deliberately not configurable
// here.
type Config struct {
	Addr               string  `yaml:"addr"`
	TickRate           float32 `yaml:"tick_rate"`
	DefaultRunnerCount uint32  `yaml:"default_runner_count"`
	DefaultTimeScale   float32 `yaml:"default_time_scale"`
	// Seed pins the random source for reproducible races; zero keeps
	// the non-deterministic default.
	Seed int64 `yaml:"seed"`
}

// DefaultConfig mirrors the stock race setup.
func DefaultConfig() Config {
	return Config{
		Addr:               ":8080",
		TickRate:           60,
		DefaultRunnerCount: 100,
		DefaultTimeScale:   10,
	}
}

// LoadConfig reads a YAML config file on top of the defaults. An empty
// path returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// WithEnvOverrides applies environment overrides on top of the loaded
// config, logging and skipping values that do not parse.
func (c Config) WithEnvOverrides(logger telemetry.Logger) Config {
	if raw := os.Getenv("TRACKRUNNER_ADDR"); raw != "" {
		c.Addr = raw
	}
	if raw := os.Getenv("TRACKRUNNER_RUNNER_COUNT"); raw != "" {
		if value, err := strconv.ParseUint(raw, 10, 32); err == nil {
			c.DefaultRunnerCount = uint32(value)
		} else {
			logf(logger, "invalid TRACKRUNNER_RUNNER_COUNT=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("TRACKRUNNER_TIME_SCALE"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 32); err == nil {
			c.DefaultTimeScale = float32(value)
		} else {
			logf(logger, "invalid TRACKRUNNER_TIME_SCALE=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("TRACKRUNNER_SEED"); raw != "" {
		if value, err := strconv.ParseInt(raw, 10, 64); err == nil {
			c.Seed = value
		} else {
			logf(logger, "invalid TRACKRUNNER_SEED=%q: %v", raw, err)
		}
	}
	return c
}

func logf(logger telemetry.Logger, format string, args ...any) {
	if logger == nil {
		return
	}
	logger.Printf(format, args...)
}

// Package config loads and validates configuration for the TestIntel
// analysis core: BFS bounds, cache layout, classifier attribute tags, and
// concurrency limits, sourced from a YAML file and TI_-prefixed
// environment variables via Viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Sentinel validation errors.
var (
	ErrInvalidMaxDepth    = errors.New("max path depth must be positive")
	ErrInvalidMaxVisited  = errors.New("max visited nodes must be positive")
	ErrInvalidConcurrency = errors.New("max concurrency must be positive")
)

// Default configuration values.
const (
	defaultMaxPathDepth      = 12
	defaultMaxVisitedNodes   = 2000
	defaultMaxExpansionDepth = 10
	defaultMaxConcurrency    = 4
	defaultCacheMemEntries   = 512
	defaultCacheDir          = ".testintel/cache"
	defaultBuildTimeout      = 3 * time.Minute

	// minMaxPathDepth/maxMaxPathDepth and minMaxVisitedNodes/maxMaxVisitedNodes
	// bound the env-var overrides per the operator-facing clamp rules: an
	// out-of-range value falls back to the default rather than failing
	// startup.
	minMaxPathDepth    = 2
	maxMaxPathDepth    = 200
	minMaxVisitedNodes = 100
	maxMaxVisitedNodes = 100000
)

// Config holds all configuration for the TestIntel analysis core.
type Config struct {
	Bounds      BoundsConfig      `mapstructure:"bounds" yaml:"bounds"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	Classifier  ClassifierConfig  `mapstructure:"classifier" yaml:"classifier"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

// BoundsConfig configures the Coverage and Impact Analyzers' search bounds.
type BoundsConfig struct {
	MaxPathDepth      int           `mapstructure:"max_path_depth" yaml:"max_path_depth"`
	MaxVisitedNodes   int           `mapstructure:"max_visited_nodes" yaml:"max_visited_nodes"`
	MaxExpansionDepth int           `mapstructure:"max_expansion_depth" yaml:"max_expansion_depth"`
	BuildTimeout      time.Duration `mapstructure:"build_timeout" yaml:"build_timeout"`
}

// CacheConfig configures the two-tier cache (pkg/cache).
type CacheConfig struct {
	MemoryEntries int    `mapstructure:"memory_entries" yaml:"memory_entries"`
	Directory     string `mapstructure:"directory" yaml:"directory"`
	ByteBudget    int64  `mapstructure:"byte_budget" yaml:"byte_budget"`
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled"`
}

// ClassifierConfig overrides the test-attribute tags the Method Classifier
// recognizes.
type ClassifierConfig struct {
	TestAttributes []string `mapstructure:"test_attributes" yaml:"test_attributes"`
}

// ConcurrencyConfig bounds parallel work across parse and BFS fan-out.
type ConcurrencyConfig struct {
	MaxWorkers int `mapstructure:"max_workers" yaml:"max_workers"`
}

// LoggingConfig configures the slog-based logger (pkg/observability).
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load loads configuration from configPath (or the default search path
// when empty) and TI_-prefixed environment variables, applying the
// clamp-with-warning rules for TI_MAX_PATH_DEPTH and TI_MAX_VISITED_NODES.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("testintel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/testintel")
	}

	v.SetEnvPrefix("TI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := v.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("read config file: %w", readErr)
		}
	}

	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyClampedEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Dump renders the effective configuration as YAML, in the same layout a
// config file uses, so operators can inspect what the bounds and cache
// settings resolved to after file, env, and clamp processing.
func Dump(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	return out, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bounds.max_path_depth", defaultMaxPathDepth)
	v.SetDefault("bounds.max_visited_nodes", defaultMaxVisitedNodes)
	v.SetDefault("bounds.max_expansion_depth", defaultMaxExpansionDepth)
	v.SetDefault("bounds.build_timeout", defaultBuildTimeout)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.memory_entries", defaultCacheMemEntries)
	v.SetDefault("cache.directory", defaultCacheDir)
	v.SetDefault("cache.byte_budget", int64(0))

	v.SetDefault("classifier.test_attributes", []string{})

	v.SetDefault("concurrency.max_workers", min(runtime.NumCPU(), defaultMaxConcurrency))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// applyClampedEnvOverrides reads TI_MAX_PATH_DEPTH / TI_MAX_VISITED_NODES
// directly (Viper's AutomaticEnv maps the bounds keys to
// TI_BOUNDS_MAX_PATH_DEPTH / TI_BOUNDS_MAX_VISITED_NODES instead, and an
// out-of-range value must fall back to the default with a warning rather
// than propagate, which SetDefault/Unmarshal alone cannot express).
func applyClampedEnvOverrides(cfg *Config) {
	cfg.Bounds.MaxPathDepth = clampFromEnv("TI_MAX_PATH_DEPTH", cfg.Bounds.MaxPathDepth, minMaxPathDepth, maxMaxPathDepth, defaultMaxPathDepth)
	cfg.Bounds.MaxVisitedNodes = clampFromEnv("TI_MAX_VISITED_NODES", cfg.Bounds.MaxVisitedNodes, minMaxVisitedNodes, maxMaxVisitedNodes, defaultMaxVisitedNodes)
}

func clampFromEnv(envVar string, current, lo, hi, fallback int) int {
	raw, ok := os.LookupEnv(envVar)
	if !ok {
		return current
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("ignoring invalid env override, using default", "var", envVar, "value", raw, "default", fallback)

		return fallback
	}

	if v < lo || v > hi {
		slog.Warn("env override out of range, using default", "var", envVar, "value", v, "min", lo, "max", hi, "default", fallback)

		return fallback
	}

	return v
}

func validate(cfg *Config) error {
	if cfg.Bounds.MaxPathDepth <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxDepth, cfg.Bounds.MaxPathDepth)
	}

	if cfg.Bounds.MaxVisitedNodes <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxVisited, cfg.Bounds.MaxVisitedNodes)
	}

	if cfg.Concurrency.MaxWorkers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidConcurrency, cfg.Concurrency.MaxWorkers)
	}

	return nil
}

package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/jmgilman/go/errors"
	"gopkg.in/yaml.v3"

	"weightcache/internal/logging"
)

// Environment variables that override values from the configuration file
const (
	EnvMaxWeight = "WEIGHTCACHE_MAX_WEIGHT"
	EnvLogLevel  = "WEIGHTCACHE_LOG_LEVEL"
)

// Weigher names accepted in cache.weigher
const (
	WeigherUnit   = "unit"   // Every value weighs 1
	WeigherLength = "length" // A value weighs its length
)

// Config represents the main configuration structure
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// CacheConfig contains the weighted cache settings
type CacheConfig struct {
	Name                    string `yaml:"name"`
	MaxWeight               int64  `yaml:"max_weight"`
	CleanupThresholdPercent int    `yaml:"cleanup_threshold_percent"` // 0-50
	CaseInsensitiveKeys     bool   `yaml:"case_insensitive_keys"`
	Weigher                 string `yaml:"weigher"` // "unit", "length"
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level         string `yaml:"level"`          // debug, info, warn, error, fatal
	EnableConsole bool   `yaml:"enable_console"` // Enable console output
	EnableFile    bool   `yaml:"enable_file"`    // Enable file output
	LogFile       string `yaml:"log_file"`       // Log file path
	BufferSize    int    `yaml:"buffer_size"`    // Async log buffer size
	LogDir        string `yaml:"log_dir"`        // Log directory
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Name:                    "default",
			MaxWeight:               250,
			CleanupThresholdPercent: 20,
			CaseInsensitiveKeys:     false,
			Weigher:                 WeigherUnit,
		},
		Logging: LoggingConfig{
			Level:         "info",
			EnableConsole: true,
			EnableFile:    false,
			LogFile:       "",
			BufferSize:    1000,
			LogDir:        "logs",
		},
	}
}

// Load reads and parses the configuration file. A missing file is not an
// error: defaults are used. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, errors.Wrapf(err, errors.CodeInvalidConfig, "failed to parse config file %s", path)
		}
	case os.IsNotExist(err):
		// Use defaults
	default:
		return nil, errors.Wrapf(err, errors.CodeInvalidConfig, "failed to read config file %s", path)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "invalid configuration")
	}

	return config, nil
}

// applyEnv overlays the supported environment variables
func (c *Config) applyEnv() error {
	if raw, ok := os.LookupEnv(EnvMaxWeight); ok {
		weight, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return errors.Wrapf(err, errors.CodeInvalidConfig, "%s must be an integer, got %q", EnvMaxWeight, raw)
		}
		c.Cache.MaxWeight = weight
	}
	if level, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Logging.Level = strings.TrimSpace(level)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Cache.Name == "" {
		return errors.New(errors.CodeInvalidConfig, "cache.name cannot be empty")
	}
	if c.Cache.MaxWeight <= 0 {
		return errors.New(errors.CodeInvalidConfig, "cache.max_weight must be greater than 0")
	}
	if c.Cache.CleanupThresholdPercent < 0 || c.Cache.CleanupThresholdPercent > 50 {
		return errors.New(errors.CodeInvalidConfig, "cache.cleanup_threshold_percent must be between 0 and 50")
	}
	if !isValidWeigher(c.Cache.Weigher) {
		return errors.Newf(errors.CodeInvalidConfig, "invalid cache weigher: %s", c.Cache.Weigher)
	}
	if !logging.IsValidLevel(c.Logging.Level) {
		return errors.Newf(errors.CodeInvalidConfig, "invalid logging level: %s", c.Logging.Level)
	}
	if c.Logging.BufferSize < 0 {
		return errors.New(errors.CodeInvalidConfig, "logging.buffer_size cannot be negative")
	}
	return nil
}

// isValidWeigher checks if the weigher name is supported
func isValidWeigher(name string) bool {
	validWeighers := map[string]bool{
		WeigherUnit:   true,
		WeigherLength: true,
	}
	return validWeighers[name]
}

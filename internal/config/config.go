package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/srg/beacons/scanner"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Config holds application configuration
type Config struct {
	// LogLevel is one of debug, info, warn, error. Empty keeps logging silent.
	LogLevel     string `yaml:"log_level"`
	OutputFormat string `yaml:"output_format" default:"table"`

	ScanDuration    time.Duration `yaml:"scan_duration" default:"10s"`
	DuplicateFilter bool          `yaml:"duplicate_filter" default:"true"`
	QueueSize       int           `yaml:"queue_size" default:"128"`
	StopOnFirst     bool          `yaml:"stop_on_first" default:"false"`
	AllowList       []string      `yaml:"allow"`
	BlockList       []string      `yaml:"block"`
	ProximityIDs    []string      `yaml:"proximity_ids"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads a YAML configuration file on top of the defaults.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration on top of the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values
func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.OutputFormat {
	case FormatTable, FormatJSON:
	default:
		return fmt.Errorf("invalid output format: %s (must be table or json)", c.OutputFormat)
	}
	if c.ScanDuration < 0 {
		return fmt.Errorf("invalid scan duration: %s", c.ScanDuration)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("invalid queue size: %d", c.QueueSize)
	}
	return nil
}

// ParseLogLevel maps a level name to a logrus level. An empty name maps to
// panic level, which keeps normal operation silent.
func ParseLogLevel(level string) (logrus.Level, error) {
	switch level {
	case "":
		return logrus.PanicLevel, nil
	case "debug":
		return logrus.DebugLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "warn":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.PanicLevel, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", level)
	}
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	level, _ := ParseLogLevel(c.LogLevel)

	logger := logrus.New()
	logger.SetLevel(level)

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}

// ScanOptions converts the scan settings into scanner options
func (c *Config) ScanOptions() *scanner.ScanOptions {
	return &scanner.ScanOptions{
		Duration:        c.ScanDuration,
		DuplicateFilter: c.DuplicateFilter,
		AllowList:       append([]string(nil), c.AllowList...),
		BlockList:       append([]string(nil), c.BlockList...),
		ProximityIDs:    append([]string(nil), c.ProximityIDs...),
		StopOnFirst:     c.StopOnFirst,
		QueueSize:       c.QueueSize,
	}
}

package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/observer/internal/errors"
	"github.com/vango-dev/observer/pkg/observer"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "observer.json"

	// YAMLConfigFileName is the name of the YAML configuration file.
	YAMLConfigFileName = "observer.yaml"

	// DefaultAddress is the default devtools listen address.
	DefaultAddress = "localhost:7070"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "observer"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "observer"

	// DefaultBufferSize is the default websocket buffer size in bytes.
	DefaultBufferSize = 1024
)

// Config represents the complete observer configuration.
type Config struct {
	// Dev enables developer warnings (observer.DevMode).
	Dev bool `json:"dev,omitempty" yaml:"dev,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`

	// HasProto selects the array interception strategy (observer.HasProto).
	// Nil keeps the default.
	HasProto *bool `json:"hasProto,omitempty" yaml:"hasProto,omitempty"`

	// ReportReadOnlyWrites warns on writes to getter-only properties.
	ReportReadOnlyWrites bool `json:"reportReadOnlyWrites,omitempty" yaml:"reportReadOnlyWrites,omitempty"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Tracing contains OpenTelemetry settings.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`

	// Devtools contains inspector server settings.
	Devtools DevtoolsConfig `json:"devtools,omitempty" yaml:"devtools,omitempty"`

	// S3 contains settings for s3:// document sources.
	S3 S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled installs the metrics hooks.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`

	// Subsystem is the metrics subsystem.
	Subsystem string `json:"subsystem,omitempty" yaml:"subsystem,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled installs the tracing hooks.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// TracerName is the name of the tracer.
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`
}

// DevtoolsConfig contains inspector server settings.
type DevtoolsConfig struct {
	// Address is the host:port to listen on.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`

	// ReadBufferSize is the websocket read buffer size.
	ReadBufferSize int `json:"readBufferSize,omitempty" yaml:"readBufferSize,omitempty"`

	// WriteBufferSize is the websocket write buffer size.
	WriteBufferSize int `json:"writeBufferSize,omitempty" yaml:"writeBufferSize,omitempty"`
}

// S3Config contains settings for s3:// document sources.
type S3Config struct {
	// Region is the AWS region.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		LogLevel: "info",
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultTracerName,
		},
		Devtools: DevtoolsConfig{
			Address:         DefaultAddress,
			ReadBufferSize:  DefaultBufferSize,
			WriteBufferSize: DefaultBufferSize,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for observer.json, then observer.yaml. A directory with neither
// yields the defaults.
func Load(dir string) (*Config, error) {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return New(), nil
}

// LoadFile reads configuration from the specified file path.
// The format is chosen by extension: .yaml and .yml are YAML, anything
// else is JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E100").
			WithDetail("Cannot read " + path).
			Wrap(err)
	}

	cfg := New()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("E100").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid YAML")
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("E100").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid JSON")
		}
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
	if c.Devtools.Address == "" {
		c.Devtools.Address = DefaultAddress
	}
	if c.Devtools.ReadBufferSize == 0 {
		c.Devtools.ReadBufferSize = DefaultBufferSize
	}
	if c.Devtools.WriteBufferSize == 0 {
		c.Devtools.WriteBufferSize = DefaultBufferSize
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, ok := parseLevel(c.LogLevel); !ok {
		return errors.New("E100").
			WithDetailf("Unknown logLevel %q", c.LogLevel).
			WithSuggestion("Use one of: debug, info, warn, error")
	}
	if c.Devtools.ReadBufferSize < 0 || c.Devtools.WriteBufferSize < 0 {
		return errors.New("E100").
			WithDetail("Websocket buffer sizes must not be negative")
	}
	return nil
}

// Level returns the configured slog level. Unknown levels map to info.
func (c *Config) Level() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

// Apply pushes the core settings into the observer package globals.
func (c *Config) Apply() {
	observer.DevMode = c.Dev
	if c.HasProto != nil {
		observer.HasProto = *c.HasProto
	}
	observer.Debug.ReportReadOnlyWrites = c.ReportReadOnlyWrites
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

package main

import (
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/observer/internal/config"
	"github.com/vango-dev/observer/pkg/document"
	"github.com/vango-dev/observer/pkg/metrics"
	"github.com/vango-dev/observer/pkg/observer"
	"github.com/vango-dev/observer/pkg/tracing"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configDir   string
	dev         bool
	logLevel    string
	noColor     bool
	errorFormat string
}

// env is the wiring built from configuration.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	hooks    []observer.Hooks
	s3       document.S3API
}

// setup loads configuration, applies it to the core and builds the
// optional instrumentation.
func setup(flags *globalFlags) (*env, error) {
	cfg, err := config.Load(flags.configDir)
	if err != nil {
		return nil, err
	}
	if flags.dev {
		cfg.Dev = true
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	cfg.Apply()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	observer.SetLogger(logger)

	e := &env{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		s3: document.NewS3Client(document.S3Options{
			Region:   cfg.S3.Region,
			Endpoint: cfg.S3.Endpoint,
		}),
	}

	if cfg.Metrics.Enabled {
		e.hooks = append(e.hooks, metrics.New(
			metrics.WithRegistry(e.registry),
			metrics.WithNamespace(cfg.Metrics.Namespace),
			metrics.WithSubsystem(cfg.Metrics.Subsystem),
		))
	}
	if cfg.Tracing.Enabled {
		e.hooks = append(e.hooks, tracing.New(tracing.WithTracerName(cfg.Tracing.TracerName)))
	}
	return e, nil
}

// install sets the configured hooks plus extra as the core's hooks.
// The returned function removes them.
func (e *env) install(extra ...observer.Hooks) func() {
	observer.SetHooks(observer.MultiHooks(append(e.hooks, extra...)...))
	return func() { observer.SetHooks(nil) }
}

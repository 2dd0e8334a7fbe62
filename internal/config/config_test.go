package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/vango-dev/observer/internal/errors"
	"github.com/vango-dev/observer/pkg/observer"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Devtools.Address != DefaultAddress {
		t.Errorf("Devtools.Address = %q, want %q", cfg.Devtools.Address, DefaultAddress)
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, DefaultNamespace)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics should be enabled by default")
	}
	if cfg.Tracing.Enabled {
		t.Error("Tracing should be disabled by default")
	}
	if cfg.Level() != slog.LevelInfo {
		t.Errorf("Level() = %v, want info", cfg.Level())
	}
}

func TestLoadMissingUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Path() != "" {
		t.Errorf("Path() = %q, want empty", cfg.Path())
	}
	if cfg.Devtools.ReadBufferSize != DefaultBufferSize {
		t.Errorf("ReadBufferSize = %d, want %d", cfg.Devtools.ReadBufferSize, DefaultBufferSize)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configJSON := `{
  "dev": true,
  "logLevel": "debug",
  "hasProto": false,
  "metrics": {"enabled": false, "subsystem": "core"},
  "tracing": {"enabled": true},
  "devtools": {"address": "0.0.0.0:9000"},
  "s3": {"region": "eu-west-1"}
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if !cfg.Dev {
		t.Error("Dev should be true")
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Level() = %v, want debug", cfg.Level())
	}
	if cfg.HasProto == nil || *cfg.HasProto {
		t.Error("HasProto should be explicitly false")
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should be false")
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want default", cfg.Metrics.Namespace)
	}
	if cfg.Metrics.Subsystem != "core" {
		t.Errorf("Metrics.Subsystem = %q, want core", cfg.Metrics.Subsystem)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.TracerName != DefaultTracerName {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if cfg.Devtools.Address != "0.0.0.0:9000" {
		t.Errorf("Devtools.Address = %q", cfg.Devtools.Address)
	}
	if cfg.S3.Region != "eu-west-1" {
		t.Errorf("S3.Region = %q", cfg.S3.Region)
	}
	if cfg.Path() != filepath.Join(tmpDir, ConfigFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configYAML := `dev: true
logLevel: warn
devtools:
  address: localhost:8181
  writeBufferSize: 4096
s3:
  endpoint: http://localhost:9000
`
	if err := os.WriteFile(filepath.Join(tmpDir, YAMLConfigFileName), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !cfg.Dev || cfg.Level() != slog.LevelWarn {
		t.Errorf("Dev=%v Level=%v", cfg.Dev, cfg.Level())
	}
	if cfg.Devtools.Address != "localhost:8181" || cfg.Devtools.WriteBufferSize != 4096 {
		t.Errorf("Devtools = %+v", cfg.Devtools)
	}
	if cfg.Devtools.ReadBufferSize != DefaultBufferSize {
		t.Errorf("ReadBufferSize = %d, want default", cfg.Devtools.ReadBufferSize)
	}
	if cfg.S3.Endpoint != "http://localhost:9000" {
		t.Errorf("S3.Endpoint = %q", cfg.S3.Endpoint)
	}
}

func TestLoadPrefersJSON(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(`{"logLevel":"error"}`), 0644)
	os.WriteFile(filepath.Join(tmpDir, YAMLConfigFileName), []byte("logLevel: debug\n"), 0644)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Level() != slog.LevelError {
		t.Errorf("Level() = %v, want error from observer.json", cfg.Level())
	}
}

func TestLoadFileErrors(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"invalid json", "bad.json", `{"dev": `},
		{"invalid yaml", "bad.yaml", "dev: [unclosed\n"},
		{"unknown level", "level.json", `{"logLevel": "loud"}`},
		{"negative buffer", "buf.json", `{"devtools": {"readBufferSize": -1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFile(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if code := errors.Code(err); code != "E100" {
				t.Errorf("Code = %q, want E100", code)
			}
		})
	}

	if _, err := LoadFile(filepath.Join(tmpDir, "missing.json")); errors.Code(err) != "E100" {
		t.Errorf("missing file: got %v", err)
	}
}

func TestApply(t *testing.T) {
	prevDev, prevProto, prevDebug := observer.DevMode, observer.HasProto, observer.Debug
	defer func() {
		observer.DevMode, observer.HasProto, observer.Debug = prevDev, prevProto, prevDebug
	}()

	off := false
	cfg := New()
	cfg.Dev = true
	cfg.HasProto = &off
	cfg.ReportReadOnlyWrites = true
	cfg.Apply()

	if !observer.DevMode {
		t.Error("DevMode should be set")
	}
	if observer.HasProto {
		t.Error("HasProto should be cleared")
	}
	if !observer.Debug.ReportReadOnlyWrites {
		t.Error("ReportReadOnlyWrites should be set")
	}

	observer.HasProto = true
	New().Apply()
	if !observer.HasProto {
		t.Error("nil HasProto should keep the current strategy")
	}
}

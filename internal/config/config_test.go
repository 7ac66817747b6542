package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Firecracker.Binary != "firecracker" {
		t.Errorf("Firecracker.Binary = %q, want firecracker", cfg.Firecracker.Binary)
	}
	if cfg.Firecracker.HomeEnv != "HOME" {
		t.Errorf("Firecracker.HomeEnv = %q, want HOME", cfg.Firecracker.HomeEnv)
	}
	if cfg.Firecracker.AssetDir != "sentinel_v2/firecracker-assets" {
		t.Errorf("Firecracker.AssetDir = %q", cfg.Firecracker.AssetDir)
	}
	if cfg.Firecracker.ScratchDir != "/tmp" {
		t.Errorf("Firecracker.ScratchDir = %q, want /tmp", cfg.Firecracker.ScratchDir)
	}
	if cfg.Audit.Enabled() {
		t.Error("audit should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"empty binary", func(c *Config) { c.Firecracker.Binary = "" }, true},
		{"empty search helper", func(c *Config) { c.Firecracker.SearchHelper = "" }, true},
		{"empty home env", func(c *Config) { c.Firecracker.HomeEnv = "" }, true},
		{"relative default home", func(c *Config) { c.Firecracker.DefaultHome = "home" }, true},
		{"absolute asset dir", func(c *Config) { c.Firecracker.AssetDir = "/opt/assets" }, true},
		{"relative scratch dir", func(c *Config) { c.Firecracker.ScratchDir = "tmp" }, true},
		{"empty boot banner", func(c *Config) { c.Firecracker.BootBanner = "" }, true},
		{"sqlite without dsn", func(c *Config) { c.Audit.Driver = "sqlite" }, true},
		{"sqlite with dsn", func(c *Config) {
			c.Audit.Driver = "sqlite"
			c.Audit.DSN = "/var/lib/sentinel/audit.db"
		}, false},
		{"postgres with dsn", func(c *Config) {
			c.Audit.Driver = "postgres"
			c.Audit.DSN = "postgres://sentinel@db/sentinel"
		}, false},
		{"unknown driver", func(c *Config) {
			c.Audit.Driver = "mysql"
			c.Audit.DSN = "x"
		}, true},
		{"zero buffer", func(c *Config) { c.Audit.BufferSize = 0 }, true},
		{"unlimited retention", func(c *Config) { c.Audit.MaxRecords = 0 }, false},
		{"negative retention", func(c *Config) { c.Audit.MaxRecords = -1 }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	yamlContent := `
firecracker:
  binary: /opt/firecracker/bin/firecracker
  scratch_dir: /var/run/sentinel
audit:
  driver: sqlite
  dsn: /var/lib/sentinel/audit.db
  flush_timeout: 2s
  max_records: 250
metrics:
  textfile_path: /var/lib/node_exporter/sentinel.prom
log:
  level: debug
`
	path := filepath.Join(t.TempDir(), "sentinel.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Firecracker.Binary != "/opt/firecracker/bin/firecracker" {
		t.Errorf("Firecracker.Binary = %q", cfg.Firecracker.Binary)
	}
	if cfg.Firecracker.ScratchDir != "/var/run/sentinel" {
		t.Errorf("Firecracker.ScratchDir = %q", cfg.Firecracker.ScratchDir)
	}
	// Unset keys keep their defaults.
	if cfg.Firecracker.HomeEnv != "HOME" {
		t.Errorf("Firecracker.HomeEnv = %q, want default HOME", cfg.Firecracker.HomeEnv)
	}
	if cfg.Audit.FlushTimeout != 2*time.Second {
		t.Errorf("Audit.FlushTimeout = %s, want 2s", cfg.Audit.FlushTimeout)
	}
	if cfg.Audit.BufferSize != 16 {
		t.Errorf("Audit.BufferSize = %d, want default 16", cfg.Audit.BufferSize)
	}
	if cfg.Audit.MaxRecords != 250 {
		t.Errorf("Audit.MaxRecords = %d, want 250", cfg.Audit.MaxRecords)
	}
	if cfg.Metrics.TextfilePath != "/var/lib/node_exporter/sentinel.prom" {
		t.Errorf("Metrics.TextfilePath = %q", cfg.Metrics.TextfilePath)
	}
	if cfg.LogLevel() != zerolog.DebugLevel {
		t.Errorf("LogLevel() = %s, want debug", cfg.LogLevel())
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("audit:\n  driver: mysql\n  dsn: x\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected validation error, got nil")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLogLevel_Default(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Level = ""
	if cfg.LogLevel() != zerolog.InfoLevel {
		t.Errorf("LogLevel() = %s, want info", cfg.LogLevel())
	}
}

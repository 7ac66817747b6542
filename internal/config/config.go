package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Firecracker FirecrackerConfig `yaml:"firecracker"`
	Audit       AuditConfig       `yaml:"audit"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Log         LogConfig         `yaml:"log"`
}

type FirecrackerConfig struct {
	Binary       string `yaml:"binary"`        // VMM executable name, resolved via the search helper
	SearchHelper string `yaml:"search_helper"` // e.g. "which"
	HomeEnv      string `yaml:"home_env"`      // env var holding the base directory for assets
	DefaultHome  string `yaml:"default_home"`  // used when HomeEnv is unset
	AssetDir     string `yaml:"asset_dir"`     // relative to home; holds vmlinux and rootfs.ext4
	ScratchDir   string `yaml:"scratch_dir"`   // where the socket and config file are created
	BootBanner   string `yaml:"boot_banner"`   // stderr substring meaning the VM started
}

type AuditConfig struct {
	Driver       string        `yaml:"driver"` // "", "postgres" or "sqlite"
	DSN          string        `yaml:"dsn"`
	BufferSize   int           `yaml:"buffer_size"`
	MaxRecords   int           `yaml:"max_records"` // newest verdicts kept after each insert; 0 keeps all
	FlushTimeout time.Duration `yaml:"flush_timeout"`
}

// Enabled reports whether verdicts should be recorded.
func (a AuditConfig) Enabled() bool {
	return a.Driver != ""
}

type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path"` // node exporter textfile; empty disables
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path comes from env or hardcoded default
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns sensible defaults for all configuration.
func DefaultConfig() *Config {
	return &Config{
		Firecracker: FirecrackerConfig{
			Binary:       "firecracker",
			SearchHelper: "which",
			HomeEnv:      "HOME",
			DefaultHome:  "/home/sentinel",
			AssetDir:     "sentinel_v2/firecracker-assets",
			ScratchDir:   "/tmp",
			BootBanner:   "Firecracker v",
		},
		Audit: AuditConfig{
			BufferSize:   16,
			MaxRecords:   1000,
			FlushTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	fc := c.Firecracker
	if fc.Binary == "" {
		return fmt.Errorf("firecracker.binary is required")
	}
	if fc.SearchHelper == "" {
		return fmt.Errorf("firecracker.search_helper is required")
	}
	if fc.HomeEnv == "" {
		return fmt.Errorf("firecracker.home_env is required")
	}
	if !filepath.IsAbs(fc.DefaultHome) {
		return fmt.Errorf("firecracker.default_home: %q must be an absolute path", fc.DefaultHome)
	}
	if fc.AssetDir == "" || filepath.IsAbs(fc.AssetDir) {
		return fmt.Errorf("firecracker.asset_dir: %q must be a relative path", fc.AssetDir)
	}
	if !filepath.IsAbs(fc.ScratchDir) {
		return fmt.Errorf("firecracker.scratch_dir: %q must be an absolute path", fc.ScratchDir)
	}
	if fc.BootBanner == "" {
		return fmt.Errorf("firecracker.boot_banner is required")
	}

	switch c.Audit.Driver {
	case "":
	case "postgres", "sqlite":
		if c.Audit.DSN == "" {
			return fmt.Errorf("audit.dsn is required when audit.driver is %q", c.Audit.Driver)
		}
	default:
		return fmt.Errorf("unknown audit.driver %q: must be postgres, sqlite or empty", c.Audit.Driver)
	}
	if c.Audit.BufferSize < 1 {
		return fmt.Errorf("audit.buffer_size must be >= 1")
	}
	if c.Audit.MaxRecords < 0 {
		return fmt.Errorf("audit.max_records must be >= 0")
	}
	if c.Audit.Driver == "postgres" && strings.Contains(c.Audit.DSN, "sslmode=disable") {
		log.Warn().Msg("audit DSN has sslmode=disable, connections to Postgres are unencrypted")
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// LogLevel returns the parsed log level, defaulting to info.
func (c *Config) LogLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ClaudeDir string        `yaml:"claude_dir" toml:"claude_dir"`
	LogExt    string        `yaml:"log_ext" toml:"log_ext"`
	LogFile   string        `yaml:"log_file" toml:"log_file"`
	PIDFile   string        `yaml:"pid_file" toml:"pid_file"`
	Monitor   MonitorConfig `yaml:"monitor" toml:"monitor"`
}

type MonitorConfig struct {
	// TickRate is the period of the poll loop.
	TickRate time.Duration `yaml:"tick_rate" toml:"tick_rate"`
	// ScanInterval is the number of ticks between discovery passes.
	ScanInterval    int           `yaml:"scan_interval" toml:"scan_interval"`
	DormancyTimeout time.Duration `yaml:"dormancy_timeout" toml:"dormancy_timeout"`
	SessionWindow   time.Duration `yaml:"session_window" toml:"session_window"`
}

const (
	DefaultTickRate        = 100 * time.Millisecond
	DefaultScanInterval    = 20
	DefaultDormancyTimeout = 300 * time.Second
	DefaultSessionWindow   = 300 * time.Second
	DefaultLogExt          = "jsonl"
	pidFileName            = "pixel-agents-tui.pid"
)

// Default returns the built-in configuration. ClaudeDir falls back to
// ".claude" in the working directory when the home directory is unknown.
func Default() *Config {
	claudeDir := ".claude"
	if home, err := os.UserHomeDir(); err == nil {
		claudeDir = filepath.Join(home, ".claude")
	}
	return &Config{
		ClaudeDir: claudeDir,
		LogExt:    DefaultLogExt,
		PIDFile:   filepath.Join(os.TempDir(), pidFileName),
		Monitor: MonitorConfig{
			TickRate:        DefaultTickRate,
			ScanInterval:    DefaultScanInterval,
			DormancyTimeout: DefaultDormancyTimeout,
			SessionWindow:   DefaultSessionWindow,
		},
	}
}

// Load reads a YAML config, or TOML when the path ends in ".toml", on top of
// the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns the defaults when the file does
// not exist. An empty path also selects the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func (c *Config) Validate() error {
	var errs []error
	if c.ClaudeDir == "" {
		errs = append(errs, errors.New("claude_dir must not be empty"))
	}
	if strings.TrimPrefix(c.LogExt, ".") == "" {
		errs = append(errs, errors.New("log_ext must not be empty"))
	}
	if c.Monitor.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("monitor.tick_rate must be positive, got %s", c.Monitor.TickRate))
	}
	if c.Monitor.ScanInterval <= 0 {
		errs = append(errs, fmt.Errorf("monitor.scan_interval must be positive, got %d", c.Monitor.ScanInterval))
	}
	if c.Monitor.DormancyTimeout <= 0 {
		errs = append(errs, fmt.Errorf("monitor.dormancy_timeout must be positive, got %s", c.Monitor.DormancyTimeout))
	}
	if c.Monitor.SessionWindow <= 0 {
		errs = append(errs, fmt.Errorf("monitor.session_window must be positive, got %s", c.Monitor.SessionWindow))
	}
	return errors.Join(errs...)
}

// ProjectsDir is the directory scanned for session logs.
func (c *Config) ProjectsDir() string {
	return filepath.Join(c.ClaudeDir, "projects")
}

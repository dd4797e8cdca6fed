package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Monitor.TickRate != 100*time.Millisecond {
		t.Errorf("TickRate = %v, want 100ms", cfg.Monitor.TickRate)
	}
	if cfg.Monitor.ScanInterval != 20 {
		t.Errorf("ScanInterval = %d, want 20", cfg.Monitor.ScanInterval)
	}
	if cfg.Monitor.DormancyTimeout != 300*time.Second {
		t.Errorf("DormancyTimeout = %v, want 300s", cfg.Monitor.DormancyTimeout)
	}
	if cfg.Monitor.SessionWindow != 300*time.Second {
		t.Errorf("SessionWindow = %v, want 300s", cfg.Monitor.SessionWindow)
	}
	if cfg.LogExt != "jsonl" {
		t.Errorf("LogExt = %q, want jsonl", cfg.LogExt)
	}
	if !strings.HasSuffix(cfg.ClaudeDir, ".claude") {
		t.Errorf("ClaudeDir = %q, want a .claude directory", cfg.ClaudeDir)
	}
	if filepath.Base(cfg.PIDFile) != "pixel-agents-tui.pid" {
		t.Errorf("PIDFile = %q", cfg.PIDFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yaml := `
claude_dir: /data/claude
monitor:
  tick_rate: 250ms
  scan_interval: 5
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ClaudeDir != "/data/claude" {
		t.Errorf("ClaudeDir = %q, want /data/claude", cfg.ClaudeDir)
	}
	if cfg.Monitor.TickRate != 250*time.Millisecond {
		t.Errorf("TickRate = %v, want 250ms", cfg.Monitor.TickRate)
	}
	if cfg.Monitor.ScanInterval != 5 {
		t.Errorf("ScanInterval = %d, want 5", cfg.Monitor.ScanInterval)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Monitor.DormancyTimeout != DefaultDormancyTimeout {
		t.Errorf("DormancyTimeout = %v, want default", cfg.Monitor.DormancyTimeout)
	}
	if cfg.LogExt != DefaultLogExt {
		t.Errorf("LogExt = %q, want default", cfg.LogExt)
	}
	if cfg.ProjectsDir() != filepath.Join("/data/claude", "projects") {
		t.Errorf("ProjectsDir() = %q", cfg.ProjectsDir())
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")

	toml := `
claude_dir = "/data/claude"
log_file = "/tmp/pixel.log"

[monitor]
dormancy_timeout = "2m"
session_window = "10m"
`
	if err := os.WriteFile(cfgPath, []byte(toml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.LogFile != "/tmp/pixel.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
	if cfg.Monitor.DormancyTimeout != 2*time.Minute {
		t.Errorf("DormancyTimeout = %v, want 2m", cfg.Monitor.DormancyTimeout)
	}
	if cfg.Monitor.SessionWindow != 10*time.Minute {
		t.Errorf("SessionWindow = %v, want 10m", cfg.Monitor.SessionWindow)
	}
	if cfg.Monitor.TickRate != DefaultTickRate {
		t.Errorf("TickRate = %v, want default", cfg.Monitor.TickRate)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad yaml", "bad.yaml", "monitor: [unclosed"},
		{"bad toml", "bad.toml", "monitor = = 1"},
		{"zero scan interval", "zero.yaml", "monitor:\n  scan_interval: 0\n"},
		{"negative tick rate", "neg.yaml", "monitor:\n  tick_rate: -1s\n"},
		{"empty claude dir", "empty.yaml", "claude_dir: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("Load(%s) succeeded, want error", tt.file)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := Load(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want ErrNotExist", err)
	}

	cfg, err := LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault(missing) error: %v", err)
	}
	if cfg.Monitor.ScanInterval != DefaultScanInterval {
		t.Errorf("LoadOrDefault(missing) did not return defaults: %+v", cfg.Monitor)
	}

	cfg, err = LoadOrDefault("")
	if err != nil || cfg == nil {
		t.Fatalf("LoadOrDefault(\"\") = %v, %v", cfg, err)
	}
}

func TestValidateReportsEveryField(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() on zero config succeeded")
	}
	for _, field := range []string{"claude_dir", "log_ext", "tick_rate", "scan_interval", "dormancy_timeout", "session_window"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("Validate() error %q does not mention %s", err, field)
		}
	}
}

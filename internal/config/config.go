// Package config loads pane-wrangler configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (PANE_WRANGLER_*)
//  2. Config file
//  3. Built-in defaults
//
// Config file search order:
//  1. .pane-wrangler.yaml in current directory
//  2. ~/.config/pane-wrangler/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Collision policies for spawn when the exact requested name is already
// tracked locally. Across observed deployments both behaviors exist, so
// the choice is explicit configuration rather than a guess.
const (
	// CollisionFail rejects the spawn with an already-exists error.
	CollisionFail = "fail"
	// CollisionRename silently resolves a free suffixed name.
	CollisionRename = "rename"
)

// Config holds all pane-wrangler configuration.
type Config struct {
	// Multiplexer selection ("tmux"; empty auto-detects).
	Mux string `yaml:"mux"`

	// Capture settings
	CaptureLines    int `yaml:"capture_lines"`     // default scrollback depth per capture
	CaptureMaxBytes int `yaml:"capture_max_bytes"` // byte budget applied after the line cap

	// Spawn settings
	SpawnCollision string `yaml:"spawn_collision"` // "fail" or "rename"
	AgentCommand   string `yaml:"agent_command"`   // coding-agent binary for the agent command
	LockDir        string `yaml:"lock_dir"`        // completion-lock marker directory

	// Agent startup poll
	PollInterval  string `yaml:"poll_interval"`  // Go duration string, e.g. "300ms"
	PollBudget    string `yaml:"poll_budget"`    // Go duration string, e.g. "5s"
	PollThreshold int    `yaml:"poll_threshold"` // non-blank lines that end the poll early

	// Watch TUI
	Refresh string `yaml:"refresh"` // Go duration string, e.g. "2s"

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs

	// Parsed durations (not from YAML, set after loading)
	PollIntervalDuration time.Duration `yaml:"-"`
	PollBudgetDuration   time.Duration `yaml:"-"`
	RefreshDuration      time.Duration `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		CaptureLines:    500,
		CaptureMaxBytes: 64 * 1024,
		SpawnCollision:  CollisionFail,
		AgentCommand:    "claude",
		PollInterval:    "300ms",
		PollBudget:      "5s",
		PollThreshold:   10,
		Refresh:         "2s",
	}
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load() (*Config, error) {
	cfg := Defaults()

	if path, data, err := findConfigFile(); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	mergeEnv(cfg)

	if cfg.SpawnCollision != CollisionFail && cfg.SpawnCollision != CollisionRename {
		return nil, fmt.Errorf("invalid spawn_collision %q (supported: %s, %s)",
			cfg.SpawnCollision, CollisionFail, CollisionRename)
	}

	var err error
	cfg.PollIntervalDuration, err = time.ParseDuration(cfg.PollInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid poll interval %q: %w", cfg.PollInterval, err)
	}
	cfg.PollBudgetDuration, err = time.ParseDuration(cfg.PollBudget)
	if err != nil {
		return nil, fmt.Errorf("invalid poll budget %q: %w", cfg.PollBudget, err)
	}
	cfg.RefreshDuration, err = time.ParseDuration(cfg.Refresh)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh interval %q: %w", cfg.Refresh, err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	// 1. Current directory
	if data, err := os.ReadFile(".pane-wrangler.yaml"); err == nil {
		return ".pane-wrangler.yaml", data, nil
	}

	// 2. XDG config dir / ~/.config
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "pane-wrangler", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.Mux != "" {
		cfg.Mux = file.Mux
	}
	if file.CaptureLines > 0 {
		cfg.CaptureLines = file.CaptureLines
	}
	if file.CaptureMaxBytes > 0 {
		cfg.CaptureMaxBytes = file.CaptureMaxBytes
	}
	if file.SpawnCollision != "" {
		cfg.SpawnCollision = file.SpawnCollision
	}
	if file.AgentCommand != "" {
		cfg.AgentCommand = file.AgentCommand
	}
	if file.LockDir != "" {
		cfg.LockDir = file.LockDir
	}
	if file.PollInterval != "" {
		cfg.PollInterval = file.PollInterval
	}
	if file.PollBudget != "" {
		cfg.PollBudget = file.PollBudget
	}
	if file.PollThreshold > 0 {
		cfg.PollThreshold = file.PollThreshold
	}
	if file.Refresh != "" {
		cfg.Refresh = file.Refresh
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) {
	if v := os.Getenv("PANE_WRANGLER_MUX"); v != "" {
		cfg.Mux = v
	}
	if v := os.Getenv("PANE_WRANGLER_CAPTURE_LINES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CaptureLines = n
		}
	}
	if v := os.Getenv("PANE_WRANGLER_CAPTURE_MAX_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CaptureMaxBytes = n
		}
	}
	if v := os.Getenv("PANE_WRANGLER_SPAWN_COLLISION"); v != "" {
		cfg.SpawnCollision = v
	}
	if v := os.Getenv("PANE_WRANGLER_AGENT_COMMAND"); v != "" {
		cfg.AgentCommand = v
	}
	if v := os.Getenv("PANE_WRANGLER_LOCK_DIR"); v != "" {
		cfg.LockDir = v
	}
	if v := os.Getenv("PANE_WRANGLER_POLL_INTERVAL"); v != "" {
		cfg.PollInterval = v
	}
	if v := os.Getenv("PANE_WRANGLER_POLL_BUDGET"); v != "" {
		cfg.PollBudget = v
	}
	if v := os.Getenv("PANE_WRANGLER_POLL_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PollThreshold = n
		}
	}
	if v := os.Getenv("PANE_WRANGLER_REFRESH"); v != "" {
		cfg.Refresh = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
}

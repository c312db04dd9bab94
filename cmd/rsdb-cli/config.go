package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
)

const defaultURL = "rsdb://@localhost"

// cliConfig holds the resolved settings: defaults, then the config file, then
// explicit flags.
type cliConfig struct {
	URL      string
	Timeout  time.Duration
	LogLevel slog.Level
	NoColor  bool
}

func defaultConfig() cliConfig {
	return cliConfig{
		URL:      defaultURL,
		Timeout:  5 * time.Second,
		LogLevel: slog.LevelWarn,
	}
}

// tomlConfig is the config.toml key mapping.
type tomlConfig struct {
	URL      string `toml:"url"`
	Timeout  string `toml:"timeout"`
	LogLevel string `toml:"log_level"`
	NoColor  bool   `toml:"no_color"`
}

// yamlConfig is the YAML key mapping; nil fields were not set.
type yamlConfig struct {
	URL      *string `yaml:"url"`
	Timeout  *string `yaml:"timeout"`
	LogLevel *string `yaml:"log_level"`
	NoColor  *bool   `yaml:"no_color"`
}

// loadConfig overlays the file at path on the defaults. The format is picked
// by extension: .toml, .yaml or .yml.
func loadConfig(path string) (cliConfig, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return loadTOML(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	default:
		return cliConfig{}, fmt.Errorf("load config: unsupported file type %q (expected .toml, .yaml or .yml)", filepath.Ext(path))
	}
}

func loadTOML(path string) (cliConfig, error) {
	cfg := defaultConfig()

	var raw tomlConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return cliConfig{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cliConfig{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("url") {
		cfg.URL = strings.TrimSpace(raw.URL)
	}
	if meta.IsDefined("timeout") {
		if cfg.Timeout, err = parseTimeout(raw.Timeout); err != nil {
			return cliConfig{}, err
		}
	}
	if meta.IsDefined("log_level") {
		if cfg.LogLevel, err = parseLevel(raw.LogLevel); err != nil {
			return cliConfig{}, err
		}
	}
	if meta.IsDefined("no_color") {
		cfg.NoColor = raw.NoColor
	}
	return cfg, nil
}

func loadYAML(path string) (cliConfig, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cliConfig{}, fmt.Errorf("load config: %w", err)
	}

	var raw yamlConfig
	if err := yaml.UnmarshalWithOptions(data, &raw, yaml.DisallowUnknownField()); err != nil {
		return cliConfig{}, fmt.Errorf("load config: %w", err)
	}

	if raw.URL != nil {
		cfg.URL = strings.TrimSpace(*raw.URL)
	}
	if raw.Timeout != nil {
		if cfg.Timeout, err = parseTimeout(*raw.Timeout); err != nil {
			return cliConfig{}, err
		}
	}
	if raw.LogLevel != nil {
		if cfg.LogLevel, err = parseLevel(*raw.LogLevel); err != nil {
			return cliConfig{}, err
		}
	}
	if raw.NoColor != nil {
		cfg.NoColor = *raw.NoColor
	}
	return cfg, nil
}

// applyFlags overlays the flags the user set explicitly.
func (c *cliConfig) applyFlags(f *CLI) error {
	if f.URL != "" {
		c.URL = f.URL
	}
	if f.Timeout != 0 {
		c.Timeout = f.Timeout
	}
	if f.LogLevel != "" {
		level, err := parseLevel(f.LogLevel)
		if err != nil {
			return err
		}
		c.LogLevel = level
	}
	if f.NoColor {
		c.NoColor = true
	}
	return nil
}

func parseTimeout(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("load config: timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("load config: timeout must be positive, got %s", d)
	}
	return d, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

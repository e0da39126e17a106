package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/gerunddev/blockbridge/internal/convert"
)

// Config represents the blockbridge configuration
type Config struct {
	Lenient         bool   `yaml:"lenient"`
	DefaultLanguage string `yaml:"default_language"`
	Indent          int    `yaml:"indent"`
	Underline       string `yaml:"underline"`
	MaxTextLength   int    `yaml:"max_text_length"`
	AssignIDs       bool   `yaml:"assign_ids"`
	FrontMatter     bool   `yaml:"front_matter"`
	StrictImages    bool   `yaml:"strict_images"`
	LogFile         string `yaml:"log_file,omitempty"`
	LogLevel        string `yaml:"log_level"`
	Workers         int    `yaml:"workers"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultLanguage: convert.DefaultLanguage,
		Indent:          len(convert.DefaultIndent),
		Underline:       convert.UnderlineHTML,
		MaxTextLength:   convert.DefaultMaxTextLength,
		LogLevel:        "info",
		Workers:         4,
	}
}

// ConfigPath returns the path to the config file
// Can be overridden for testing
var ConfigPath = func() string {
	return filepath.Join(xdg.ConfigHome, "blockbridge", "config.yaml")
}

// StateFilePath returns the path to the state file
// Uses platform-specific XDG data directory
// Can be overridden for testing
var StateFilePath = func() string {
	return filepath.Join(xdg.DataHome, "blockbridge", "state.json")
}

// Load reads configuration from the XDG config directory
func Load() (*Config, error) {
	return LoadFile(ConfigPath())
}

// LoadFile reads configuration from path. A missing file yields the
// defaults. Environment variables in the file are expanded before parsing.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.ExpandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to the XDG config directory
func (c *Config) Save() error {
	configPath := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultLanguage, validation.Required),
		validation.Field(&c.Indent, validation.Required, validation.Min(1), validation.Max(8)),
		validation.Field(&c.Underline, validation.Required, validation.In(convert.UnderlineHTML, convert.UnderlineNone)),
		validation.Field(&c.MaxTextLength, validation.Min(0)),
		validation.Field(&c.LogLevel, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(64)),
	)
}

// ExpandPaths expands ~ or relative paths to absolute paths
func (c *Config) ExpandPaths() error {
	var err error

	c.LogFile, err = expandPath(c.LogFile)
	if err != nil {
		return fmt.Errorf("failed to expand log_file: %w", err)
	}

	return nil
}

// ConverterOptions maps the configuration to converter options
func (c *Config) ConverterOptions() []convert.Option {
	indent := c.Indent
	if indent <= 0 {
		indent = len(convert.DefaultIndent)
	}

	return []convert.Option{
		convert.WithLenient(c.Lenient),
		convert.WithDefaultLanguage(c.DefaultLanguage),
		convert.WithIndent(strings.Repeat(" ", indent)),
		convert.WithUnderline(c.Underline),
		convert.WithMaxTextLength(c.MaxTextLength),
		convert.WithIDs(c.AssignIDs),
		convert.WithFrontMatter(c.FrontMatter),
		convert.WithStrictImages(c.StrictImages),
	}
}

// Converter builds a converter from the configuration
func (c *Config) Converter() *convert.Converter {
	return convert.New(c.ConverterOptions()...)
}

// Level returns the configured log level, defaulting to info
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if len(path) == 1 {
			return homeDir, nil
		}
		path = filepath.Join(homeDir, path[1:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return absPath, nil
}

// Package config loads shaclx settings from YAML files, a .env file and
// the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/geoknoesis/shacl-go/format"
	"github.com/geoknoesis/shacl-go/report"
)

// DefaultNamespace is the base namespace minted identifiers live in unless
// configured otherwise.
const DefaultNamespace = "http://example.org/shapes/"

// Config is the complete shaclx configuration.
type Config struct {
	Namespace    string            `yaml:"namespace"`
	Inference    string            `yaml:"inference"`
	OutputFormat string            `yaml:"output_format"`
	Identifiers  IdentifiersConfig `yaml:"identifiers"`
	Limits       LimitsConfig      `yaml:"limits"`
	AI           AIConfig          `yaml:"ai"`
	Server       ServerConfig      `yaml:"server"`
	Log          LogConfig         `yaml:"log"`
}

// IdentifiersConfig controls identifier minting.
type IdentifiersConfig struct {
	// Disambiguate appends a hash suffix to labels that sanitize to an
	// identifier already issued for a different label.
	Disambiguate bool `yaml:"disambiguate"`
}

// LimitsConfig bounds input size and nesting. Zero disables a limit.
type LimitsConfig struct {
	MaxDepth      int   `yaml:"max_depth"`
	MaxTriples    int   `yaml:"max_triples"`
	MaxInputBytes int64 `yaml:"max_input_bytes"`
}

// AIConfig configures the intelligent transformer.
type AIConfig struct {
	Enabled bool          `yaml:"enabled"`
	Model   string        `yaml:"model"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShapesCacheSize int           `yaml:"shapes_cache_size"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Namespace:    DefaultNamespace,
		Inference:    string(report.InferenceRDFS),
		OutputFormat: string(format.Turtle),
		Limits: LimitsConfig{
			MaxDepth:      64,
			MaxTriples:    5_000_000,
			MaxInputBytes: 64 << 20,
		},
		AI: AIConfig{
			Model:   "gemini-2.5-flash",
			Timeout: 2 * time.Minute,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShapesCacheSize: 128,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Namespace)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("config: namespace %q is not an absolute IRI", c.Namespace)
	}
	if _, err := c.InferenceMode(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.Output(); err != nil {
		return fmt.Errorf("config: output_format: %w", err)
	}
	if c.Limits.MaxDepth < 0 || c.Limits.MaxTriples < 0 || c.Limits.MaxInputBytes < 0 {
		return fmt.Errorf("config: limits must not be negative")
	}
	if c.Server.ShapesCacheSize <= 0 {
		return fmt.Errorf("config: server.shapes_cache_size must be positive")
	}
	if _, err := c.LogLevel(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// InferenceMode returns the configured inference mode.
func (c *Config) InferenceMode() (report.InferenceMode, error) {
	return report.ParseInferenceMode(c.Inference)
}

// Output returns the configured output format, which must be writable.
func (c *Config) Output() (format.Canonical, error) {
	out := format.Resolve(c.OutputFormat)
	rf, err := format.RDF(out)
	if err != nil {
		return "", err
	}
	if !rf.CanWrite() {
		return "", fmt.Errorf("%w: %s is read-only", format.ErrUnsupportedFormat, out)
	}
	return out, nil
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger builds a logger writing to w with the configured level and
// handler.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// LoadFromFile reads a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	c := Default()
	if err := c.mergeFile(path); err != nil {
		return nil, err
	}
	return c, nil
}

// mergeFile overlays the keys present in the YAML file at path.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// SaveToFile writes c as YAML, creating parent directories. The API key
// is never written.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	out := *c
	out.AI.APIKey = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

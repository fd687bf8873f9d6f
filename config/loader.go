package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	// ProjectConfigFile is the name of the project-level config file.
	ProjectConfigFile = "shaclx.yaml"
	// UserConfigDir is the directory for user-level config.
	UserConfigDir = ".config/shaclx"
	// UserConfigFile is the name of the user-level config file.
	UserConfigFile = "config.yaml"
	// DotEnvFile holds environment overrides next to the project.
	DotEnvFile = ".env"
)

// Environment variables that override file settings.
const (
	EnvNamespace    = "SHACLX_BASE_NAMESPACE"
	EnvInference    = "SHACLX_INFERENCE"
	EnvOutputFormat = "SHACLX_OUTPUT_FORMAT"
	EnvAIModel      = "SHACLX_AI_MODEL"
	EnvAIEnabled    = "SHACLX_AI_ENABLED"
	EnvLogLevel     = "SHACLX_LOG_LEVEL"
	EnvServerAddr   = "SHACLX_SERVER_ADDR"
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvGoogleKey    = "GOOGLE_API_KEY"
)

// Loader handles configuration loading with layered precedence.
type Loader struct {
	logger  *slog.Logger
	workDir string
	homeDir string
	getenv  func(string) string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithWorkDir sets the directory project config and .env are searched
// from. The default is the current directory.
func WithWorkDir(dir string) LoaderOption {
	return func(l *Loader) { l.workDir = dir }
}

// WithHomeDir sets the directory the user config lives under.
func WithHomeDir(dir string) LoaderOption {
	return func(l *Loader) { l.homeDir = dir }
}

// WithGetenv replaces os.Getenv.
func WithGetenv(getenv func(string) string) LoaderOption {
	return func(l *Loader) { l.getenv = getenv }
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{logger: logger, getenv: os.Getenv}
	for _, opt := range opts {
		opt(l)
	}
	if l.workDir == "" {
		l.workDir, _ = os.Getwd()
	}
	if l.homeDir == "" {
		l.homeDir, _ = os.UserHomeDir()
	}
	return l
}

// Load loads configuration with layered precedence:
//  1. defaults
//  2. user config (~/.config/shaclx/config.yaml)
//  3. project config (shaclx.yaml in the work directory or a parent), or
//     explicit when non-empty
//  4. .env in the work directory
//  5. environment variables
func (l *Loader) Load(explicit string) (*Config, error) {
	c := Default()

	if path := l.userConfigPath(); path != "" {
		if err := c.mergeFile(path); err == nil {
			l.logger.Debug("loaded user config", slog.String("path", path))
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	path := explicit
	if path == "" {
		path = l.findProjectConfig()
	}
	if path != "" {
		if err := c.mergeFile(path); err != nil {
			return nil, err
		}
		l.logger.Debug("loaded project config", slog.String("path", path))
	}

	env := l.env()
	l.applyEnv(c, env)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// env looks variables up in the process environment first, then in .env.
func (l *Loader) env() func(string) string {
	dotenv, err := godotenv.Read(filepath.Join(l.workDir, DotEnvFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn("failed to read .env", slog.String("error", err.Error()))
	}
	return func(key string) string {
		if v := l.getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
}

func (l *Loader) applyEnv(c *Config, env func(string) string) {
	set := func(dst *string, key string) {
		if v := env(key); v != "" {
			*dst = v
		}
	}
	set(&c.Namespace, EnvNamespace)
	set(&c.Inference, EnvInference)
	set(&c.OutputFormat, EnvOutputFormat)
	set(&c.AI.Model, EnvAIModel)
	set(&c.Log.Level, EnvLogLevel)
	set(&c.Server.Addr, EnvServerAddr)
	set(&c.AI.APIKey, EnvGoogleKey)
	set(&c.AI.APIKey, EnvGeminiKey)
	if v := env(EnvAIEnabled); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.AI.Enabled = enabled
		} else {
			l.logger.Warn("ignoring malformed boolean", slog.String("variable", EnvAIEnabled), slog.String("value", v))
		}
	}
}

// EnsureUserConfig creates the user config file with defaults if it does
// not exist, and returns its path.
func (l *Loader) EnsureUserConfig() (string, error) {
	path := l.userConfigPath()
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := Default().SaveToFile(path); err != nil {
		return "", err
	}
	l.logger.Info("created default user config", slog.String("path", path))
	return path, nil
}

func (l *Loader) userConfigPath() string {
	if l.homeDir == "" {
		return ""
	}
	return filepath.Join(l.homeDir, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for shaclx.yaml in the work directory and its
// parents.
func (l *Loader) findProjectConfig() string {
	if l.workDir == "" {
		return ""
	}
	dir := l.workDir
	for {
		path := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

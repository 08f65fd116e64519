package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FLOWGRID_"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	StateDir  string `yaml:"stateDir"`
	LogFormat string `yaml:"logFormat"`
	LogLevel  string `yaml:"logLevel"`
	Listen    string `yaml:"listen"`

	BackendURL         string        `yaml:"backendUrl"`
	Namespace          string        `yaml:"namespace"`
	DispatchTimeout    time.Duration `yaml:"dispatchTimeout"`
	InsecureSkipVerify bool          `yaml:"insecureSkipVerify"`

	// Quoting is forwarded to the backend with every run.
	Quoting bool `yaml:"quoting"`
	// Strict rejects plans whose path holds unconfigured nodes.
	Strict bool `yaml:"strict"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	stateDir := ".flowgrid"
	if home, err := os.UserHomeDir(); err == nil {
		stateDir = filepath.Join(home, ".flowgrid")
	}
	return Config{
		StateDir:        stateDir,
		LogFormat:       "text",
		LogLevel:        "info",
		Listen:          ":8080",
		Namespace:       "/",
		DispatchTimeout: 5 * time.Minute,
	}
}

// DefaultConfigPath returns the config file named by FLOWGRID_CONFIG, or ""
// when none is set.
func DefaultConfigPath() string {
	return os.Getenv(EnvPrefix + "CONFIG")
}

// LoadFile overlays a YAML config file onto cfg. Keys missing from the file
// keep their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays FLOWGRID_* environment variables onto cfg.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
		return nil
	}

	str("STATE_DIR", &cfg.StateDir)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LISTEN", &cfg.Listen)
	str("BACKEND_URL", &cfg.BackendURL)
	str("NAMESPACE", &cfg.Namespace)

	if v, ok := lookup(EnvPrefix + "DISPATCH_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sDISPATCH_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.DispatchTimeout = d
	}
	if err := boolean("QUOTING", &cfg.Quoting); err != nil {
		return err
	}
	if err := boolean("STRICT", &cfg.Strict); err != nil {
		return err
	}
	return boolean("INSECURE_SKIP_VERIFY", &cfg.InsecureSkipVerify)
}

// NewConfig normalizes and validates a configuration.
func NewConfig(cfg Config) (*Config, error) {
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if cfg.StateDir == "" {
		return nil, errors.New("state directory is a required configuration field and cannot be empty")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, errors.New("invalid log-format: must be 'text' or 'json'")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	if cfg.DispatchTimeout <= 0 {
		return nil, errors.New("dispatch timeout must be positive")
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "/"
	}
	return &cfg, nil
}

package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix is the prefix for environment overrides, e.g. DAILYCAST_ENDPOINT.
const EnvPrefix = "DAILYCAST"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Service  ServiceConfig  `toml:"service"`
	Session  SessionConfig  `toml:"session"`
	Database DatabaseConfig `toml:"database"`
	Playback PlaybackConfig `toml:"playback"`
	Log      LogConfig      `toml:"log"`
}

// ServiceConfig describes how to reach the podcast GraphQL endpoint.
type ServiceConfig struct {
	Endpoint          string  `toml:"endpoint"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// Timeout returns the request timeout as a [time.Duration].
func (s ServiceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// SessionConfig selects where the session token is kept.
type SessionConfig struct {
	Storage string `toml:"storage"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// PlaybackConfig controls what "play" does beyond selecting the podcast.
type PlaybackConfig struct {
	OpenBrowser bool `toml:"open_browser"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// envOverrides lists the settings that can be replaced from the environment.
// Empty values leave the file value in place.
type envOverrides struct {
	Endpoint     string `envconfig:"ENDPOINT"`
	Storage      string `envconfig:"SESSION_STORAGE"`
	DatabasePath string `envconfig:"DATABASE_PATH"`
	LogLevel     string `envconfig:"LOG_LEVEL"`
	Timeout      int    `envconfig:"TIMEOUT_SECONDS"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overrides config values with DAILYCAST_* environment variables.
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if env.Endpoint != "" {
		c.Service.Endpoint = env.Endpoint
	}
	if env.Storage != "" {
		c.Session.Storage = env.Storage
	}
	if env.DatabasePath != "" {
		c.Database.Path = env.DatabasePath
	}
	if env.LogLevel != "" {
		c.Log.Level = env.LogLevel
	}
	if env.Timeout > 0 {
		c.Service.TimeoutSeconds = env.Timeout
	}
	return c.Validate()
}

// Validate checks the settings the session layer depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Service.Endpoint) == "" {
		return fmt.Errorf("%w: service.endpoint is required", ErrInvalidConfig)
	}
	switch c.Session.Storage {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("%w: session.storage must be \"sqlite\" or \"memory\", got %q", ErrInvalidConfig, c.Session.Storage)
	}
	if c.Service.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: service.timeout_seconds must not be negative", ErrInvalidConfig)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Package config loads service configuration from an optional YAML file
// with environment variable overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/openteams/osshs/internal/ratelimit"
	"github.com/openteams/osshs/internal/scoring"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	CORSOrigins  []string      `yaml:"cors_origins"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig holds sqlite storage settings.
type DatabaseConfig struct {
	DataDir string `yaml:"data_dir"`
	// HistoryRetention bounds how long score history rows are kept.
	HistoryRetention time.Duration `yaml:"history_retention"`
}

// CollectorsConfig holds upstream source settings. Tokens are normally
// injected through the environment, not the file.
type CollectorsConfig struct {
	RegistryBaseURL  string        `yaml:"registry_base_url"`
	RegistryAPIKey   string        `yaml:"registry_api_key"`
	GitHubToken      string        `yaml:"github_token"`
	TwitterBearer    string        `yaml:"twitter_bearer"`
	StackExchangeKey string        `yaml:"stackexchange_key"`
	ScorecardBinary  string        `yaml:"scorecard_binary"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	MaxRetries       int           `yaml:"max_retries"`
}

// Config is the full service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Collectors CollectorsConfig `yaml:"collectors"`
	RateLimit  ratelimit.Config `yaml:"rate_limit"`
	Weights    scoring.Weights  `yaml:"weights"`
	CacheTTL   time.Duration    `yaml:"cache_ttl"`
	// LicenseTablePath overrides the embedded license table when set.
	LicenseTablePath string `yaml:"license_table_path"`
	// Workers is the scoring worker pool size for batch runs.
	Workers int `yaml:"workers"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			CORSOrigins:  []string{"*"},
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			DataDir:          "./data",
			HistoryRetention: 365 * 24 * time.Hour,
		},
		Collectors: CollectorsConfig{
			RegistryBaseURL: "https://libraries.io/api",
			ScorecardBinary: "scorecard",
			RequestTimeout:  30 * time.Second,
			MaxRetries:      3,
		},
		RateLimit: ratelimit.DefaultConfig(),
		Weights:   scoring.DefaultWeights(),
		CacheTTL:  5 * time.Minute,
		Workers:   4,
	}
}

// Load reads the config file at path (skipped when path is empty), applies
// environment overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// applyEnv overrides file values with OSSHS_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("OSSHS_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("OSSHS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("OSSHS_DATA_DIR"); v != "" {
		c.Database.DataDir = v
	}
	if v := os.Getenv("OSSHS_REGISTRY_API_KEY"); v != "" {
		c.Collectors.RegistryAPIKey = v
	}
	if v := os.Getenv("OSSHS_GITHUB_TOKEN"); v != "" {
		c.Collectors.GitHubToken = v
	}
	if v := os.Getenv("OSSHS_TWITTER_BEARER"); v != "" {
		c.Collectors.TwitterBearer = v
	}
	if v := os.Getenv("OSSHS_STACKEXCHANGE_KEY"); v != "" {
		c.Collectors.StackExchangeKey = v
	}
	if v := os.Getenv("OSSHS_SCORECARD_BINARY"); v != "" {
		c.Collectors.ScorecardBinary = v
	}
	if v := os.Getenv("OSSHS_LICENSE_TABLE"); v != "" {
		c.LicenseTablePath = v
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	if c.Database.DataDir == "" {
		return fmt.Errorf("config: data_dir must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1, got %d", c.Workers)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("config: cache_ttl must not be negative")
	}
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Addr returns the host:port the server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

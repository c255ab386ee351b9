package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the backup tool
type Config struct {
	// Mastodon API settings
	Mastodon MastodonConfig `yaml:"mastodon" json:"mastodon"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// MastodonConfig holds Mastodon API settings
type MastodonConfig struct {
	// Timeout applies independently to every HTTP request
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// PageSize is the limit parameter for the following collection.
	// Mastodon caps this at 80 server-side.
	PageSize int `yaml:"page_size" json:"page_size"`

	UserAgent string `yaml:"user_agent" json:"user_agent"`

	// AccessToken is an optional bearer token. Public follow lists
	// don't need one; restricted ones do.
	AccessToken string `yaml:"access_token" json:"access_token"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Wait is how long to sleep after a 429 before retrying the same URL
	Wait time.Duration `yaml:"wait" json:"wait"`

	// MaxRetries caps consecutive 429 retries per URL. 0 means retry forever.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// RequestsPerMinute paces outbound requests proactively. 0 disables pacing.
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mastodon: MastodonConfig{
			Timeout:   5 * time.Second,
			PageSize:  80,
			UserAgent: "mastodon-backup/1.0",
		},
		RateLimit: RateLimitConfig{
			Wait:              60 * time.Second,
			MaxRetries:        0,
			RequestsPerMinute: 0,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if token := os.Getenv("MASTODON_BACKUP_ACCESS_TOKEN"); token != "" {
		c.Mastodon.AccessToken = token
	}
	if userAgent := os.Getenv("MASTODON_BACKUP_USER_AGENT"); userAgent != "" {
		c.Mastodon.UserAgent = userAgent
	}
	if timeout := os.Getenv("MASTODON_BACKUP_TIMEOUT"); timeout != "" {
		if val, err := strconv.Atoi(timeout); err == nil && val > 0 {
			c.Mastodon.Timeout = time.Duration(val) * time.Second
		}
	}
	if page := os.Getenv("MASTODON_BACKUP_PAGE_SIZE"); page != "" {
		if val, err := strconv.Atoi(page); err == nil && val > 0 {
			c.Mastodon.PageSize = val
		}
	}
	if wait := os.Getenv("MASTODON_BACKUP_RATE_LIMIT_WAIT"); wait != "" {
		if val, err := strconv.Atoi(wait); err == nil && val > 0 {
			c.RateLimit.Wait = time.Duration(val) * time.Second
		}
	}
	if retries := os.Getenv("MASTODON_BACKUP_MAX_RETRIES"); retries != "" {
		if val, err := strconv.Atoi(retries); err == nil && val >= 0 {
			c.RateLimit.MaxRetries = val
		}
	}
	if rpm := os.Getenv("MASTODON_BACKUP_REQUESTS_PER_MINUTE"); rpm != "" {
		if val, err := strconv.Atoi(rpm); err == nil && val >= 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if logLevel := os.Getenv("MASTODON_BACKUP_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("MASTODON_BACKUP_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".mastodon-backup.yaml",
		".mastodon-backup.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "mastodon-backup", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "mastodon-backup", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".mastodon-backup.yaml"),
		filepath.Join(os.Getenv("HOME"), ".mastodon-backup.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Mastodon.Timeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Mastodon.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.Mastodon.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}

	if c.RateLimit.Wait <= 0 {
		errs = append(errs, errors.New("rate limit wait must be positive"))
	}
	if c.RateLimit.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeFlags merges command line flag values into the configuration
func (c *Config) MergeFlags(flags map[string]interface{}) {
	if timeout, ok := flags["timeout"].(int); ok && timeout > 0 {
		c.Mastodon.Timeout = time.Duration(timeout) * time.Second
	}
	if page, ok := flags["page"].(int); ok && page > 0 {
		c.Mastodon.PageSize = page
	}
	if token, ok := flags["token"].(string); ok && token != "" {
		c.Mastodon.AccessToken = token
	}
	if userAgent, ok := flags["user-agent"].(string); ok && userAgent != "" {
		c.Mastodon.UserAgent = userAgent
	}
	if wait, ok := flags["rate-limit-wait"].(int); ok && wait > 0 {
		c.RateLimit.Wait = time.Duration(wait) * time.Second
	}
	if retries, ok := flags["max-retries"].(int); ok && retries >= 0 {
		c.RateLimit.MaxRetries = retries
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok && rpm >= 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".mastodon-backup.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

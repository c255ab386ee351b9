package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 5*time.Second, cfg.Mastodon.Timeout)
	assert.Equal(t, 80, cfg.Mastodon.PageSize)
	assert.Equal(t, "mastodon-backup/1.0", cfg.Mastodon.UserAgent)
	assert.Empty(t, cfg.Mastodon.AccessToken)

	assert.Equal(t, 60*time.Second, cfg.RateLimit.Wait)
	assert.Equal(t, 0, cfg.RateLimit.MaxRetries)
	assert.Equal(t, 0, cfg.RateLimit.RequestsPerMinute)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.File)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MASTODON_BACKUP_ACCESS_TOKEN", "env-token")
	t.Setenv("MASTODON_BACKUP_USER_AGENT", "custom-agent/2.0")
	t.Setenv("MASTODON_BACKUP_TIMEOUT", "15")
	t.Setenv("MASTODON_BACKUP_PAGE_SIZE", "40")
	t.Setenv("MASTODON_BACKUP_RATE_LIMIT_WAIT", "30")
	t.Setenv("MASTODON_BACKUP_MAX_RETRIES", "5")
	t.Setenv("MASTODON_BACKUP_REQUESTS_PER_MINUTE", "120")
	t.Setenv("MASTODON_BACKUP_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "env-token", cfg.Mastodon.AccessToken)
	assert.Equal(t, "custom-agent/2.0", cfg.Mastodon.UserAgent)
	assert.Equal(t, 15*time.Second, cfg.Mastodon.Timeout)
	assert.Equal(t, 40, cfg.Mastodon.PageSize)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Wait)
	assert.Equal(t, 5, cfg.RateLimit.MaxRetries)
	assert.Equal(t, 120, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("MASTODON_BACKUP_TIMEOUT", "not-a-number")
	t.Setenv("MASTODON_BACKUP_PAGE_SIZE", "-5")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 5*time.Second, cfg.Mastodon.Timeout)
	assert.Equal(t, 80, cfg.Mastodon.PageSize)
}

func TestLoadFromFile(t *testing.T) {
	content := `
mastodon:
  user_agent: "file-agent/1.0"
  page_size: 40
  access_token: "file-token"
rate_limit:
  max_retries: 3
logging:
  level: "warn"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "file-agent/1.0", cfg.Mastodon.UserAgent)
	assert.Equal(t, 40, cfg.Mastodon.PageSize)
	assert.Equal(t, "file-token", cfg.Mastodon.AccessToken)
	assert.Equal(t, 3, cfg.RateLimit.MaxRetries)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Untouched keys keep their defaults
	assert.Equal(t, 5*time.Second, cfg.Mastodon.Timeout)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mastodon: [not: valid"), 0644))

	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(path))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Mastodon.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero page size",
			mutate:  func(c *Config) { c.Mastodon.PageSize = 0 },
			wantErr: true,
		},
		{
			name:    "empty user agent",
			mutate:  func(c *Config) { c.Mastodon.UserAgent = "" },
			wantErr: true,
		},
		{
			name:    "zero rate limit wait",
			mutate:  func(c *Config) { c.RateLimit.Wait = 0 },
			wantErr: true,
		},
		{
			name:    "negative max retries",
			mutate:  func(c *Config) { c.RateLimit.MaxRetries = -1 },
			wantErr: true,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: true,
		},
		{
			name:   "log level is case insensitive",
			mutate: func(c *Config) { c.Logging.Level = "DEBUG" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeFlags(map[string]interface{}{
		"timeout":             15,
		"page":                40,
		"token":               "flag-token",
		"rate-limit-wait":     30,
		"max-retries":         2,
		"requests-per-minute": 90,
		"log-level":           "debug",
	})

	assert.Equal(t, 15*time.Second, cfg.Mastodon.Timeout)
	assert.Equal(t, 40, cfg.Mastodon.PageSize)
	assert.Equal(t, "flag-token", cfg.Mastodon.AccessToken)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Wait)
	assert.Equal(t, 2, cfg.RateLimit.MaxRetries)
	assert.Equal(t, 90, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestMergeFlagsIgnoresZeroValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeFlags(map[string]interface{}{
		"timeout": 0,
		"token":   "",
	})

	assert.Equal(t, 5*time.Second, cfg.Mastodon.Timeout)
	assert.Empty(t, cfg.Mastodon.AccessToken)
}

func TestLoadPrecedence(t *testing.T) {
	content := `
mastodon:
  page_size: 40
  user_agent: "file-agent/1.0"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	// Environment overrides the file
	t.Setenv("MASTODON_BACKUP_PAGE_SIZE", "50")

	// Flags override the environment
	cfg, err := Load(path, map[string]interface{}{"page": 60})
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Mastodon.PageSize)
	assert.Equal(t, "file-agent/1.0", cfg.Mastodon.UserAgent)
}

func TestLoadRejectsInvalidResult(t *testing.T) {
	content := `
mastodon:
  page_size: -1
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path, nil)
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Mastodon.PageSize = 40
	cfg.Logging.Level = "debug"
	require.NoError(t, cfg.Save(path))

	reloaded := DefaultConfig()
	require.NoError(t, reloaded.LoadFromFile(path))

	assert.Equal(t, 40, reloaded.Mastodon.PageSize)
	assert.Equal(t, "debug", reloaded.Logging.Level)
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rozie/mastodon-followers-backup/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage mastodon-backup configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (MASTODON_BACKUP_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as
'.mastodon-backup.yaml' unless a different path is specified with the
--config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging all sources:
  - Command line flags
  - Environment variables
  - Configuration file
  - Default values

The access token is masked for security.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Log file path accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".mastodon-backup.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintln(os.Stderr, "configuration file already exists:", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# mastodon-backup configuration file
#
# Every option can also be set with an environment variable prefixed
# with MASTODON_BACKUP_, for example MASTODON_BACKUP_ACCESS_TOKEN or
# MASTODON_BACKUP_PAGE_SIZE. Environment variables override this file,
# and command line flags override both.

# Mastodon API settings
mastodon:
  # Access token (optional)
  # Public follow lists need no token. For restricted lists, prefer
  # 'mastodon-backup auth login' over putting the token in this file.
  access_token: ""

  # User agent sent with every request
  user_agent: "mastodon-backup/1.0"

  # Page size for the following collection
  # Mastodon caps this at 80 server-side
  page_size: 80

  # Request timeout in seconds is set with --timeout or
  # MASTODON_BACKUP_TIMEOUT (default 5)

# Rate limiting configuration
rate_limit:
  # Maximum consecutive rate-limit retries per page
  # 0 means retry forever
  max_retries: 0

  # Proactive request pacing, requests per minute
  # 0 disables pacing and relies on 429 handling alone
  requests_per_minute: 0

  # Seconds to wait after a 429 response is set with --rate-limit-wait
  # or MASTODON_BACKUP_RATE_LIMIT_WAIT (default 60)

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional)
  # Leave empty to log to stderr only
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		fmt.Fprintln(os.Stderr, "failed to create configuration file:", err)
		os.Exit(1)
	}

	fmt.Println("Configuration file created:", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the configuration file if the defaults don't suit you")
	fmt.Println("2. Run 'mastodon-backup config validate' to check it")
	fmt.Println("3. Back up a follow list with 'mastodon-backup backup --url <profile URL>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	// Mask the token for display
	displayCfg := *cfg
	if displayCfg.Mastodon.AccessToken != "" {
		token := displayCfg.Mastodon.AccessToken
		if len(token) > 8 {
			displayCfg.Mastodon.AccessToken = token[:4] + "..." + token[len(token)-4:]
		} else {
			displayCfg.Mastodon.AccessToken = "***"
		}
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to format configuration:", err)
		os.Exit(1)
	}

	fmt.Println("Current configuration:")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (MASTODON_BACKUP_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile == "" {
		possiblePaths := []string{
			".mastodon-backup.yaml",
			".mastodon-backup.yml",
			filepath.Join(os.Getenv("HOME"), ".mastodon-backup.yaml"),
			filepath.Join(os.Getenv("HOME"), ".mastodon-backup.yml"),
			filepath.Join(os.Getenv("HOME"), ".config", "mastodon-backup", "config.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "mastodon-backup", "config.yml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			fmt.Fprintln(os.Stderr, "no configuration file found, specify one with --config")
			os.Exit(1)
		}
	}

	fmt.Println("Validating configuration:", configFile)

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration validation failed:", err)
		os.Exit(1)
	}

	// Check the log file path is usable
	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "cannot create log directory: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Request timeout: %s\n", cfg.Mastodon.Timeout)
	fmt.Printf("  Page size: %d\n", cfg.Mastodon.PageSize)
	fmt.Printf("  Rate limit wait: %s\n", cfg.RateLimit.Wait)
	fmt.Printf("  Max retries: %d\n", cfg.RateLimit.MaxRetries)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	if cfg.Mastodon.AccessToken != "" {
		fmt.Println("  Access token: configured")
	} else {
		fmt.Println("  Access token: not set")
	}
}

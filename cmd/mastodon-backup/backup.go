package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rozie/mastodon-followers-backup/pkg/auth"
	"github.com/rozie/mastodon-followers-backup/pkg/backup"
	"github.com/rozie/mastodon-followers-backup/pkg/config"
	"github.com/rozie/mastodon-followers-backup/pkg/logger"
	"github.com/rozie/mastodon-followers-backup/pkg/mastodon"
)

var (
	// Backup command flags
	profileURL        string
	timeoutSeconds    int
	pageSize          int
	accessToken       string
	accountInstance   string
	maxRetries        int
	rateLimitWait     int
	requestsPerMinute int
)

// backupCmd represents the backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Print every account a Mastodon user follows",
	Long: `Back up the follow list of the profile at --url.

The output is a one-line summary followed by one canonical account URL
per line on stdout. Redirect it to keep the backup:

  mastodon-backup backup --url https://mastodon.online/@rozie > following.txt

Public follow lists need no authentication. For accounts that restrict
theirs, provide an access token via --token, the
MASTODON_BACKUP_ACCESS_TOKEN environment variable, or a stored token
('mastodon-backup auth login <instance>').`,
	Example: `  # Back up a follow list with default settings
  mastodon-backup backup --url https://mastodon.online/@rozie

  # Slower instance, smaller pages
  mastodon-backup backup --url https://example.social/@alice --timeout 15 --page 40

  # Use the token stored for a specific instance
  mastodon-backup backup --url https://example.social/@alice --account example.social

  # Give up after five consecutive rate-limit waits
  mastodon-backup backup --url https://example.social/@alice --max-retries 5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runBackup(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)

	backupCmd.Flags().StringVarP(&profileURL, "url", "u", "", "profile URL of the account to back up (required)")
	backupCmd.Flags().IntVarP(&timeoutSeconds, "timeout", "t", 5, "timeout in seconds for each request")
	backupCmd.Flags().IntVarP(&pageSize, "page", "p", 80, "page size for fetching the following list")
	backupCmd.Flags().StringVar(&accessToken, "token", "", "API access token (overrides stored tokens)")
	backupCmd.Flags().StringVarP(&accountInstance, "account", "a", "", "use the stored token for this instance")
	backupCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "maximum consecutive rate-limit retries per page (0 = unlimited)")
	backupCmd.Flags().IntVar(&rateLimitWait, "rate-limit-wait", 60, "seconds to wait after a 429 response")
	backupCmd.Flags().IntVar(&requestsPerMinute, "requests-per-minute", 0, "proactive request pacing (0 = disabled)")
	_ = backupCmd.MarkFlagRequired("url")

	// Also add these flags to the root command for backward compatibility
	rootCmd.Flags().StringVarP(&profileURL, "url", "u", "", "profile URL of the account to back up")
	rootCmd.Flags().IntVarP(&timeoutSeconds, "timeout", "t", 5, "timeout in seconds for each request")
	rootCmd.Flags().IntVarP(&pageSize, "page", "p", 80, "page size for fetching the following list")
	rootCmd.Flags().StringVar(&accessToken, "token", "", "API access token (overrides stored tokens)")
	rootCmd.Flags().StringVarP(&accountInstance, "account", "a", "", "use the stored token for this instance")
}

func runBackup(cmd *cobra.Command, args []string) {
	// Build flags map from command line
	flags := make(map[string]interface{})
	if timeoutSeconds != 5 {
		flags["timeout"] = timeoutSeconds
	}
	if pageSize != 80 {
		flags["page"] = pageSize
	}
	if accessToken != "" {
		flags["token"] = accessToken
	}
	if maxRetries != 0 {
		flags["max-retries"] = maxRetries
	}
	if rateLimitWait != 60 {
		flags["rate-limit-wait"] = rateLimitWait
	}
	if requestsPerMinute != 0 {
		flags["requests-per-minute"] = requestsPerMinute
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	// Load configuration
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Initialize(&cfg.Logging); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.WithField("profile", profileURL).Debug("mastodon-backup starting")

	// When no token was given explicitly, try the stored one for the
	// target instance (or the instance named by --account).
	if cfg.Mastodon.AccessToken == "" {
		if ref, err := mastodon.ParseProfileURL(profileURL); err == nil {
			instance := ref.Instance
			if accountInstance != "" {
				instance = accountInstance
			}
			if credManager, err := auth.NewManager(); err == nil {
				if cred, err := credManager.Retrieve(instance); err == nil {
					cfg.Mastodon.AccessToken = cred.AccessToken
					log.WithField("instance", instance).Debug("using stored access token")
				}
			}
		}
	}

	b := backup.New(cfg, log)
	if err := b.Run(profileURL); err != nil {
		log.WithError(err).Error("backup failed")
		os.Exit(1)
	}
}

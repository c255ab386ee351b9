package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	verbose    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands.
// For compatibility with older scripts, --url on the root command runs a
// backup directly.
var rootCmd = &cobra.Command{
	Use:   "mastodon-backup",
	Short: "Back up the accounts a Mastodon user follows",
	Long: `mastodon-backup prints every account a Mastodon user follows, one
canonical profile URL per line, so the list can be redirected to a file.

It resolves a profile URL to an instance and account ID, then walks the
instance's paginated following collection, waiting out rate limits along
the way. All diagnostics go to stderr; stdout carries only the backup.

Example:
  mastodon-backup backup --url https://mastodon.online/@rozie > following.txt`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// --verbose and --quiet are shorthands for log levels
		if verbose {
			logLevel = "debug"
		}
		if quiet {
			logLevel = "error"
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if profileURL != "" {
			runBackup(cmd, args)
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.mastodon-backup.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (same as --log-level debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress everything on stderr except errors")

	// Version template
	rootCmd.SetVersionTemplate(`mastodon-backup {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

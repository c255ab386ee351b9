package backup

import (
	"fmt"
	"io"
	"os"

	"github.com/rozie/mastodon-followers-backup/pkg/config"
	"github.com/rozie/mastodon-followers-backup/pkg/logger"
	"github.com/rozie/mastodon-followers-backup/pkg/mastodon"
)

// Client defines the Mastodon API operations a backup run needs
type Client interface {
	LookupAccount(ref mastodon.ProfileRef) (string, error)
	FollowingAll(instance, accountID string) ([]mastodon.Account, error)
}

// Backup orchestrates one backup run: resolve the profile URL to an
// instance and username, look up the account ID, fetch the complete
// following collection, and print it.
type Backup struct {
	client Client
	config *config.Config
	logger logger.Logger
	out    io.Writer
}

// New creates a Backup wired to a real Mastodon API client. The backup
// payload goes to stdout; diagnostics go through the logger.
func New(cfg *config.Config, log logger.Logger) *Backup {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Backup{
		client: mastodon.NewClient(cfg, log),
		config: cfg,
		logger: log,
		out:    os.Stdout,
	}
}

// SetClient replaces the API client (used by tests)
func (b *Backup) SetClient(client Client) {
	b.client = client
}

// SetOutput redirects the backup payload away from stdout
func (b *Backup) SetOutput(w io.Writer) {
	b.out = w
}

// Run backs up the follow list of the profile at profileURL, writing a
// one-line summary followed by one account URL per line. It returns an
// error when the URL cannot be parsed or the account ID cannot be
// resolved. A failed following fetch is logged and reported as zero
// results; the summary line is printed either way so output stays
// redirectable.
func (b *Backup) Run(profileURL string) error {
	b.logger.WithField("profile", profileURL).Debug("starting backup")

	ref, err := mastodon.ParseProfileURL(profileURL)
	if err != nil {
		b.logger.WithError(err).Error("couldn't find instance or username in URL")
		return err
	}

	b.logger.DebugWithFields("parsed profile URL", map[string]interface{}{
		"instance": ref.Instance,
		"username": ref.Username,
	})

	accountID, err := b.client.LookupAccount(ref)
	if err != nil {
		b.logger.WithError(err).ErrorWithFields("could not resolve account ID", map[string]interface{}{
			"instance": ref.Instance,
			"username": ref.Username,
		})
		return err
	}

	b.logger.WithField("account_id", accountID).Debug("finding followed accounts")

	following, err := b.client.FollowingAll(ref.Instance, accountID)
	if err != nil {
		// Report a failed fetch as zero results, like the exit-code
		// contract promises; the error itself only reaches the logs.
		b.logger.WithError(err).Error("fetching following list failed")
		following = nil
	}

	fmt.Fprintf(b.out, "Found %d followed by %s:\n", len(following), profileURL)
	for _, account := range following {
		// Accounts without a url print as an empty line, unfiltered
		fmt.Fprintln(b.out, account.URL)
	}

	return nil
}

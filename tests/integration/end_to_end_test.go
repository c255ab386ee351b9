package integration

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rozie/mastodon-followers-backup/pkg/backup"
	"github.com/rozie/mastodon-followers-backup/pkg/config"
	"github.com/rozie/mastodon-followers-backup/pkg/logger"
	"github.com/rozie/mastodon-followers-backup/pkg/mastodon"
)

// makeFollowing generates n distinct followed accounts
func makeFollowing(n int) []mastodon.Account {
	accounts := make([]mastodon.Account, n)
	for i := range accounts {
		accounts[i] = mastodon.Account{
			ID:       fmt.Sprintf("%d", 1000+i),
			Username: fmt.Sprintf("user%d", i),
			URL:      fmt.Sprintf("https://peer.example/@user%d", i),
		}
	}
	return accounts
}

// newBackupAgainst wires a Backup to a mock instance over plain HTTP
func newBackupAgainst(srv *MockMastodonServer, cfg *config.Config) (*backup.Backup, *bytes.Buffer, *logger.TestLogger) {
	log := logger.NewTestLogger()

	client := mastodon.NewClient(cfg, log)
	client.SetScheme("http")

	b := backup.New(cfg, log)
	b.SetClient(client)

	var out bytes.Buffer
	b.SetOutput(&out)

	return b, &out, log
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.RateLimit.Wait = time.Millisecond
	return cfg
}

func TestEndToEndBackup(t *testing.T) {
	srv := NewMockMastodonServer()
	defer srv.Close()

	following := makeFollowing(5)
	srv.AddAccount(mastodon.Account{ID: "42", Username: "alice"}, following)

	cfg := testConfig()
	cfg.Mastodon.PageSize = 2 // force pagination
	b, out, _ := newBackupAgainst(srv, cfg)

	err := b.Run(srv.ProfileURL("alice"))
	require.NoError(t, err)

	expected := fmt.Sprintf("Found 5 followed by %s:\n", srv.ProfileURL("alice"))
	for _, account := range following {
		expected += account.URL + "\n"
	}
	assert.Equal(t, expected, out.String())

	// One lookup plus three pages (2+2+1)
	assert.Equal(t, 4, srv.RequestCount())
}

func TestEndToEndEmptyFollowing(t *testing.T) {
	srv := NewMockMastodonServer()
	defer srv.Close()

	srv.AddAccount(mastodon.Account{ID: "42", Username: "alice"}, nil)

	b, out, _ := newBackupAgainst(srv, testConfig())

	err := b.Run(srv.ProfileURL("alice"))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Found 0 followed by %s:\n", srv.ProfileURL("alice")), out.String())
}

func TestEndToEndUnknownAccount(t *testing.T) {
	srv := NewMockMastodonServer()
	defer srv.Close()

	b, out, _ := newBackupAgainst(srv, testConfig())

	err := b.Run(srv.ProfileURL("nobody"))
	require.Error(t, err)
	assert.Empty(t, out.String())
}

func TestEndToEndRateLimitRecovery(t *testing.T) {
	srv := NewMockMastodonServer()
	defer srv.Close()

	following := makeFollowing(3)
	srv.AddAccount(mastodon.Account{ID: "42", Username: "alice"}, following)

	b, out, _ := newBackupAgainst(srv, testConfig())

	srv.RateLimitNext(2)

	err := b.Run(srv.ProfileURL("alice"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Found 3 followed by")
	for _, account := range following {
		assert.Contains(t, out.String(), account.URL)
	}
}

func TestEndToEndServerErrorReportsZero(t *testing.T) {
	srv := NewMockMastodonServer()
	defer srv.Close()

	srv.AddAccount(mastodon.Account{ID: "42", Username: "alice"}, makeFollowing(3))
	srv.SetError("/api/v1/accounts/42/following", 500)

	b, out, log := newBackupAgainst(srv, testConfig())

	err := b.Run(srv.ProfileURL("alice"))

	// The run still succeeds; the failure lands in the logs only
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Found 0 followed by %s:\n", srv.ProfileURL("alice")), out.String())
	assert.True(t, log.HasError())
}

func TestEndToEndAuthenticatedInstance(t *testing.T) {
	srv := NewMockMastodonServer()
	defer srv.Close()

	following := makeFollowing(2)
	srv.AddAccount(mastodon.Account{ID: "42", Username: "alice"}, following)
	srv.RequireToken("secret-token")

	t.Run("without token the lookup fails", func(t *testing.T) {
		b, out, _ := newBackupAgainst(srv, testConfig())

		err := b.Run(srv.ProfileURL("alice"))
		require.Error(t, err)
		assert.Empty(t, out.String())
	})

	t.Run("with token the backup succeeds", func(t *testing.T) {
		cfg := testConfig()
		cfg.Mastodon.AccessToken = "secret-token"
		b, out, _ := newBackupAgainst(srv, cfg)

		err := b.Run(srv.ProfileURL("alice"))
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Found 2 followed by")
	})
}

func TestEndToEndRateLimitCap(t *testing.T) {
	srv := NewMockMastodonServer()
	defer srv.Close()

	srv.AddAccount(mastodon.Account{ID: "42", Username: "alice"}, makeFollowing(2))

	cfg := testConfig()
	cfg.RateLimit.MaxRetries = 1
	b, out, log := newBackupAgainst(srv, cfg)

	// Enough 429s to exhaust the single allowed retry on the first page
	srv.RateLimitNext(10)

	err := b.Run(srv.ProfileURL("alice"))

	// The capped retry surfaces as a failed fetch: zero results, exit clean
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Found 0 followed by")
	assert.True(t, log.HasError())
}

package mastodon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfileURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected ProfileRef
		wantErr  bool
	}{
		{
			name:     "standard profile URL",
			input:    "https://mastodon.online/@rozie",
			expected: ProfileRef{Instance: "mastodon.online", Username: "rozie"},
		},
		{
			name:     "trailing slash",
			input:    "https://mastodon.online/@rozie/",
			expected: ProfileRef{Instance: "mastodon.online", Username: "rozie"},
		},
		{
			name:     "web route prefix",
			input:    "https://example.social/web/@alice",
			expected: ProfileRef{Instance: "example.social", Username: "alice"},
		},
		{
			name:     "remote account handle keeps last segment",
			input:    "https://example.social/@bob@other.instance",
			expected: ProfileRef{Instance: "example.social", Username: "other.instance"},
		},
		{
			name:     "instance with port",
			input:    "https://mastodon.local:8443/@carol",
			expected: ProfileRef{Instance: "mastodon.local:8443", Username: "carol"},
		},
		{
			name:    "no host",
			input:   "/@rozie",
			wantErr: true,
		},
		{
			name:    "no username",
			input:   "https://mastodon.online/",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "not a URL at all",
			input:   "rozie",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseProfileURL(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				apiErr, ok := err.(*Error)
				require.True(t, ok, "expected a *mastodon.Error")
				assert.Equal(t, ErrorTypeInvalidURL, apiErr.Type)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, ref)
		})
	}
}

func TestParseProfileURLUnparseable(t *testing.T) {
	_, err := ParseProfileURL("https://example.social/@alice\x7f%zz")

	require.Error(t, err)
	apiErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeInvalidURL, apiErr.Type)
}

func TestLookupPath(t *testing.T) {
	assert.Equal(t, "/api/v1/accounts/lookup?acct=rozie", LookupPath("rozie"))
	// Reserved characters must be escaped
	assert.Equal(t, "/api/v1/accounts/lookup?acct=a%2Fb", LookupPath("a/b"))
}

func TestFollowingPath(t *testing.T) {
	assert.Equal(t, "/api/v1/accounts/123/following?limit=80", FollowingPath("123", 80))
	assert.Equal(t, "/api/v1/accounts/123/following?limit=40", FollowingPath("123", 40))

	// Non-positive limits fall back to the default
	assert.Equal(t, "/api/v1/accounts/123/following?limit=80", FollowingPath("123", 0))
	assert.Equal(t, "/api/v1/accounts/123/following?limit=80", FollowingPath("123", -1))
}

func TestFullURLBuilders(t *testing.T) {
	assert.Equal(t,
		"https://mastodon.online/api/v1/accounts/lookup?acct=rozie",
		LookupURL("mastodon.online", "rozie"))
	assert.Equal(t,
		"https://mastodon.online/api/v1/accounts/456/following?limit=80",
		FollowingURL("mastodon.online", "456", 80))
}

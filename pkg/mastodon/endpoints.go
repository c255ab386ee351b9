package mastodon

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// LookupEndpoint resolves a username to an account
	LookupEndpoint = "/api/v1/accounts/lookup"

	// FollowingEndpoint is the endpoint pattern for the following collection
	FollowingEndpoint = "/api/v1/accounts/%s/following"

	// DefaultPageSize is the following-collection page size; Mastodon's
	// server-side maximum for this endpoint.
	DefaultPageSize = 80
)

// LookupPath constructs the path and query for resolving a username
func LookupPath(username string) string {
	params := url.Values{}
	params.Set("acct", username)

	return fmt.Sprintf("%s?%s", LookupEndpoint, params.Encode())
}

// FollowingPath constructs the path and query for the first page of an
// account's following collection. Later pages come from the Link header,
// not from locally built URLs.
func FollowingPath(accountID string, limit int) string {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	return fmt.Sprintf(FollowingEndpoint+"?%s", accountID, params.Encode())
}

// LookupURL constructs the full URL for resolving a username on an instance
func LookupURL(instance, username string) string {
	return "https://" + instance + LookupPath(username)
}

// FollowingURL constructs the full URL for the first following page
func FollowingURL(instance, accountID string, limit int) string {
	return "https://" + instance + FollowingPath(accountID, limit)
}

// ParseProfileURL splits a profile URL into instance host and username.
// The username is the last @-delimited segment of the path with leading
// and trailing slashes stripped, so https://mastodon.online/@rozie and
// https://example.social/web/@alice both work. It never touches the
// network.
func ParseProfileURL(profileURL string) (ProfileRef, error) {
	parsed, err := url.Parse(profileURL)
	if err != nil {
		return ProfileRef{}, &Error{
			Type:    ErrorTypeInvalidURL,
			Message: fmt.Sprintf("could not parse profile URL: %v", err),
		}
	}

	instance := parsed.Host
	path := strings.Trim(parsed.Path, "/")
	segments := strings.Split(path, "@")
	username := segments[len(segments)-1]

	if instance == "" || username == "" {
		return ProfileRef{}, &Error{
			Type:    ErrorTypeInvalidURL,
			Message: fmt.Sprintf("no instance or username in %q; expected a URL like https://mastodon.online/@rozie", profileURL),
		}
	}

	return ProfileRef{Instance: instance, Username: username}, nil
}

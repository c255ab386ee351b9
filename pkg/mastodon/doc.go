// Package mastodon provides a client for the Mastodon REST API, covering
// the two operations the backup needs: resolving a username to an account
// ID and walking an account's paginated following collection.
//
// This package includes:
//   - A configurable HTTP client with proper headers and error handling
//   - Type-safe models for Mastodon API responses
//   - Helper functions for constructing API endpoints
//   - Built-in error types for better error handling
//
// Example usage:
//
//	client := mastodon.NewClient(cfg, log)
//
//	ref, err := mastodon.ParseProfileURL("https://mastodon.online/@rozie")
//	if err != nil {
//	    // Handle invalid URL
//	}
//
//	id, err := client.LookupAccount(ref)
//	if err != nil {
//	    if apiErr, ok := err.(*mastodon.Error); ok {
//	        switch apiErr.Type {
//	        case mastodon.ErrorTypeNotFound:
//	            // Handle unknown account
//	        case mastodon.ErrorTypeRateLimit:
//	            // Handle rate limit
//	        }
//	    }
//	}
//
//	following, err := client.FollowingAll(ref.Instance, id)
//
// Pagination follows the Link header rel="next" convention used by
// Mastodon instances; 429 responses are retried against the same URL
// after a configurable wait.
package mastodon

// Package retry provides backoff strategies for handling rate limiting
// in Mastodon API calls.
//
// The fetcher uses FixedBackoff, matching Mastodon's rate-limit
// convention of simply waiting a flat interval before retrying the same
// URL. ExponentialBackoff is available as a hardening option for
// instances that stay rate limited.
//
// Usage:
//
//	backoff := retry.NewFixedBackoff(60 * time.Second)
//	delay := backoff.NextDelay(attempt)
//	if err := retry.Wait(ctx, delay); err != nil {
//		// context cancelled while waiting
//	}
package retry

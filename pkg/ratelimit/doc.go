// Package ratelimit provides client-side request pacing for the Mastodon
// API.
//
// The token bucket complements the reactive 429 handling in the API
// client: it spaces requests out ahead of time, while the client's
// fixed-wait retry deals with limits the server imposes anyway.
//
// Usage:
//
//	// 60 requests per minute
//	limiter := ratelimit.NewTokenBucket(60, time.Minute)
//
//	limiter.Wait() // blocks until a request is allowed
package ratelimit

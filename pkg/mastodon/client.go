package mastodon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rozie/mastodon-followers-backup/pkg/config"
	"github.com/rozie/mastodon-followers-backup/pkg/logger"
	"github.com/rozie/mastodon-followers-backup/pkg/ratelimit"
	"github.com/rozie/mastodon-followers-backup/pkg/retry"
)

// ErrorType classifies Mastodon API errors
type ErrorType string

const (
	ErrorTypeInvalidURL  ErrorType = "invalid_url"
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a Mastodon API error
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("mastodon %s error (code %d): %s", e.Type, e.Code, e.Message)
}

// Client represents a Mastodon API client
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	limiter    ratelimit.Limiter
	backoff    retry.BackoffStrategy
	maxRetries int
	pageSize   int
	scheme     string
	logger     logger.Logger
}

// NewClient creates a new Mastodon API client from the given configuration
func NewClient(cfg *config.Config, log logger.Logger) *Client {
	// Use default logger if none provided
	if log == nil {
		log = logger.GetLogger()
	}

	headers := map[string]string{
		"User-Agent": cfg.Mastodon.UserAgent,
		"Accept":     "application/json",
	}
	if cfg.Mastodon.AccessToken != "" {
		headers["Authorization"] = "Bearer " + cfg.Mastodon.AccessToken
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimit.RequestsPerMinute > 0 {
		limiter = ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Mastodon.Timeout,
		},
		headers:    headers,
		limiter:    limiter,
		backoff:    retry.NewFixedBackoff(cfg.RateLimit.Wait),
		maxRetries: cfg.RateLimit.MaxRetries,
		pageSize:   cfg.Mastodon.PageSize,
		scheme:     "https",
		logger:     log,
	}
}

// SetScheme overrides the URL scheme used for instance endpoints.
// Instances always speak HTTPS; tests talk to plain-HTTP servers.
func (c *Client) SetScheme(scheme string) {
	c.scheme = scheme
}

// endpointURL builds a full URL for a path on an instance
func (c *Client) endpointURL(instance, path string) string {
	return c.scheme + "://" + instance + path
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHeaders sets multiple headers at once
func (c *Client) SetHeaders(headers map[string]string) {
	for key, value := range headers {
		c.headers[key] = value
	}
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	// Pace outbound requests when a limiter is configured
	if c.limiter != nil {
		c.limiter.Wait()
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &Error{
			Type:    ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Code:    0,
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// get performs a GET request to the specified URL
func (c *Client) get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Code:    0,
		}
	}

	return c.doRequest(req)
}

// checkResponseStatus checks the HTTP response status and returns appropriate errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &Error{
			Type:    ErrorTypeAuth,
			Message: "authentication required",
			Code:    resp.StatusCode,
		}
	case http.StatusNotFound, http.StatusGone:
		c.logger.WarnWithFields("resource not found", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &Error{
			Type:    ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	case http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &Error{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &Error{
			Type:    ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	default:
		if resp.StatusCode >= 400 {
			c.logger.ErrorWithFields("unexpected API error", map[string]interface{}{
				"status": resp.StatusCode,
				"url":    resp.Request.URL.String(),
			})
			return &Error{
				Type:    ErrorTypeUnknown,
				Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
				Code:    resp.StatusCode,
			}
		}
		return nil
	}
}

// LookupAccount resolves a username on an instance to an account ID.
// Exactly one network call; no retry.
func (c *Client) LookupAccount(ref ProfileRef) (string, error) {
	url := c.endpointURL(ref.Instance, LookupPath(ref.Username))

	c.logger.DebugWithFields("looking up account", map[string]interface{}{
		"instance": ref.Instance,
		"username": ref.Username,
		"url":      url,
	})

	resp, err := c.get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{
			Type:    ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	var account Account
	if err := json.Unmarshal(body, &account); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse lookup response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return "", &Error{
			Type:    ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if account.ID == "" {
		return "", &Error{
			Type:    ErrorTypeParsing,
			Message: "lookup response has no id field",
			Code:    resp.StatusCode,
		}
	}

	c.logger.DebugWithFields("resolved account", map[string]interface{}{
		"username":   ref.Username,
		"account_id": account.ID,
	})

	return account.ID, nil
}

// FollowingAll fetches the complete list of accounts an account follows,
// walking the Link header rel="next" chain until the collection is
// exhausted. Accounts come back in server pagination order with no
// deduplication. A 429 is retried against the same URL after the
// configured wait; any other failure aborts the whole fetch and discards
// partial results.
func (c *Client) FollowingAll(instance, accountID string) ([]Account, error) {
	pageURL := c.endpointURL(instance, FollowingPath(accountID, c.pageSize))

	c.logger.DebugWithFields("fetching following collection", map[string]interface{}{
		"instance":   instance,
		"account_id": accountID,
		"page_size":  c.pageSize,
	})

	var all []Account
	retries := 0

	for pageURL != "" {
		resp, err := c.get(pageURL)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			retries++
			// MaxRetries 0 means wait it out forever
			if c.maxRetries > 0 && retries > c.maxRetries {
				return nil, &Error{
					Type:    ErrorTypeRateLimit,
					Message: fmt.Sprintf("still rate limited after %d retries", c.maxRetries),
					Code:    resp.StatusCode,
				}
			}
			delay := c.backoff.NextDelay(retries)
			c.logger.WarnWithFields("rate limited, waiting before retrying the same page", map[string]interface{}{
				"url":   pageURL,
				"delay": delay,
			})
			if err := retry.Wait(context.Background(), delay); err != nil {
				return nil, err
			}
			continue
		}
		retries = 0

		if err := c.checkResponseStatus(resp); err != nil {
			resp.Body.Close()
			return nil, err
		}

		body, err := io.ReadAll(resp.Body)
		linkHeader := resp.Header.Get("Link")
		resp.Body.Close()
		if err != nil {
			return nil, &Error{
				Type:    ErrorTypeNetwork,
				Message: fmt.Sprintf("failed to read response body: %v", err),
				Code:    resp.StatusCode,
			}
		}

		var page []Account
		if err := json.Unmarshal(body, &page); err != nil {
			c.logger.ErrorWithFields("failed to parse following page", map[string]interface{}{
				"url":    pageURL,
				"status": resp.StatusCode,
				"error":  err.Error(),
			})
			return nil, &Error{
				Type:    ErrorTypeParsing,
				Message: fmt.Sprintf("failed to parse JSON: %v", err),
				Code:    resp.StatusCode,
			}
		}

		// An empty page means the collection is exhausted
		if len(page) == 0 {
			break
		}

		all = append(all, page...)

		c.logger.DebugWithFields("fetched following page", map[string]interface{}{
			"url":      pageURL,
			"accounts": len(page),
			"total":    len(all),
		})

		pageURL = nextLink(linkHeader)
	}

	c.logger.DebugWithFields("following collection complete", map[string]interface{}{
		"account_id": accountID,
		"total":      len(all),
	})

	return all, nil
}

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rozie/mastodon-followers-backup/pkg/mastodon"
)

// MockMastodonServer simulates the two Mastodon API endpoints the backup
// talks to, with Link header pagination and injectable failures.
type MockMastodonServer struct {
	server *httptest.Server

	mu        sync.RWMutex
	accounts  map[string]mastodon.Account   // username -> account
	following map[string][]mastodon.Account // account ID -> complete list

	errorResponses map[string]int // path prefix -> status code
	rateLimitLeft  int32          // number of 429s to serve before succeeding
	requireToken   string         // when set, requests need this bearer token

	requestCount int32
}

// NewMockMastodonServer creates and starts a mock Mastodon instance
func NewMockMastodonServer() *MockMastodonServer {
	m := &MockMastodonServer{
		accounts:       make(map[string]mastodon.Account),
		following:      make(map[string][]mastodon.Account),
		errorResponses: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/lookup", m.handleLookup)
	mux.HandleFunc("/api/v1/accounts/", m.handleFollowing)

	m.server = httptest.NewServer(mux)
	return m
}

// Close shuts down the server
func (m *MockMastodonServer) Close() {
	m.server.Close()
}

// Host returns the instance host (with port) the server listens on
func (m *MockMastodonServer) Host() string {
	return strings.TrimPrefix(m.server.URL, "http://")
}

// ProfileURL builds a profile URL for a username on this instance
func (m *MockMastodonServer) ProfileURL(username string) string {
	return fmt.Sprintf("%s/@%s", m.server.URL, username)
}

// AddAccount registers an account and the list of accounts it follows
func (m *MockMastodonServer) AddAccount(account mastodon.Account, following []mastodon.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accounts[account.Username] = account
	m.following[account.ID] = following
}

// SetError makes every request whose path starts with prefix fail with code
func (m *MockMastodonServer) SetError(prefix string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errorResponses[prefix] = code
}

// RateLimitNext makes the next n following-page requests answer 429
// before recovering. Lookups are never rate limited; they have no retry.
func (m *MockMastodonServer) RateLimitNext(n int) {
	atomic.StoreInt32(&m.rateLimitLeft, int32(n))
}

// RequireToken makes the server reject requests without this bearer token
func (m *MockMastodonServer) RequireToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requireToken = token
}

// RequestCount returns the number of requests handled so far
func (m *MockMastodonServer) RequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

func (m *MockMastodonServer) intercept(w http.ResponseWriter, r *http.Request) bool {
	atomic.AddInt32(&m.requestCount, 1)

	if strings.Contains(r.URL.Path, "/following") && atomic.LoadInt32(&m.rateLimitLeft) > 0 {
		atomic.AddInt32(&m.rateLimitLeft, -1)
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "Too many requests"})
		return true
	}

	m.mu.RLock()
	requireToken := m.requireToken
	var errorCode int
	for prefix, code := range m.errorResponses {
		if strings.HasPrefix(r.URL.Path, prefix) {
			errorCode = code
			break
		}
	}
	m.mu.RUnlock()

	if errorCode > 0 {
		w.WriteHeader(errorCode)
		json.NewEncoder(w).Encode(map[string]string{"error": http.StatusText(errorCode)})
		return true
	}

	if requireToken != "" && r.Header.Get("Authorization") != "Bearer "+requireToken {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "This API requires an authenticated user"})
		return true
	}

	return false
}

func (m *MockMastodonServer) handleLookup(w http.ResponseWriter, r *http.Request) {
	if m.intercept(w, r) {
		return
	}

	username := r.URL.Query().Get("acct")

	m.mu.RLock()
	account, exists := m.accounts[username]
	m.mu.RUnlock()

	if !exists {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Record not found"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(account)
}

// handleFollowing serves paginated following lists. Pagination uses an
// offset query parameter carried through the Link rel="next" header, the
// same way the client consumes real Mastodon max_id links: verbatim.
func (m *MockMastodonServer) handleFollowing(w http.ResponseWriter, r *http.Request) {
	if m.intercept(w, r) {
		return
	}

	// Path: /api/v1/accounts/{id}/following
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 5 || parts[4] != "following" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	accountID := parts[3]

	m.mu.RLock()
	list, exists := m.following[accountID]
	m.mu.RUnlock()

	if !exists {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Record not found"})
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 80 {
		limit = 40
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	end := offset + limit
	if offset > len(list) {
		offset = len(list)
	}
	if end > len(list) {
		end = len(list)
	}
	page := list[offset:end]

	if end < len(list) {
		next := fmt.Sprintf("%s/api/v1/accounts/%s/following?limit=%d&offset=%d",
			m.server.URL, accountID, limit, end)
		prev := fmt.Sprintf("%s/api/v1/accounts/%s/following?limit=%d",
			m.server.URL, accountID, limit)
		w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next", <%s>; rel="prev"`, next, prev))
	}

	w.Header().Set("Content-Type", "application/json")
	if page == nil {
		page = []mastodon.Account{}
	}
	json.NewEncoder(w).Encode(page)
}

// Package testutil provides a configurable mock Riot API server and a
// transport that redirects Riot hostnames to it.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior of one mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockRiot is a configurable mock Riot API server. It records every request
// so tests can assert on ordering, credentials used, and URL identity across
// retries.
type MockRiot struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	requestCount int
	requestURLs  []string
	keysUsed     []string
}

// NewMockRiot creates a mock Riot API server.
func NewMockRiot() *MockRiot {
	mock := &MockRiot{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.requestURLs = append(mock.requestURLs, r.URL.RequestURI())
		mock.keysUsed = append(mock.keysUsed, r.Header.Get("X-Riot-Token"))
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockRiot) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockRiot) Close() {
	m.server.Close()
}

// Reset clears recorded requests.
func (m *MockRiot) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.requestURLs = nil
	m.keysUsed = nil
}

// SetHandler installs a custom handler for a path.
func (m *MockRiot) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockRiot) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetResponseSequence makes a path answer with each response in order; the
// last one repeats. Used to script 429-then-200 retry chains.
func (m *MockRiot) SetResponseSequence(path string, responses []MockResponse) {
	var mu sync.Mutex
	idx := 0
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resp := responses[idx]
		if idx < len(responses)-1 {
			idx++
		}
		mu.Unlock()

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns the number of requests received.
func (m *MockRiot) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// RequestURLs returns the request URIs in arrival order.
func (m *MockRiot) RequestURLs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	urls := make([]string, len(m.requestURLs))
	copy(urls, m.requestURLs)
	return urls
}

// KeysUsed returns the X-Riot-Token values in arrival order.
func (m *MockRiot) KeysUsed() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, len(m.keysUsed))
	copy(keys, m.keysUsed)
	return keys
}

// RedirectTransport rewrites Riot API and Data Dragon hostnames to the mock
// server so clients can keep resolving real hosts in tests.
type RedirectTransport struct {
	Mock *MockRiot
}

// RoundTrip implements http.RoundTripper.
func (t *RedirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	host := req.URL.Host
	if strings.HasSuffix(host, ".api.riotgames.com") || strings.Contains(host, "ddragon") {
		mockURL, err := url.Parse(t.Mock.URL())
		if err != nil {
			return nil, err
		}
		req.URL.Scheme = mockURL.Scheme
		req.URL.Host = mockURL.Host
	}
	return http.DefaultTransport.RoundTrip(req)
}

// RateLimitedResponse builds a 429 with the given Retry-After seconds.
func RateLimitedResponse(retryAfter string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"status": {"message": "Rate limit exceeded", "status_code": 429}}`,
		Headers: map[string]string{
			"Retry-After":  retryAfter,
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// OKResponse builds a 200 with the given JSON body.
func OKResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

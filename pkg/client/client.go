// Package client implements the outbound request pipeline to the Riot API:
// rate-limited, key-rotated HTTP calls with typed error classification and a
// synchronous rotate-on-429 protocol.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/OneStepAt4time/lolstonks-api-gateway-sub000/pkg/keypool"
	"github.com/OneStepAt4time/lolstonks-api-gateway-sub000/pkg/ratelimit"
	"github.com/OneStepAt4time/lolstonks-api-gateway-sub000/pkg/regions"
)

// credentialHeader carries the API key on every upstream request.
const credentialHeader = "X-Riot-Token"

// defaultRetryAfter applies when a 429 response omits the Retry-After header.
const defaultRetryAfter = 1 * time.Second

// Prometheus metrics for upstream requests.
var (
	riotRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riot_requests_total",
		Help: "Total upstream requests by method and status",
	}, []string{"method", "status"})

	riotRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "riot_request_duration_seconds",
		Help:    "Upstream request duration in seconds by method",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method"})

	riotErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riot_errors_total",
		Help: "Total upstream errors by kind",
	}, []string{"kind"})

	riotKeyRotationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riot_key_rotations_total",
		Help: "Total times a 429 caused rotation to the next API key",
	})

	riotKeyExhaustionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riot_key_exhaustions_total",
		Help: "Total times every API key was throttled for one request",
	})
)

// Config holds the client configuration. All values are read once at
// construction.
type Config struct {
	// Keys is the API key rotation set. Must be non-empty.
	Keys []string

	// Limiter gates every attempt, including 429 retries.
	Limiter *ratelimit.Limiter

	// Timeout bounds each HTTP call. Defaults to 10 seconds.
	Timeout time.Duration
}

// Client executes rate-limited, key-rotated calls against the Riot API.
type Client struct {
	httpClient *http.Client
	keys       *keypool.Rotator
	limiter    *ratelimit.Limiter
	logger     zerolog.Logger
}

// New creates a client. Fails when the key set is empty or no limiter is
// supplied, so misconfiguration surfaces at startup rather than per request.
func New(cfg Config) (*Client, error) {
	keys, err := keypool.New(cfg.Keys)
	if err != nil {
		return nil, err
	}
	if cfg.Limiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		keys:       keys,
		limiter:    cfg.Limiter,
		logger:     log.With().Str("component", "riot-client").Logger(),
	}, nil
}

// Get performs a GET request against a region-resolved endpoint.
// wantsRoutingRegion selects the routing-region host family (match-v5 etc.)
// over the direct platform host.
func (c *Client) Get(ctx context.Context, region, path string, wantsRoutingRegion bool) (json.RawMessage, error) {
	return c.call(ctx, http.MethodGet, region, path, wantsRoutingRegion, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, region, path string, wantsRoutingRegion bool, body any) (json.RawMessage, error) {
	return c.call(ctx, http.MethodPost, region, path, wantsRoutingRegion, body)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, region, path string, wantsRoutingRegion bool, body any) (json.RawMessage, error) {
	return c.call(ctx, http.MethodPut, region, path, wantsRoutingRegion, body)
}

// GetURL performs a GET against an absolute URL, skipping region resolution.
// Used for static-asset hosts like Data Dragon that sit outside the regional
// host families but still go through the rate-limit and key pipeline.
func (c *Client) GetURL(ctx context.Context, url string) (json.RawMessage, error) {
	return c.execute(ctx, http.MethodGet, url, nil)
}

// call resolves the region once, so the URL is byte-identical across every
// attempt of the retry chain, then runs the shared pipeline.
func (c *Client) call(ctx context.Context, method, region, path string, wantsRoutingRegion bool, body any) (json.RawMessage, error) {
	baseURL, err := regions.BaseURL(region, wantsRoutingRegion)
	if err != nil {
		riotErrorsTotal.WithLabelValues(string(KindUnsupportedRegion)).Inc()
		return nil, &Error{Kind: KindUnsupportedRegion, StatusCode: http.StatusBadRequest, Message: err.Error(), Err: err}
	}
	return c.execute(ctx, method, baseURL+path, body)
}

// execute is the core state machine: for each attempt, acquire rate-limit
// admission, take the next key, issue the request, classify the status. A 429
// rotates to the next key immediately with no sleep; only once every key has
// been throttled does the call fail with a rate_limited error carrying the
// upstream Retry-After.
func (c *Client) execute(ctx context.Context, method, url string, body any) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindBadRequest, StatusCode: http.StatusBadRequest, Message: fmt.Sprintf("encode request body: %v", err), Err: err}
		}
	}

	start := time.Now()
	defer func() {
		riotRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	attempts := c.keys.Count()
	for attempt := 0; attempt < attempts; attempt++ {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, Classify(err)
		}
		key := c.keys.Next()

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return nil, Classify(err)
		}
		req.Header.Set(credentialHeader, key)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error().Err(err).Str("method", method).Str("url", url).Msg("Upstream request failed")
			riotErrorsTotal.WithLabelValues(string(KindUpstreamServer)).Inc()
			riotRequestsTotal.WithLabelValues(method, "network_error").Inc()
			return nil, Classify(err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			riotErrorsTotal.WithLabelValues(string(KindUpstreamServer)).Inc()
			return nil, Classify(fmt.Errorf("read upstream response: %w", readErr))
		}

		riotRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return json.RawMessage(respBody), nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := parseRetryAfter(resp.Header)
			if attempt+1 < attempts {
				// Exhaust every key before ever waiting.
				riotKeyRotationsTotal.Inc()
				c.logger.Debug().
					Str("method", method).
					Str("key", keypool.Mask(key)).
					Int("attempt", attempt+1).
					Msg("Upstream throttled key, rotating to next")
				continue
			}

			riotKeyExhaustionsTotal.Inc()
			riotErrorsTotal.WithLabelValues(string(KindRateLimited)).Inc()
			c.logger.Warn().
				Str("method", method).
				Str("url", url).
				Dur("retry_after", retryAfter).
				Int("keys_tried", attempts).
				Msg("All API keys throttled")
			return nil, &Error{
				Kind:       KindRateLimited,
				StatusCode: http.StatusTooManyRequests,
				Message:    fmt.Sprintf("rate limit exceeded on all %d keys", attempts),
				RetryAfter: retryAfter,
			}
		}

		apiErr := classifyStatus(resp.StatusCode, respBody, url)
		riotErrorsTotal.WithLabelValues(string(apiErr.Kind)).Inc()
		c.logger.Warn().
			Str("method", method).
			Str("url", url).
			Int("status", resp.StatusCode).
			Str("kind", string(apiErr.Kind)).
			Msg("Upstream request error")
		return nil, apiErr
	}

	// Unreachable: keypool guarantees at least one key, so the loop always
	// returns from inside.
	return nil, &Error{Kind: KindUpstreamServer, StatusCode: http.StatusInternalServerError, Message: "no request attempt was made"}
}

// parseRetryAfter reads the Retry-After header as integer seconds, falling
// back to the default when absent or malformed.
func parseRetryAfter(h http.Header) time.Duration {
	raw := h.Get("Retry-After")
	if raw == "" {
		return defaultRetryAfter
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// KeyCount returns the size of the key rotation.
func (c *Client) KeyCount() int {
	return c.keys.Count()
}

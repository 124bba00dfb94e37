// Package ratelimit enforces the Riot API application rate limits on the
// client side with two token buckets: a short window (burst protection) and a
// long window (sustained budget). A request proceeds only once both buckets
// admit it. The limits are advisory and per process; the authoritative limit
// lives upstream and is handled by the client's 429 protocol.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Prometheus metrics for rate limit gating.
var (
	rateLimitAcquiresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riot_rate_limit_acquires_total",
		Help: "Total number of rate limit tokens acquired",
	})

	rateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "riot_rate_limit_wait_seconds",
		Help:    "Time spent waiting for rate limit admission",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
	})
)

// Config holds the two bucket definitions. Capacity equals the configured
// count: a full window of inactivity gives the whole budget back, with no
// separate burst parameter.
type Config struct {
	// ShortLimit requests per ShortPeriod (e.g. 20 per second).
	ShortLimit  int
	ShortPeriod time.Duration

	// LongLimit requests per LongPeriod (e.g. 100 per 2 minutes).
	LongLimit  int
	LongPeriod time.Duration
}

// DefaultConfig matches the Riot development key limits.
func DefaultConfig() Config {
	return Config{
		ShortLimit:  20,
		ShortPeriod: 1 * time.Second,
		LongLimit:   100,
		LongPeriod:  120 * time.Second,
	}
}

// Validate checks that both buckets are well-formed.
func (c Config) Validate() error {
	if c.ShortLimit <= 0 || c.ShortPeriod <= 0 {
		return fmt.Errorf("short bucket must have positive limit and period (got %d per %v)", c.ShortLimit, c.ShortPeriod)
	}
	if c.LongLimit <= 0 || c.LongPeriod <= 0 {
		return fmt.Errorf("long bucket must have positive limit and period (got %d per %v)", c.LongLimit, c.LongPeriod)
	}
	return nil
}

// Limiter gates outbound requests behind both buckets.
type Limiter struct {
	short  *rate.Limiter
	long   *rate.Limiter
	logger zerolog.Logger
}

// New creates a limiter from cfg. The refill rate of each bucket is
// limit/period, so steady-state throughput matches the configured rate
// exactly.
func New(cfg Config, logger zerolog.Logger) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Limiter{
		short:  rate.NewLimiter(rate.Every(cfg.ShortPeriod/time.Duration(cfg.ShortLimit)), cfg.ShortLimit),
		long:   rate.NewLimiter(rate.Every(cfg.LongPeriod/time.Duration(cfg.LongLimit)), cfg.LongLimit),
		logger: logger,
	}, nil
}

// Acquire blocks until both buckets admit one request, or until ctx is
// cancelled. Holding the short-bucket token while waiting on the long bucket
// is fine: the short token is already spent and refills on its own schedule.
func (l *Limiter) Acquire(ctx context.Context) error {
	start := time.Now()

	if err := l.short.Wait(ctx); err != nil {
		return fmt.Errorf("short window admission: %w", err)
	}
	if err := l.long.Wait(ctx); err != nil {
		return fmt.Errorf("long window admission: %w", err)
	}

	waited := time.Since(start)
	rateLimitAcquiresTotal.Inc()
	rateLimitWaitSeconds.Observe(waited.Seconds())

	if waited > time.Second {
		l.logger.Debug().
			Dur("waited", waited).
			Msg("Request delayed by client-side rate limit")
	}
	return nil
}

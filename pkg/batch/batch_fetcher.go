// Package batch provides parallel fetching of many match documents behind a
// match-ID list. Concurrency here only queues work; the client's rate limiter
// still paces every upstream call.
package batch

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds batch fetcher settings.
type Config struct {
	// MaxConcurrency is the maximum number of in-flight document fetches.
	MaxConcurrency int

	// Timeout bounds each single document fetch.
	Timeout time.Duration
}

// DefaultConfig returns settings sized to the default rate limits: more
// workers than 20/s of budget just queue on the limiter.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 5,
		Timeout:        15 * time.Second,
	}
}

// DocumentFetcher fetches one document by identifier. Implemented by the
// gateway's match call-site (orchestrator + client).
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, id string) (json.RawMessage, error)
}

// Result is the outcome of one document fetch.
type Result struct {
	ID   string
	Data json.RawMessage
	Err  error
}

// Fetcher fans a list of identifiers out over a worker pool.
type Fetcher struct {
	fetcher DocumentFetcher
	config  Config
}

// NewFetcher creates a batch fetcher.
func NewFetcher(fetcher DocumentFetcher, config Config) *Fetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = DefaultConfig().MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Fetcher{fetcher: fetcher, config: config}
}

// FetchAll fetches every id and returns the documents that succeeded plus
// the per-id results. Individual failures do not abort the batch; the caller
// decides what a partial result is worth.
func (f *Fetcher) FetchAll(ctx context.Context, ids []string) (map[string]json.RawMessage, []Result) {
	if len(ids) == 0 {
		return map[string]json.RawMessage{}, nil
	}

	start := time.Now()
	queue := make(chan string)
	results := make(chan Result, len(ids))

	var wg sync.WaitGroup
	workers := f.config.MaxConcurrency
	if workers > len(ids) {
		workers = len(ids)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go f.worker(ctx, queue, results, &wg)
	}

	go func() {
		defer close(queue)
		for _, id := range ids {
			select {
			case queue <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	docs := make(map[string]json.RawMessage, len(ids))
	var all []Result
	failed := 0
	for res := range results {
		all = append(all, res)
		if res.Err != nil {
			failed++
			log.Warn().Err(res.Err).Str("id", res.ID).Msg("Document fetch failed")
			continue
		}
		docs[res.ID] = res.Data
	}

	log.Info().
		Int("requested", len(ids)).
		Int("fetched", len(docs)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Batch fetch complete")

	return docs, all
}

// worker drains the queue until it closes or the context ends.
func (f *Fetcher) worker(ctx context.Context, queue <-chan string, results chan<- Result, wg *sync.WaitGroup) {
	defer wg.Done()

	for id := range queue {
		select {
		case <-ctx.Done():
			results <- Result{ID: id, Err: ctx.Err()}
			continue
		default:
		}

		fetchCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
		data, err := f.fetcher.FetchDocument(fetchCtx, id)
		cancel()

		results <- Result{ID: id, Data: data, Err: err}
	}
}

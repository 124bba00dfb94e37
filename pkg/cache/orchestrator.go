package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/OneStepAt4time/lolstonks-api-gateway-sub000/pkg/client"
)

// FetchFunc produces the document on a cache miss, typically by calling the
// upstream client.
type FetchFunc func(ctx context.Context) (json.RawMessage, error)

// Orchestrator implements the cache-aside pattern over a Store, with a
// dual-layer variant that consults the processed Ledger for immutable
// resources.
type Orchestrator struct {
	store  Store
	ledger Ledger
	logger zerolog.Logger
}

// NewOrchestrator creates an orchestrator. The ledger may be nil if
// FetchImmutable is never used.
func NewOrchestrator(store Store, ledger Ledger) *Orchestrator {
	if store == nil {
		panic("store cannot be nil")
	}
	return &Orchestrator{
		store:  store,
		ledger: ledger,
		logger: log.With().Str("component", "cache-orchestrator").Logger(),
	}
}

// Fetch returns the cached document for key, or calls fn and caches its
// result for ttl. With force=true the cache read is skipped and the entry is
// overwritten. Errors from fn are never cached and always surface as a typed
// client error. A degraded store is not fatal: read and write failures fall
// through to the upstream fetch.
func (o *Orchestrator) Fetch(ctx context.Context, key string, ttl time.Duration, force bool, fn FetchFunc) (json.RawMessage, error) {
	if !force {
		doc, err := o.store.Get(ctx, key)
		if err == nil {
			o.logger.Debug().Str("key", key).Msg("Cache hit")
			return doc, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			o.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed, fetching through")
		}
	}

	fetchThroughTotal.Inc()
	doc, err := fn(ctx)
	if err != nil {
		return nil, client.Classify(err)
	}

	if err := o.store.Set(ctx, key, doc, ttl); err != nil {
		// A failed write only costs a future cache miss.
		o.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	} else {
		o.logger.Debug().Str("key", key).Dur("ttl", ttl).Msg("Cached document")
	}
	return doc, nil
}

// FetchImmutable is the dual-layer variant for resources that never change
// upstream (match documents). Until the ledger records the id as processed,
// the cache-hit path is bypassed so the first retrieval always comes from the
// upstream, even if an entry already sits under the key. The id is marked
// processed only after a successful fetch; a crash between the cache write
// and the ledger write just causes one extra re-fetch later.
func (o *Orchestrator) FetchImmutable(ctx context.Context, key, partition, id string, ttl time.Duration, force bool, fn FetchFunc) (json.RawMessage, error) {
	processed, err := o.ledger.Contains(ctx, partition, id)
	if err != nil {
		// Unknown ledger state reads as "never fetched": re-fetching an
		// immutable resource is always safe.
		o.logger.Warn().Err(err).Str("partition", partition).Str("id", id).Msg("Ledger read failed")
		processed = false
	}

	doc, err := o.Fetch(ctx, key, ttl, force || !processed, fn)
	if err != nil {
		return nil, err
	}

	if !processed {
		if err := o.ledger.Add(ctx, partition, id); err != nil {
			o.logger.Warn().Err(err).Str("partition", partition).Str("id", id).Msg("Ledger write failed")
		}
	}
	return doc, nil
}

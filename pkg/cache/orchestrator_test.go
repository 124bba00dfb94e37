package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/OneStepAt4time/lolstonks-api-gateway-sub000/pkg/client"
)

// memStore is an in-memory Store for orchestrator tests.
type memStore struct {
	data    map[string]json.RawMessage
	getErr  error
	setErr  error
	setKeys []string
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]json.RawMessage)}
}

func (s *memStore) Get(_ context.Context, key string) (json.RawMessage, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	doc, ok := s.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return doc, nil
}

func (s *memStore) Set(_ context.Context, key string, value json.RawMessage, _ time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	s.setKeys = append(s.setKeys, key)
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	delete(s.data, key)
	return nil
}

// memLedger is an in-memory Ledger for orchestrator tests.
type memLedger struct {
	members map[string]bool
	addErr  error
}

func newMemLedger() *memLedger {
	return &memLedger{members: make(map[string]bool)}
}

func (l *memLedger) Contains(_ context.Context, partition, id string) (bool, error) {
	return l.members[partition+"/"+id], nil
}

func (l *memLedger) Add(_ context.Context, partition, id string) error {
	if l.addErr != nil {
		return l.addErr
	}
	l.members[partition+"/"+id] = true
	return nil
}

// countingFetch returns a FetchFunc that counts invocations.
func countingFetch(doc string, calls *int) FetchFunc {
	return func(context.Context) (json.RawMessage, error) {
		*calls++
		return json.RawMessage(doc), nil
	}
}

func TestFetch_CacheAsideIdempotence(t *testing.T) {
	store := newMemStore()
	o := NewOrchestrator(store, newMemLedger())
	ctx := context.Background()

	calls := 0
	fn := countingFetch(`{"v": 1}`, &calls)

	for i := 0; i < 2; i++ {
		doc, err := o.Fetch(ctx, "summoner:na1:Faker", time.Minute, false, fn)
		if err != nil {
			t.Fatalf("Fetch() call %d error: %v", i, err)
		}
		if string(doc) != `{"v": 1}` {
			t.Errorf("Fetch() call %d = %s", i, doc)
		}
	}

	if calls != 1 {
		t.Errorf("fetch function called %d times, want 1 (second call must hit cache)", calls)
	}
}

func TestFetch_ForceRefreshBypassesCache(t *testing.T) {
	store := newMemStore()
	o := NewOrchestrator(store, newMemLedger())
	ctx := context.Background()

	store.data["summoner:na1:Faker"] = json.RawMessage(`{"stale": true}`)

	calls := 0
	doc, err := o.Fetch(ctx, "summoner:na1:Faker", time.Minute, true, countingFetch(`{"fresh": true}`, &calls))
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("fetch function called %d times, want 1 despite populated cache", calls)
	}
	if string(doc) != `{"fresh": true}` {
		t.Errorf("Fetch() = %s, want fresh document", doc)
	}
	if string(store.data["summoner:na1:Faker"]) != `{"fresh": true}` {
		t.Errorf("cache entry not overwritten: %s", store.data["summoner:na1:Faker"])
	}
}

func TestFetch_ErrorNeverCached(t *testing.T) {
	store := newMemStore()
	o := NewOrchestrator(store, newMemLedger())
	ctx := context.Background()

	wantErr := &client.Error{Kind: client.KindNotFound, StatusCode: 404, Message: "match not found"}
	_, err := o.Fetch(ctx, "match:americas:NA1_1", time.Minute, false, func(context.Context) (json.RawMessage, error) {
		return nil, wantErr
	})

	var apiErr *client.Error
	if !errors.As(err, &apiErr) || apiErr.Kind != client.KindNotFound {
		t.Fatalf("Fetch() error = %v, want the typed not_found error", err)
	}
	if len(store.setKeys) != 0 {
		t.Errorf("failed fetch populated the cache: %v", store.setKeys)
	}
}

func TestFetch_ForeignErrorClassified(t *testing.T) {
	o := NewOrchestrator(newMemStore(), newMemLedger())

	_, err := o.Fetch(context.Background(), "k", time.Minute, false, func(context.Context) (json.RawMessage, error) {
		return nil, errors.New("dial tcp: connection refused")
	})

	var apiErr *client.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("Fetch() error = %v, want a classified *client.Error", err)
	}
	if apiErr.Kind != client.KindUpstreamServer {
		t.Errorf("Kind = %s, want upstream_server for foreign errors", apiErr.Kind)
	}
}

func TestFetch_DegradedStoreFallsThrough(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("redis down")
	store.setErr = errors.New("redis down")
	o := NewOrchestrator(store, newMemLedger())

	calls := 0
	doc, err := o.Fetch(context.Background(), "k", time.Minute, false, countingFetch(`{}`, &calls))
	if err != nil {
		t.Fatalf("Fetch() with degraded store error: %v", err)
	}
	if calls != 1 || string(doc) != `{}` {
		t.Errorf("degraded store did not fall through to fetch (calls=%d, doc=%s)", calls, doc)
	}
}

func TestFetchImmutable_FirstFetchBypassesCacheHit(t *testing.T) {
	store := newMemStore()
	ledger := newMemLedger()
	o := NewOrchestrator(store, ledger)
	ctx := context.Background()

	// An entry already sits under the key, but the ledger has never seen the
	// id: the fetch must still go through.
	key := "match:americas:NA1_42"
	store.data[key] = json.RawMessage(`{"partial": true}`)

	calls := 0
	doc, err := o.FetchImmutable(ctx, key, "americas", "NA1_42", time.Hour, false, countingFetch(`{"complete": true}`, &calls))
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("first retrieval invoked fetch %d times, want 1", calls)
	}
	if string(doc) != `{"complete": true}` {
		t.Errorf("FetchImmutable() = %s, want the upstream document", doc)
	}

	processed, _ := ledger.Contains(ctx, "americas", "NA1_42")
	if !processed {
		t.Error("successful fetch did not mark the id processed")
	}

	// Subsequent calls trust the cache and skip the fetch.
	_, err = o.FetchImmutable(ctx, key, "americas", "NA1_42", time.Hour, false, countingFetch(`{"again": true}`, &calls))
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("processed id invoked fetch again (%d calls)", calls)
	}
}

func TestFetchImmutable_FailedFetchNotMarkedProcessed(t *testing.T) {
	ledger := newMemLedger()
	o := NewOrchestrator(newMemStore(), ledger)
	ctx := context.Background()

	_, err := o.FetchImmutable(ctx, "match:asia:KR_7", "asia", "KR_7", time.Hour, false, func(context.Context) (json.RawMessage, error) {
		return nil, &client.Error{Kind: client.KindRateLimited, StatusCode: 429}
	})
	if err == nil {
		t.Fatal("FetchImmutable() error = nil, want rate_limited")
	}

	if processed, _ := ledger.Contains(ctx, "asia", "KR_7"); processed {
		t.Error("failed fetch marked the id processed")
	}
}

func TestFetchImmutable_ProcessedUsesPlainPath(t *testing.T) {
	store := newMemStore()
	ledger := newMemLedger()
	o := NewOrchestrator(store, ledger)
	ctx := context.Background()

	ledger.members["europe/EUW1_9"] = true
	store.data["match:europe:EUW1_9"] = json.RawMessage(`{"cached": true}`)

	calls := 0
	doc, err := o.FetchImmutable(ctx, "match:europe:EUW1_9", "europe", "EUW1_9", time.Hour, false, countingFetch(`{}`, &calls))
	if err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("processed id with warm cache invoked fetch %d times, want 0", calls)
	}
	if string(doc) != `{"cached": true}` {
		t.Errorf("FetchImmutable() = %s, want cached document", doc)
	}
}

func TestFetchImmutable_ForceStillMarksProcessed(t *testing.T) {
	ledger := newMemLedger()
	o := NewOrchestrator(newMemStore(), ledger)
	ctx := context.Background()

	calls := 0
	if _, err := o.FetchImmutable(ctx, "match:sea:OC1_3", "sea", "OC1_3", time.Hour, true, countingFetch(`{}`, &calls)); err != nil {
		t.Fatal(err)
	}
	if processed, _ := ledger.Contains(ctx, "sea", "OC1_3"); !processed {
		t.Error("forced first fetch did not mark processed")
	}
}

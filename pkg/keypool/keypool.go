// Package keypool hands out Riot API keys in round-robin order so that
// concurrent requests spread load across every configured credential.
package keypool

import (
	"errors"
	"sync"
)

// ErrNoCredentials is returned when a rotator is constructed with an empty
// key set. This is a startup failure, not a runtime condition.
var ErrNoCredentials = errors.New("keypool: credential set is empty")

// Rotator cycles through a fixed set of API keys. The key set is immutable
// after construction; only the cursor moves.
type Rotator struct {
	mu     sync.Mutex
	keys   []string
	cursor int
}

// New creates a rotator over the given keys. The slice is copied so later
// mutation by the caller cannot change the rotation.
func New(keys []string) (*Rotator, error) {
	if len(keys) == 0 {
		return nil, ErrNoCredentials
	}
	owned := make([]string, len(keys))
	copy(owned, keys)
	return &Rotator{keys: owned}, nil
}

// Next returns the next key in rotation. Safe for concurrent use; exactly
// one caller advances the cursor per call.
func (r *Rotator) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.keys[r.cursor]
	r.cursor = (r.cursor + 1) % len(r.keys)
	return key
}

// Count returns the number of keys in the rotation.
func (r *Rotator) Count() int {
	return len(r.keys)
}

// Reset rewinds the cursor to the first key. Intended for tests that need a
// deterministic starting point.
func (r *Rotator) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursor = 0
}

// Mask returns a log-safe form of an API key: a short prefix followed by an
// ellipsis. Full keys must never reach the logs.
func Mask(key string) string {
	const visible = 8
	if len(key) <= visible {
		return key
	}
	return key[:visible] + "..."
}

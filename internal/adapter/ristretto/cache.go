// Package ristretto implements delivery deduplication using an in-process
// TTL cache. GitHub redeliveries reuse the X-GitHub-Delivery id; marking
// seen ids lets the handler acknowledge duplicates without re-notifying.
package ristretto

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// DedupCache remembers recently processed delivery ids.
type DedupCache struct {
	c   *ristretto.Cache[string, struct{}]
	ttl time.Duration
}

// NewDedup creates a dedup cache. maxCostBytes bounds the total size of
// tracked ids; entries expire after ttl.
func NewDedup(maxCostBytes int64, ttl time.Duration) (*DedupCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, struct{}]{
		NumCounters: maxCostBytes / 100 * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &DedupCache{c: c, ttl: ttl}, nil
}

// Seen marks id as processed and reports whether it had already been seen
// within the TTL window. An empty id is never deduplicated.
func (d *DedupCache) Seen(id string) bool {
	if id == "" {
		return false
	}
	if _, found := d.c.Get(id); found {
		return true
	}
	d.c.SetWithTTL(id, struct{}{}, int64(len(id)), d.ttl)
	return false
}

// Wait blocks until buffered writes have been applied. Ristretto applies
// sets asynchronously; back-to-back duplicates inside that window are not
// caught, which is fine for redeliveries but matters in tests.
func (d *DedupCache) Wait() {
	d.c.Wait()
}

// Close shuts down the cache and releases resources.
func (d *DedupCache) Close() {
	d.c.Close()
}

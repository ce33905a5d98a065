// Package htmlcache persists fetched marketplace pages keyed by request
// URL, so repeated searches inside the TTL window skip the network and
// the scraping backend's per-page cost.
package htmlcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the url -> html store shared by all platform services.
type Cache interface {
	// GetHTML returns the cached page for the exact request URL, or ""
	// on a miss. Expired entries are treated as misses.
	GetHTML(ctx context.Context, url string) (string, error)
	// SetHTML stores a page under the exact request URL with the given TTL.
	SetHTML(ctx context.Context, url string, html string, ttl time.Duration) error
	// DeleteExpired removes entries past their TTL and returns the count.
	DeleteExpired(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// urlKey hashes the request URL into a fixed-width lookup key. Search URLs
// carry long query strings, so the index stores the digest instead.
func urlKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

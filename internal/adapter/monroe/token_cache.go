package monroe

import (
	"context"
	"sync"
	"time"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
)

// MemoryTokenCache is the process-local token cache. Entries are replaced on
// login and dropped by Sweep once expired.
type MemoryTokenCache struct {
	mu      sync.RWMutex
	entries map[string]domain.TokenCacheEntry
}

// NewMemoryTokenCache creates an empty cache
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{entries: make(map[string]domain.TokenCacheEntry)}
}

// Get returns the entry for accountKey, or nil when absent
func (c *MemoryTokenCache) Get(_ context.Context, accountKey string) (*domain.TokenCacheEntry, error) {
	c.mu.RLock()
	entry, ok := c.entries[accountKey]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// Set stores entry, overwriting any previous token for the account
func (c *MemoryTokenCache) Set(_ context.Context, entry domain.TokenCacheEntry) error {
	c.mu.Lock()
	c.entries[entry.AccountKey] = entry
	c.mu.Unlock()
	return nil
}

// Sweep removes entries that are stale at now and returns how many were dropped
func (c *MemoryTokenCache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if entry.IsStale(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached entries
func (c *MemoryTokenCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

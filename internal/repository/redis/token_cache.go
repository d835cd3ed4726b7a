package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
)

type tokenCache struct {
	client   *redis.Client
	supplier string
	now      func() time.Time
}

// NewTokenCache shares supplier tokens between processes. Entries expire
// in Redis together with the token.
func NewTokenCache(client *redis.Client, supplier string) domain.TokenCache {
	return &tokenCache{client: client, supplier: supplier, now: time.Now}
}

func (c *tokenCache) key(accountKey string) string {
	return TokenKeyPrefix + c.supplier + ":" + accountKey
}

// Get returns nil without error on a miss
func (c *tokenCache) Get(ctx context.Context, accountKey string) (*domain.TokenCacheEntry, error) {
	data, err := c.client.Get(ctx, c.key(accountKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	var entry domain.TokenCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &entry, nil
}

// Set overwrites the entry of its account
func (c *tokenCache) Set(ctx context.Context, entry domain.TokenCacheEntry) error {
	ttl := entry.ExpiresAt.Sub(c.now())
	if ttl <= 0 {
		return c.client.Del(ctx, c.key(entry.AccountKey)).Err()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := c.client.Set(ctx, c.key(entry.AccountKey), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set token: %w", err)
	}
	return nil
}

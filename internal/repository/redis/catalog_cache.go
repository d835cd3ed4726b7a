package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
)

// cachedProduct keeps the internal id, which domain.Product hides from JSON
type cachedProduct struct {
	Barcode     string `json:"codigo_barras"`
	Description string `json:"descripcion"`
	InternalID  string `json:"id_producto"`
}

type catalogCache struct {
	client *redis.Client
	next   domain.CatalogLookup
	ttl    time.Duration
}

// NewCatalogCache puts a read-through Redis cache in front of the product
// catalog. Misses are not cached and Redis failures fall back to next.
func NewCatalogCache(client *redis.Client, next domain.CatalogLookup, ttl time.Duration) domain.CatalogLookup {
	if ttl <= 0 {
		ttl = ProductCacheTTL
	}
	return &catalogCache{client: client, next: next, ttl: ttl}
}

func productKey(barcode string) string {
	return ProductKeyPrefix + "code:" + barcode
}

func internalIDKey(barcode string) string {
	return ProductKeyPrefix + "id:" + barcode
}

// FindProduct resolves a barcode to its catalog product
func (c *catalogCache) FindProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	if cached, ok := c.getProduct(ctx, barcode); ok {
		return cached, nil
	}

	product, err := c.next.FindProduct(ctx, barcode)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(cachedProduct{
		Barcode:     product.Barcode,
		Description: product.Description,
		InternalID:  product.InternalID,
	})
	if err == nil {
		c.set(ctx, productKey(barcode), data)
	}
	return product, nil
}

// ResolveInternalID maps a barcode to the catalog product id
func (c *catalogCache) ResolveInternalID(ctx context.Context, barcode string) (string, error) {
	if cached, ok := c.getProduct(ctx, barcode); ok && cached.InternalID != "" {
		return cached.InternalID, nil
	}

	id, err := c.client.Get(ctx, internalIDKey(barcode)).Result()
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.Warn("Catalog cache unavailable", logger.String("codigo_barras", barcode), logger.ErrorField(err))
	}

	id, err = c.next.ResolveInternalID(ctx, barcode)
	if err != nil {
		return "", err
	}
	c.set(ctx, internalIDKey(barcode), []byte(id))
	return id, nil
}

func (c *catalogCache) getProduct(ctx context.Context, barcode string) (*domain.Product, bool) {
	data, err := c.client.Get(ctx, productKey(barcode)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("Catalog cache unavailable", logger.String("codigo_barras", barcode), logger.ErrorField(err))
		}
		return nil, false
	}

	var cached cachedProduct
	if err := json.Unmarshal(data, &cached); err != nil {
		logger.Warn("Discarding corrupt catalog cache entry", logger.String("codigo_barras", barcode), logger.ErrorField(err))
		return nil, false
	}
	return &domain.Product{
		Barcode:     cached.Barcode,
		Description: cached.Description,
		InternalID:  cached.InternalID,
	}, true
}

func (c *catalogCache) set(ctx context.Context, key string, value []byte) {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		logger.Warn("Failed to cache catalog entry", logger.String("key", key), logger.ErrorField(err))
	}
}

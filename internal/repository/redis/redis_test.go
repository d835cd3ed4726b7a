package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

func TestBasketAddIncrementsExistingBarcode(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewBasketRepository(client)
	ctx := context.Background()

	lines, err := repo.GetLines(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)

	_, err = repo.AddLine(ctx, "u1", domain.BasketLine{ProductCode: "A", Description: "IBUPROFENO", Quantity: 2})
	require.NoError(t, err)
	_, err = repo.AddLine(ctx, "u1", domain.BasketLine{ProductCode: "B", Quantity: 1})
	require.NoError(t, err)
	lines, err = repo.AddLine(ctx, "u1", domain.BasketLine{ProductCode: "A", Quantity: 3})
	require.NoError(t, err)

	require.Len(t, lines, 2)
	assert.Equal(t, domain.BasketLine{ProductCode: "A", Description: "IBUPROFENO", Quantity: 5}, lines[0])
	assert.Equal(t, "B", lines[1].ProductCode)

	stored, err := repo.GetLines(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, lines, stored)

	other, err := repo.GetLines(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestBasketRemoveAndClear(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewBasketRepository(client)
	ctx := context.Background()

	for _, code := range []string{"A", "B", "C"} {
		_, err := repo.AddLine(ctx, "u1", domain.BasketLine{ProductCode: code, Quantity: 1})
		require.NoError(t, err)
	}

	require.NoError(t, repo.RemoveLine(ctx, "u1", "B"))
	require.NoError(t, repo.RemoveLine(ctx, "u1", "missing"))

	lines, err := repo.GetLines(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "A", lines[0].ProductCode)
	assert.Equal(t, "C", lines[1].ProductCode)

	require.NoError(t, repo.Clear(ctx, "u1"))
	lines, err = repo.GetLines(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestBasketConcurrentAdds(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewBasketRepository(client)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.AddLine(ctx, "u1", domain.BasketLine{ProductCode: "A", Quantity: 1})
		}()
	}
	wg.Wait()

	lines, err := repo.GetLines(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.LessOrEqual(t, lines[0].Quantity, 3)
	assert.GreaterOrEqual(t, lines[0].Quantity, 1)
}

func TestBasketUnavailable(t *testing.T) {
	server, client := newTestClient(t)
	repo := NewBasketRepository(client)
	server.Close()

	_, err := repo.GetLines(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrBasketUnavailable)
}

func TestComparisonStoreRoundTrip(t *testing.T) {
	server, client := newTestClient(t)
	store := NewComparisonRepository(client, time.Minute)
	ctx := context.Background()

	table := &domain.ComparisonTable{
		ID:        "t-1",
		BranchID:  "25",
		Suppliers: domain.SupplierCodes,
		Rows: []domain.ComparisonRow{{
			Line: domain.BasketLine{ProductCode: "A", Quantity: 2},
			Quotes: map[string]domain.Quote{
				domain.SupplierMonroe: {
					Supplier:   domain.SupplierMonroe,
					InStock:    true,
					ListPrice:  decimal.NewNullDecimal(decimal.NewFromInt(100)),
					OfferPrice: decimal.NewNullDecimal(decimal.NewFromInt(90)),
					Offers:     []domain.OfferTier{},
				},
			},
			Selected:       domain.SupplierMonroe,
			EffectivePrice: decimal.NewNullDecimal(decimal.NewFromInt(90)),
		}},
	}
	require.NoError(t, store.Save(ctx, table))

	loaded, err := store.Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "25", loaded.BranchID)
	require.Len(t, loaded.Rows, 1)
	assert.Equal(t, domain.SupplierMonroe, loaded.Rows[0].Selected)
	assert.True(t, loaded.Rows[0].EffectivePrice.Decimal.Equal(decimal.NewFromInt(90)))

	server.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, "t-1")
	assert.ErrorIs(t, err, domain.ErrTableNotFound)
}

func TestDispatchGuardClaimsOnce(t *testing.T) {
	_, client := newTestClient(t)
	guard := NewDispatchGuard(client)
	ctx := context.Background()

	first, err := guard.Claim(ctx, "t-1")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := guard.Claim(ctx, "t-1")
	require.NoError(t, err)
	assert.False(t, second)

	other, err := guard.Claim(ctx, "t-2")
	require.NoError(t, err)
	assert.True(t, other)

	require.NoError(t, guard.Release(ctx, "t-1"))
	again, err := guard.Claim(ctx, "t-1")
	require.NoError(t, err)
	assert.True(t, again)
}

func TestTokenCache(t *testing.T) {
	server, client := newTestClient(t)
	cache := NewTokenCache(client, domain.SupplierMonroe)
	ctx := context.Background()

	entry, err := cache.Get(ctx, "7781")
	require.NoError(t, err)
	assert.Nil(t, entry)

	expires := time.Now().Add(4 * time.Minute).UTC().Truncate(time.Second)
	require.NoError(t, cache.Set(ctx, domain.TokenCacheEntry{AccountKey: "7781", Token: "tok-1", ExpiresAt: expires}))

	entry, err = cache.Get(ctx, "7781")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "tok-1", entry.Token)
	assert.True(t, entry.ExpiresAt.Equal(expires))
	assert.True(t, server.Exists("token:monroe:7781"))

	require.NoError(t, cache.Set(ctx, domain.TokenCacheEntry{AccountKey: "7781", Token: "old", ExpiresAt: time.Now().Add(-time.Second)}))
	entry, err = cache.Get(ctx, "7781")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

// countingCatalog counts lookups reaching the backing catalog
type countingCatalog struct {
	products map[string]domain.Product
	finds    int
	resolves int
}

func (c *countingCatalog) FindProduct(_ context.Context, barcode string) (*domain.Product, error) {
	c.finds++
	product, ok := c.products[barcode]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &product, nil
}

func (c *countingCatalog) ResolveInternalID(_ context.Context, barcode string) (string, error) {
	c.resolves++
	product, ok := c.products[barcode]
	if !ok {
		return "", domain.ErrProductNotFound
	}
	return product.InternalID, nil
}

func TestCatalogCacheReadThrough(t *testing.T) {
	server, client := newTestClient(t)
	backing := &countingCatalog{products: map[string]domain.Product{
		"7791234560012": {Barcode: "7791234560012", Description: "IBUPROFENO 400 MG x 20", InternalID: "48213"},
	}}
	catalog := NewCatalogCache(client, backing, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		product, err := catalog.FindProduct(ctx, "7791234560012")
		require.NoError(t, err)
		assert.Equal(t, "IBUPROFENO 400 MG x 20", product.Description)
		assert.Equal(t, "48213", product.InternalID)
	}
	assert.Equal(t, 1, backing.finds)

	id, err := catalog.ResolveInternalID(ctx, "7791234560012")
	require.NoError(t, err)
	assert.Equal(t, "48213", id)
	assert.Zero(t, backing.resolves)

	_, err = catalog.FindProduct(ctx, "7790000000001")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	_, err = catalog.FindProduct(ctx, "7790000000001")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Equal(t, 3, backing.finds)

	server.FastForward(2 * time.Minute)
	_, err = catalog.FindProduct(ctx, "7791234560012")
	require.NoError(t, err)
	assert.Equal(t, 4, backing.finds)
}

func TestCatalogCacheResolvesWithoutProductEntry(t *testing.T) {
	_, client := newTestClient(t)
	backing := &countingCatalog{products: map[string]domain.Product{
		"7791234560012": {InternalID: "48213"},
	}}
	catalog := NewCatalogCache(client, backing, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		id, err := catalog.ResolveInternalID(ctx, "7791234560012")
		require.NoError(t, err)
		assert.Equal(t, "48213", id)
	}
	assert.Equal(t, 1, backing.resolves)
}

func TestCatalogCacheFallsBackWhenRedisIsDown(t *testing.T) {
	server, client := newTestClient(t)
	backing := &countingCatalog{products: map[string]domain.Product{
		"7791234560012": {Description: "IBUPROFENO", InternalID: "48213"},
	}}
	catalog := NewCatalogCache(client, backing, time.Minute)
	server.Close()

	product, err := catalog.FindProduct(context.Background(), "7791234560012")
	require.NoError(t, err)
	assert.Equal(t, "IBUPROFENO", product.Description)

	id, err := catalog.ResolveInternalID(context.Background(), "7791234560012")
	require.NoError(t, err)
	assert.Equal(t, "48213", id)
}

package monroe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ComprasSanchez/pedidos-sucursales/config"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/adapter/adaptertest"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/adapter/guard"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
)

const barcode = "7791234560012"

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return data
}

type fakeMonroe struct {
	logins     int32
	stockCalls int32
	orderCalls int32
	lastToken  atomic.Value
	stockBody  []byte
	orderBody  []byte
	orderCode  int
	query      atomic.Value
	lastStock  atomic.Value
	lastOrder  atomic.Value
}

func (f *fakeMonroe) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(loginEndpoint, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&f.logins, 1)
		f.query.Store(r.URL.Query())
		if n%2 == 1 {
			_, _ = w.Write([]byte(`{"token":"tok-` + string(rune('0'+n)) + `"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok-` + string(rune('0'+n)) + `"}`))
	})
	mux.HandleFunc(stockEndpoint, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.stockCalls, 1)
		f.lastToken.Store(r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		f.lastStock.Store(raw)
		_, _ = w.Write(f.stockBody)
	})
	mux.HandleFunc(orderEndpoint, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.orderCalls, 1)
		f.lastToken.Store(r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		f.lastOrder.Store(raw)
		if f.orderCode != 0 {
			w.WriteHeader(f.orderCode)
		}
		_, _ = w.Write(f.orderBody)
	})
	return mux
}

func newTestAdapter(t *testing.T, fake *fakeMonroe, cache domain.TokenCache) *Adapter {
	t.Helper()
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	creds := adaptertest.NewCredentials().
		Put("25", domain.SupplierMonroe, domain.Credentials{SoftwareKey: "sk", CustomerKey: "ck", AccountCode: "C-900"}).
		Put("26", domain.SupplierMonroe, domain.Credentials{SoftwareKey: "sk", CustomerKey: "ck", AccountCode: "C-900"}).
		Put("27", domain.SupplierMonroe, domain.Credentials{SoftwareKey: "sk", CustomerKey: "ck"})

	cfg := config.MonroeConfig{
		EndpointConfig:    config.EndpointConfig{BaseURL: server.URL, TimeoutSeconds: 5},
		TokenDuration:     300 * time.Second,
		TokenSafetyMargin: 60 * time.Second,
	}
	return NewAdapter(cfg, nil, creds, cache)
}

func TestParseStockResponse(t *testing.T) {
	quote, err := ParseStockResponse(fixture(t, "stock_response.json"))
	require.NoError(t, err)

	assert.True(t, quote.InStock)
	assert.True(t, quote.ListPrice.Decimal.Equal(decimal.NewFromInt(100)))
	require.Len(t, quote.Offers, 2)
	assert.Equal(t, "10% min 1 unidades", quote.Offers[0].Label)
	assert.Equal(t, 4, quote.Offers[0].MaxUnits)
	assert.Equal(t, 5, quote.Offers[1].MinUnits)
	assert.Equal(t, 0, quote.Offers[1].MaxUnits)
	assert.True(t, quote.Offers[1].DiscountPercent.Equal(decimal.RequireFromString("25.5")))
}

func TestParseStockResponseInactiveState(t *testing.T) {
	quote, err := ParseStockResponse(fixture(t, "stock_unavailable.json"))
	require.NoError(t, err)
	assert.False(t, quote.InStock)
	assert.False(t, quote.ListPrice.Valid)
}

func TestParseStockResponseRejectsUnexpectedShapes(t *testing.T) {
	for _, body := range []string{`{}`, `{"arrayProductos":[]}`, `{"arrayProductos":{}}`, `oops`} {
		_, err := ParseStockResponse([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestParseLoginResponse(t *testing.T) {
	token, err := ParseLoginResponse([]byte(`{"access_token":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = ParseLoginResponse([]byte(`{"token":""}`))
	assert.Error(t, err)
}

func TestParseOrderResponse(t *testing.T) {
	result, err := ParseOrderResponse(fixture(t, "order_response.json"))
	require.NoError(t, err)
	assert.Equal(t, "5510023", result.OrderNumber)
	assert.Equal(t, "Pedido recibido", result.Confirmation)

	_, err = ParseOrderResponse([]byte(`{"errores":[{"mensaje":"producto discontinuado"}]}`))
	assert.Equal(t, domain.KindRemoteFault, domain.KindOf(err))

	_, err = ParseOrderResponse([]byte(`<html/>`))
	assert.Equal(t, domain.KindUnexpectedResponse, domain.KindOf(err))
}

func TestQuoteOfferWithinBracketWins(t *testing.T) {
	fake := &fakeMonroe{stockBody: fixture(t, "stock_response.json")}
	adapter := newTestAdapter(t, fake, nil)

	quote := guard.Wrap(adapter).Quote(context.Background(), domain.QuoteRequest{ProductCode: barcode, BranchID: "25", Quantity: 2})

	assert.True(t, quote.InStock)
	require.Len(t, quote.Offers, 1)
	assert.True(t, quote.OfferPrice.Decimal.Equal(decimal.NewFromInt(90)), quote.OfferPrice.Decimal.String())
	assert.Equal(t, "Bearer tok-1", fake.lastToken.Load())

	var sent stockRequest
	require.NoError(t, json.Unmarshal(fake.lastStock.Load().([]byte), &sent))
	require.Len(t, sent.Products, 1)
	assert.Equal(t, 1, sent.Products[0].Order)
	assert.Equal(t, "2", sent.Products[0].Units)
	assert.Equal(t, barcode, sent.Products[0].Codes.Barcode)
}

func TestQuoteExcludesTierAboveQuantity(t *testing.T) {
	fake := &fakeMonroe{stockBody: []byte(`{"arrayProductos":[{"Stock":{"estado":1},"Precio":{"lista":100},` +
		`"arrayOfertas":[{"Descuento":{"porcentaje":10},"Condicion_Compra":{"minimo_unids":5}}]}]}`)}
	adapter := newTestAdapter(t, fake, nil)

	quote := guard.Wrap(adapter).Quote(context.Background(), domain.QuoteRequest{ProductCode: barcode, BranchID: "25", Quantity: 3})

	assert.True(t, quote.InStock)
	assert.Empty(t, quote.Offers)
	assert.False(t, quote.OfferPrice.Valid)
	assert.True(t, quote.EffectivePrice().Decimal.Equal(decimal.NewFromInt(100)))
}

func TestLoginSendsCredentialsAndTokenDuration(t *testing.T) {
	fake := &fakeMonroe{stockBody: fixture(t, "stock_response.json")}
	adapter := newTestAdapter(t, fake, nil)

	_, err := adapter.FetchQuote(context.Background(), domain.QuoteRequest{ProductCode: barcode, BranchID: "25", Quantity: 1})
	require.NoError(t, err)

	query := fake.query.Load().(url.Values)
	assert.Equal(t, []string{"sk"}, query["software_key"])
	assert.Equal(t, []string{"300"}, query["token_duration"])
	assert.Equal(t, []string{"ck"}, query["ecommerce_customer_key"])
	assert.Equal(t, []string{"C-900"}, query["ecommerce_customer_reference"])
}

func TestTokenIsReusedAcrossBranchesOfOneAccount(t *testing.T) {
	fake := &fakeMonroe{stockBody: fixture(t, "stock_response.json")}
	cache := NewMemoryTokenCache()
	adapter := newTestAdapter(t, fake, cache)

	for _, branch := range []string{"25", "26", "25"} {
		_, err := adapter.FetchQuote(context.Background(), domain.QuoteRequest{ProductCode: barcode, BranchID: branch, Quantity: 1})
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.logins))
	assert.Equal(t, int32(3), atomic.LoadInt32(&fake.stockCalls))

	entry, err := cache.Get(context.Background(), "C-900")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "tok-1", entry.Token)
}

func TestTokenFallsBackToBranchKey(t *testing.T) {
	fake := &fakeMonroe{stockBody: fixture(t, "stock_response.json")}
	cache := NewMemoryTokenCache()
	adapter := newTestAdapter(t, fake, cache)

	_, err := adapter.FetchQuote(context.Background(), domain.QuoteRequest{ProductCode: barcode, BranchID: "27", Quantity: 1})
	require.NoError(t, err)

	entry, err := cache.Get(context.Background(), "branch:27")
	require.NoError(t, err)
	assert.NotNil(t, entry)
}

func TestExpiredTokenTriggersLoginAndOverwritesCache(t *testing.T) {
	fake := &fakeMonroe{stockBody: fixture(t, "stock_response.json")}
	cache := NewMemoryTokenCache()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, cache.Set(context.Background(), domain.TokenCacheEntry{
		AccountKey: "C-900",
		Token:      "stale-token",
		ExpiresAt:  now.Add(-time.Second),
	}))

	adapter := newTestAdapter(t, fake, cache)
	adapter.now = func() time.Time { return now }

	_, err := adapter.FetchQuote(context.Background(), domain.QuoteRequest{ProductCode: barcode, BranchID: "25", Quantity: 1})
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.logins))
	assert.Equal(t, "Bearer tok-1", fake.lastToken.Load())

	entry, err := cache.Get(context.Background(), "C-900")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", entry.Token)
	assert.Equal(t, now.Add(240*time.Second), entry.ExpiresAt)
}

func TestValidTokenSkipsLogin(t *testing.T) {
	fake := &fakeMonroe{stockBody: fixture(t, "stock_response.json")}
	cache := NewMemoryTokenCache()
	require.NoError(t, cache.Set(context.Background(), domain.TokenCacheEntry{
		AccountKey: "C-900",
		Token:      "cached",
		ExpiresAt:  time.Now().Add(time.Minute),
	}))
	adapter := newTestAdapter(t, fake, cache)

	_, err := adapter.FetchQuote(context.Background(), domain.QuoteRequest{ProductCode: barcode, BranchID: "25", Quantity: 1})
	require.NoError(t, err)

	assert.Zero(t, atomic.LoadInt32(&fake.logins))
	assert.Equal(t, "Bearer cached", fake.lastToken.Load())
}

func TestFailedOrderKeepsCachedToken(t *testing.T) {
	fake := &fakeMonroe{orderCode: http.StatusUnauthorized, orderBody: []byte(`{"error":"token rechazado"}`)}
	cache := NewMemoryTokenCache()
	require.NoError(t, cache.Set(context.Background(), domain.TokenCacheEntry{
		AccountKey: "C-900",
		Token:      "cached",
		ExpiresAt:  time.Now().Add(time.Minute),
	}))
	adapter := newTestAdapter(t, fake, cache)

	result := guard.Wrap(adapter).CreateOrder(context.Background(), domain.OrderRequest{
		BranchID: "25",
		Lines:    []domain.OrderLine{{ProductCode: barcode, Description: "IBUPROFENO", Quantity: 2}},
	})

	assert.Equal(t, domain.OrderStatusFailed, result.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.orderCalls))

	entry, err := cache.Get(context.Background(), "C-900")
	require.NoError(t, err)
	assert.Equal(t, "cached", entry.Token)
}

func TestPlaceOrderNumbersLines(t *testing.T) {
	fake := &fakeMonroe{orderBody: fixture(t, "order_response.json")}
	adapter := newTestAdapter(t, fake, nil)

	result, err := adapter.PlaceOrder(context.Background(), domain.OrderRequest{
		BranchID: "25",
		Lines: []domain.OrderLine{
			{ProductCode: barcode, Description: "IBUPROFENO", Quantity: 2},
			{ProductCode: "7790000000001", Description: "AMOXICILINA", Quantity: 6},
		},
		Options: domain.OrderOptions{Reference: "pedido-25-42"},
	})
	require.NoError(t, err)
	assert.Equal(t, "5510023", result.OrderNumber)

	var sent orderRequest
	require.NoError(t, json.Unmarshal(fake.lastOrder.Load().([]byte), &sent))
	assert.Equal(t, "pedido-25-42", sent.ClientReference)
	require.Len(t, sent.Products, 2)
	assert.Equal(t, 2, sent.Products[1].Order)
	assert.Equal(t, "6", sent.Products[1].Units)
	assert.Equal(t, "AMOXICILINA", sent.Products[1].Codes.Name)
}

func TestGuardedQuoteNeverFailsOnMalformedPayloads(t *testing.T) {
	payloads := []string{``, `[]`, `{"arrayProductos":[{"Stock":"x"}]}`, `{"arrayProductos":[{"Stock":{"estado":1},"Precio":{"lista":"n/a"}}]}`}
	for _, payload := range payloads {
		fake := &fakeMonroe{stockBody: []byte(payload)}
		adapter := newTestAdapter(t, fake, nil)

		quote := guard.Wrap(adapter).Quote(context.Background(), domain.QuoteRequest{ProductCode: barcode, BranchID: "25", Quantity: 1})
		assert.NotNil(t, quote.Offers, payload)
		assert.False(t, quote.OfferPrice.Valid, payload)
	}
}

func TestMemoryTokenCacheSweep(t *testing.T) {
	cache := NewMemoryTokenCache()
	now := time.Now()
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, domain.TokenCacheEntry{AccountKey: "a", Token: "1", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, cache.Set(ctx, domain.TokenCacheEntry{AccountKey: "b", Token: "2", ExpiresAt: now.Add(time.Minute)}))

	assert.Equal(t, 1, cache.Sweep(now))
	assert.Equal(t, 1, cache.Len())

	entry, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

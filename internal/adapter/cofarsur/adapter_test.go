package cofarsur

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"

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

type fakeCofarsur struct {
	mu        sync.Mutex
	responses map[string][]byte
	status    map[string]int
	actions   []string
	bodies    map[string]string
}

func (f *fakeCofarsur) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := r.Header.Get("SOAPAction")
	raw, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.actions = append(f.actions, action)
	if f.bodies == nil {
		f.bodies = make(map[string]string)
	}
	f.bodies[action] = string(raw)
	body := f.responses[action]
	status := f.status[action]
	f.mu.Unlock()

	if user, pass, ok := r.BasicAuth(); !ok || user != "cofa25" || pass != "pw" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if status != 0 {
		w.WriteHeader(status)
	}
	_, _ = w.Write(body)
}

func newTestAdapter(t *testing.T, fake *fakeCofarsur) *Adapter {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	creds := adaptertest.NewCredentials().Put("25", domain.SupplierCofarsur, domain.Credentials{Username: "cofa25", Password: "pw", Token: "tk"})
	cfg := config.CofarsurConfig{EndpointConfig: config.EndpointConfig{BaseURL: server.URL, TimeoutSeconds: 5}}
	return NewAdapter(cfg, nil, creds)
}

func TestParseExistence(t *testing.T) {
	available, err := ParseExistence(fixture(t, "existence_estado.xml"))
	require.NoError(t, err)
	assert.True(t, available)

	available, err = ParseExistence(fixture(t, "existence_stock.xml"))
	require.NoError(t, err)
	assert.False(t, available)

	available, err = ParseExistence([]byte(`<Envelope><Body><r><return><stock>1</stock></return></r></Body></Envelope>`))
	require.NoError(t, err)
	assert.True(t, available)

	_, err = ParseExistence([]byte(`<Envelope><Body><return><otro>1</otro></return></Body></Envelope>`))
	assert.Error(t, err)
}

func TestParsePriceWithOffer(t *testing.T) {
	quote, err := ParsePrice(fixture(t, "price_offer.xml"))
	require.NoError(t, err)

	assert.True(t, quote.InStock)
	assert.True(t, quote.ListPrice.Decimal.Equal(decimal.RequireFromString("1234.50")))
	require.Len(t, quote.Offers, 1)

	offer := quote.Offers[0]
	assert.Equal(t, 3, offer.MinUnits)
	assert.Equal(t, "11% min 3 unidades", offer.Label)
	assert.True(t, offer.FixedPrice.Decimal.Equal(decimal.NewFromInt(1100)))
}

func TestParsePriceWithoutOffer(t *testing.T) {
	quote, err := ParsePrice(fixture(t, "price_plain.xml"))
	require.NoError(t, err)
	assert.True(t, quote.ListPrice.Decimal.Equal(decimal.NewFromInt(95)))
	assert.Empty(t, quote.Offers)
}

func TestParseMinUnitsDefaultsToOne(t *testing.T) {
	n, found := parseMinUnits("Oferta por tiempo limitado")
	assert.Equal(t, 1, n)
	assert.False(t, found)

	n, found = parseMinUnits("llevando minimo 6")
	assert.Equal(t, 6, n)
	assert.True(t, found)
}

func TestFetchQuoteSkipsPriceWhenUnavailable(t *testing.T) {
	fake := &fakeCofarsur{responses: map[string][]byte{
		actionPrefix + opExistence: fixture(t, "existence_stock.xml"),
		actionPrefix + opPrice:     fixture(t, "price_plain.xml"),
	}}
	adapter := newTestAdapter(t, fake)

	quote, err := adapter.FetchQuote(context.Background(), domain.QuoteRequest{ProductCode: barcode, BranchID: "25", Quantity: 1})
	require.NoError(t, err)

	assert.False(t, quote.InStock)
	assert.Equal(t, []string{actionPrefix + opExistence}, fake.actions)
}

func TestFetchQuoteCallsExistenceThenPrice(t *testing.T) {
	fake := &fakeCofarsur{responses: map[string][]byte{
		actionPrefix + opExistence: fixture(t, "existence_estado.xml"),
		actionPrefix + opPrice:     fixture(t, "price_offer.xml"),
	}}
	adapter := newTestAdapter(t, fake)

	quote := guard.Wrap(adapter).Quote(context.Background(), domain.QuoteRequest{ProductCode: barcode, BranchID: "25", Quantity: 4})

	assert.Equal(t, []string{actionPrefix + opExistence, actionPrefix + opPrice}, fake.actions)
	assert.True(t, quote.InStock)
	assert.True(t, quote.OfferPrice.Decimal.Equal(decimal.NewFromInt(1100)))

	sent := fake.bodies[actionPrefix+opPrice]
	assert.Contains(t, sent, `xmlns:tem="http://tempuri.org/"`)
	assert.Contains(t, sent, "<tem:ConsultarPrecio><tem:DatosConsultarPrecio><tem:usuario>cofa25</tem:usuario>")
	assert.Contains(t, sent, "<tem:codigo_barra>"+barcode+"</tem:codigo_barra>")
	assert.Contains(t, sent, "<tem:token>tk</tem:token>")
}

func TestQuoteOfferBelowMinimumIsDropped(t *testing.T) {
	fake := &fakeCofarsur{responses: map[string][]byte{
		actionPrefix + opExistence: fixture(t, "existence_estado.xml"),
		actionPrefix + opPrice:     fixture(t, "price_offer.xml"),
	}}
	adapter := newTestAdapter(t, fake)

	quote := guard.Wrap(adapter).Quote(context.Background(), domain.QuoteRequest{ProductCode: barcode, BranchID: "25", Quantity: 2})

	assert.False(t, quote.OfferPrice.Valid)
	assert.True(t, quote.EffectivePrice().Decimal.Equal(decimal.RequireFromString("1234.50")))
}

func TestFetchQuoteFault(t *testing.T) {
	fake := &fakeCofarsur{
		responses: map[string][]byte{actionPrefix + opExistence: fixture(t, "fault.xml")},
		status:    map[string]int{actionPrefix + opExistence: http.StatusInternalServerError},
	}
	adapter := newTestAdapter(t, fake)

	_, err := adapter.FetchQuote(context.Background(), domain.QuoteRequest{ProductCode: barcode, BranchID: "25", Quantity: 1})

	var supplierErr *domain.SupplierError
	require.ErrorAs(t, err, &supplierErr)
	assert.Equal(t, domain.KindRemoteFault, supplierErr.Kind)
	assert.Equal(t, "Token de acceso vencido", supplierErr.Detail)
}

func TestGuardedQuoteNeverFailsOnMalformedPayloads(t *testing.T) {
	payloads := []string{``, `<<<`, `<Envelope><Body/></Envelope>`, `<return><estado><x/></estado></return>`}
	for _, payload := range payloads {
		fake := &fakeCofarsur{responses: map[string][]byte{actionPrefix + opExistence: []byte(payload)}}
		adapter := newTestAdapter(t, fake)

		quote := guard.Wrap(adapter).Quote(context.Background(), domain.QuoteRequest{ProductCode: barcode, BranchID: "25", Quantity: 1})
		assert.False(t, quote.InStock, payload)
	}
}

var (
	idAttrRe = regexp.MustCompile(` id="(\d+)"`)
	hrefRe   = regexp.MustCompile(`href="#(\d+)"`)
)

func TestOrderEnvelopeLinksSequentialIDs(t *testing.T) {
	creds := &domain.Credentials{Username: "cofa25", Password: "pw", Token: "tk"}
	req := domain.OrderRequest{
		BranchID: "25",
		Lines: []domain.OrderLine{
			{ProductCode: barcode, Quantity: 2},
			{ProductCode: "7790000000001", Quantity: 1},
		},
		Options: domain.OrderOptions{Reference: "pedido-25-42"},
	}

	out := string(orderEnvelope(creds, req))

	var ids, refs []string
	for _, m := range idAttrRe.FindAllStringSubmatch(out, -1) {
		ids = append(ids, m[1])
	}
	for _, m := range hrefRe.FindAllStringSubmatch(out, -1) {
		refs = append(refs, m[1])
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids)
	assert.Equal(t, []string{"1", "2", "3", "4"}, refs)

	assert.Contains(t, out, `SOAP-ENC:arrayType="tns:TItemPedido[2]"`)
	assert.Contains(t, out, `<tns:AltaPedido><DatosAltaPedido href="#1"/></tns:AltaPedido>`)
	assert.Contains(t, out, `<tns:TItemPedido id="4" xsi:type="tns:TItemPedido"><codigo_barra xsi:type="xsd:string">7790000000001</codigo_barra>`)
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?><SOAP-ENV:Envelope xmlns:SOAP-ENV=`))
}

func TestPlaceOrder(t *testing.T) {
	fake := &fakeCofarsur{responses: map[string][]byte{actionPrefix + opOrder: fixture(t, "order_ok.xml")}}
	adapter := newTestAdapter(t, fake)

	result, err := adapter.PlaceOrder(context.Background(), domain.OrderRequest{
		BranchID: "25",
		Lines:    []domain.OrderLine{{ProductCode: barcode, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "C-000781", result.OrderNumber)
	assert.Equal(t, "Pedido ingresado", result.Confirmation)
	assert.Equal(t, []string{actionPrefix + opOrder}, fake.actions)
}

func TestPlaceOrderRejected(t *testing.T) {
	rejected := []byte(`<Envelope><Body><AltaPedidoResponse><return><estado>false</estado><mensaje>Cliente suspendido</mensaje></return></AltaPedidoResponse></Body></Envelope>`)
	fake := &fakeCofarsur{responses: map[string][]byte{actionPrefix + opOrder: rejected}}
	adapter := newTestAdapter(t, fake)

	result := guard.Wrap(adapter).CreateOrder(context.Background(), domain.OrderRequest{
		BranchID: "25",
		Lines:    []domain.OrderLine{{ProductCode: barcode, Quantity: 2}},
	})
	assert.Equal(t, domain.OrderStatusFailed, result.Status)
	assert.Equal(t, domain.KindRemoteFault, result.Kind)
	assert.Equal(t, "Cliente suspendido", result.RawDetail)
}

func TestPlaceOrderFaultShortCircuits(t *testing.T) {
	fake := &fakeCofarsur{
		responses: map[string][]byte{actionPrefix + opOrder: fixture(t, "fault.xml")},
		status:    map[string]int{actionPrefix + opOrder: http.StatusInternalServerError},
	}
	adapter := newTestAdapter(t, fake)

	_, err := adapter.PlaceOrder(context.Background(), domain.OrderRequest{
		BranchID: "25",
		Lines:    []domain.OrderLine{{ProductCode: barcode, Quantity: 2}},
	})
	assert.Equal(t, domain.KindRemoteFault, domain.KindOf(err))
}

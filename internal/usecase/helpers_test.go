package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/adapter/factory"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/adapter/guard"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
)

const scenarioBarcode = "7791234560012"

// stubBackend is a guard.Backend answering with fixed values
type stubBackend struct {
	code     string
	quote    domain.Quote
	quoteErr error
	panics   bool
	hangs    bool
	order    domain.OrderResult
	orderErr error

	mu     sync.Mutex
	quotes int
	orders []domain.OrderRequest
}

func (s *stubBackend) Code() string           { return s.code }
func (s *stubBackend) Timeout() time.Duration { return time.Second }

func (s *stubBackend) FetchQuote(ctx context.Context, _ domain.QuoteRequest) (domain.Quote, error) {
	s.mu.Lock()
	s.quotes++
	s.mu.Unlock()
	if s.hangs {
		<-ctx.Done()
		return domain.Quote{}, domain.NewSupplierError(domain.KindNetworkFailure, s.code, "quote", ctx.Err())
	}
	if s.panics {
		panic("malformed payload")
	}
	return s.quote, s.quoteErr
}

func (s *stubBackend) PlaceOrder(_ context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	s.mu.Lock()
	s.orders = append(s.orders, req)
	s.mu.Unlock()
	return s.order, s.orderErr
}

func (s *stubBackend) orderCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// suppliers builds one out-of-stock backend per configured supplier
func suppliers() map[string]*stubBackend {
	backends := make(map[string]*stubBackend, len(domain.SupplierCodes))
	for _, code := range domain.SupplierCodes {
		backends[code] = &stubBackend{code: code, quote: domain.UnavailableQuote(code)}
	}
	return backends
}

func registry(backends map[string]*stubBackend) domain.SupplierAdapterFactory {
	f := factory.NewSupplierAdapterFactory()
	for code, backend := range backends {
		f.RegisterAdapter(code, guard.Wrap(backend))
	}
	return f
}

func price(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

func inStock(list string, offers ...domain.OfferTier) domain.Quote {
	if offers == nil {
		offers = []domain.OfferTier{}
	}
	return domain.Quote{InStock: true, ListPrice: price(list), Offers: offers}
}

func percentTier(percent int64, minUnits int) domain.OfferTier {
	return domain.OfferTier{
		Label:           domain.OfferLabel(decimal.NewFromInt(percent), minUnits),
		MinUnits:        minUnits,
		DiscountPercent: decimal.NewFromInt(percent),
	}
}

// memoryGuard is an in-process DispatchGuard
type memoryGuard struct {
	mu      sync.Mutex
	claimed map[string]bool
	err     error
}

func newMemoryGuard() *memoryGuard {
	return &memoryGuard{claimed: make(map[string]bool)}
}

func (g *memoryGuard) Claim(_ context.Context, tableID string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.claimed[tableID] {
		return false, nil
	}
	g.claimed[tableID] = true
	return true, nil
}

func (g *memoryGuard) Release(_ context.Context, tableID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claimed, tableID)
	return nil
}

func (g *memoryGuard) isClaimed(tableID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.claimed[tableID]
}

// memoryHistory records saved reports
type memoryHistory struct {
	mu      sync.Mutex
	records []domain.OrderRecord
	err     error
	limit   int
	offset  int
}

func (h *memoryHistory) SaveReport(_ context.Context, report *domain.DispatchReport) error {
	if h.err != nil {
		return h.err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, report.Records()...)
	return nil
}

func (h *memoryHistory) ListByBranch(_ context.Context, branchID string, limit, offset int) ([]domain.OrderRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.limit, h.offset = limit, offset
	var records []domain.OrderRecord
	for _, record := range h.records {
		if record.BranchID == branchID {
			records = append(records, record)
		}
	}
	return records, nil
}

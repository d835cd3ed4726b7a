// Package guard turns a supplier backend, which reports classified errors,
// into a domain.SupplierAdapter whose operations never fail.
package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/metrics"
)

const (
	opQuote       = "quote"
	opCreateOrder = "create_order"
)

// Backend is the error-returning side of a supplier integration
type Backend interface {
	Code() string
	// Timeout bounds one FetchQuote or PlaceOrder invocation.
	Timeout() time.Duration
	FetchQuote(ctx context.Context, req domain.QuoteRequest) (domain.Quote, error)
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error)
}

// Adapter implements domain.SupplierAdapter on top of a Backend
type Adapter struct {
	backend Backend
}

// Wrap guards a backend
func Wrap(backend Backend) *Adapter {
	return &Adapter{backend: backend}
}

// Code returns the supplier code
func (a *Adapter) Code() string {
	return a.backend.Code()
}

// Quote fetches a quote, degrading every failure to an unavailable quote
func (a *Adapter) Quote(ctx context.Context, req domain.QuoteRequest) (quote domain.Quote) {
	code := a.backend.Code()
	start := time.Now()
	log := logger.FromContext(ctx).With(
		logger.Supplier(code),
		logger.String("operation", opQuote),
		logger.String("codigo_barras", req.ProductCode),
		logger.Branch(req.BranchID),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Supplier quote panicked", logger.Any("panic", r))
			metrics.RecordSupplierRequest(code, opQuote, "panic", time.Since(start).Seconds())
			quote = domain.UnavailableQuote(code)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, a.backend.Timeout())
	defer cancel()

	fetched, err := a.backend.FetchQuote(callCtx, req)
	if err != nil {
		kind := domain.KindOf(err)
		log.Warn("Supplier quote unavailable",
			logger.String("kind", string(kind)),
			logger.ErrorField(err),
		)
		metrics.RecordSupplierRequest(code, opQuote, string(kind), time.Since(start).Seconds())
		return domain.UnavailableQuote(code)
	}

	fetched.Supplier = code
	quote = fetched.ApplyQuantity(req.Quantity).Normalize()

	log.Debug("Supplier quote received",
		logger.Bool("in_stock", quote.InStock),
		logger.String("list_price", quote.ListPrice.Decimal.String()),
		logger.String("offer_price", quote.OfferPrice.Decimal.String()),
		logger.Int("offers", len(quote.Offers)),
		logger.Duration("duration", time.Since(start)),
	)
	metrics.RecordSupplierRequest(code, opQuote, "ok", time.Since(start).Seconds())

	return quote
}

// CreateOrder places an order once, reporting failures in the result
func (a *Adapter) CreateOrder(ctx context.Context, req domain.OrderRequest) (result domain.OrderResult) {
	code := a.backend.Code()
	if len(req.Lines) == 0 {
		return domain.SkippedOrder(code, "no lines selected")
	}

	start := time.Now()
	log := logger.FromContext(ctx).With(
		logger.Supplier(code),
		logger.String("operation", opCreateOrder),
		logger.Branch(req.BranchID),
		logger.Int("lines", len(req.Lines)),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Supplier order panicked", logger.Any("panic", r))
			metrics.RecordSupplierRequest(code, opCreateOrder, "panic", time.Since(start).Seconds())
			result = domain.FailedOrder(code, len(req.Lines),
				domain.NewSupplierError(domain.KindUnknown, code, opCreateOrder, fmt.Errorf("panic: %v", r)))
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, a.backend.Timeout())
	defer cancel()

	placed, err := a.backend.PlaceOrder(callCtx, req)
	if err != nil {
		kind := domain.KindOf(err)
		log.Warn("Supplier order failed",
			logger.String("kind", string(kind)),
			logger.ErrorField(err),
		)
		metrics.RecordSupplierRequest(code, opCreateOrder, string(kind), time.Since(start).Seconds())
		return domain.FailedOrder(code, len(req.Lines), err)
	}

	placed.Supplier = code
	if placed.Status == "" {
		placed.Status = domain.OrderStatusOK
	}

	if placed.Status == domain.OrderStatusSkipped {
		if len(placed.Unplaced) == 0 {
			placed.Unplaced = productCodes(req.Lines)
		}
		placed.Lines = 0
		log.Warn("Supplier order skipped",
			logger.String("reason", placed.Reason),
			logger.Strings("unplaced", placed.Unplaced),
			logger.Duration("duration", time.Since(start)),
		)
		metrics.RecordSupplierRequest(code, opCreateOrder, string(placed.Status), time.Since(start).Seconds())
		return placed
	}

	if placed.Status == domain.OrderStatusOK && placed.Lines == 0 {
		placed.Lines = len(req.Lines) - len(placed.Unplaced)
	}
	if len(placed.Unplaced) > 0 {
		log.Warn("Supplier order left lines out",
			logger.String("order_number", placed.OrderNumber),
			logger.Strings("unplaced", placed.Unplaced),
		)
	}

	log.Info("Supplier order placed",
		logger.String("status", string(placed.Status)),
		logger.String("order_number", placed.OrderNumber),
		logger.Duration("duration", time.Since(start)),
	)
	metrics.RecordSupplierRequest(code, opCreateOrder, string(placed.Status), time.Since(start).Seconds())

	return placed
}

func productCodes(lines []domain.OrderLine) []string {
	codes := make([]string, len(lines))
	for i, line := range lines {
		codes[i] = line.ProductCode
	}
	return codes
}

// Package kellerhof is a placeholder for a supplier without a live
// integration. It never offers stock and rejects every order.
package kellerhof

import (
	"context"
	"errors"
	"time"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
)

// ErrNotIntegrated is returned for every order attempt
var ErrNotIntegrated = errors.New("kellerhof integration is not available")

// Adapter is the null Kellerhof backend
type Adapter struct{}

// NewAdapter creates a new Kellerhof adapter instance
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Code returns the supplier code
func (a *Adapter) Code() string {
	return domain.SupplierKellerhof
}

// Timeout returns the default supplier timeout
func (a *Adapter) Timeout() time.Duration {
	return domain.DefaultTimeoutSeconds * time.Second
}

// FetchQuote always answers with an unavailable quote
func (a *Adapter) FetchQuote(_ context.Context, _ domain.QuoteRequest) (domain.Quote, error) {
	return domain.UnavailableQuote(domain.SupplierKellerhof), nil
}

// PlaceOrder always fails
func (a *Adapter) PlaceOrder(_ context.Context, _ domain.OrderRequest) (domain.OrderResult, error) {
	return domain.OrderResult{}, domain.NewSupplierError(domain.KindRemoteFault, domain.SupplierKellerhof, "create_order", ErrNotIntegrated)
}

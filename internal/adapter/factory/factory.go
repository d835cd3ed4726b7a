package factory

import (
	"fmt"
	"sync"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
)

// supplierAdapterFactory is a thread-safe registry for supplier adapters
// ensuring each supplier code resolves to a concrete adapter implementation.
type supplierAdapterFactory struct {
	mu       sync.RWMutex
	adapters map[string]domain.SupplierAdapter
}

// NewSupplierAdapterFactory creates a new supplier adapter registry instance.
func NewSupplierAdapterFactory() domain.SupplierAdapterFactory {
	return &supplierAdapterFactory{
		adapters: make(map[string]domain.SupplierAdapter),
	}
}

// RegisterAdapter registers an adapter under the given supplier code.
// Codes outside the configured supplier list are ignored.
func (f *supplierAdapterFactory) RegisterAdapter(code string, adapter domain.SupplierAdapter) {
	if adapter == nil {
		return
	}

	normalized := domain.NormalizeSupplierCode(code)
	if !domain.IsValidSupplierCode(normalized) {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.adapters[normalized] = adapter
}

// GetAdapter returns the adapter implementation for a supplier code.
func (f *supplierAdapterFactory) GetAdapter(code string) (domain.SupplierAdapter, error) {
	normalized := domain.NormalizeSupplierCode(code)
	if normalized == "" {
		return nil, fmt.Errorf("supplier code is required")
	}

	f.mu.RLock()
	adapter, ok := f.adapters[normalized]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("supplier adapter for %s not found", normalized)
	}

	return adapter, nil
}

// Adapters returns the registered adapters in supplier declaration order.
func (f *supplierAdapterFactory) Adapters() []domain.SupplierAdapter {
	f.mu.RLock()
	defer f.mu.RUnlock()

	adapters := make([]domain.SupplierAdapter, 0, len(f.adapters))
	for _, code := range domain.SupplierCodes {
		if adapter, ok := f.adapters[code]; ok {
			adapters = append(adapters, adapter)
		}
	}
	return adapters
}

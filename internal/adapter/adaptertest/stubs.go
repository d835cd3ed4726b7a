// Package adaptertest provides in-memory collaborators for supplier adapter tests.
package adaptertest

import (
	"context"
	"sync"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
)

// Credentials is a CredentialStore keyed by branch and supplier
type Credentials struct {
	mu      sync.RWMutex
	entries map[string]domain.Credentials
	PingErr error
}

// NewCredentials creates an empty store
func NewCredentials() *Credentials {
	return &Credentials{entries: make(map[string]domain.Credentials)}
}

// Put stores credentials for a branch and supplier
func (c *Credentials) Put(branchID, supplier string, creds domain.Credentials) *Credentials {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[branchID+"/"+supplier] = creds
	return c
}

func (c *Credentials) GetCredentials(_ context.Context, branchID, supplier string) (*domain.Credentials, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	creds, ok := c.entries[branchID+"/"+supplier]
	if !ok {
		return nil, domain.ErrCredentialMissing
	}
	return &creds, nil
}

func (c *Credentials) Ping(context.Context) error {
	return c.PingErr
}

// Catalog is a CatalogLookup over a fixed barcode map
type Catalog map[string]domain.Product

func (c Catalog) ResolveInternalID(_ context.Context, barcode string) (string, error) {
	product, ok := c[barcode]
	if !ok || product.InternalID == "" {
		return "", domain.ErrProductNotFound
	}
	return product.InternalID, nil
}

func (c Catalog) FindProduct(_ context.Context, barcode string) (*domain.Product, error) {
	product, ok := c[barcode]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	product.Barcode = barcode
	return &product, nil
}

package domain

import (
	"context"
	"strings"
	"time"
)

// Supplier codes. The order of SupplierCodes is the declaration order used
// to break price ties during selection.
const (
	SupplierQuantio   = "quantio"
	SupplierMonroe    = "monroe"
	SupplierCofarsur  = "cofarsur"
	SupplierSuizo     = "suizo"
	SupplierKellerhof = "kellerhof"

	DefaultTimeoutSeconds = 30
)

// SupplierCodes lists every configured supplier in declaration order
var SupplierCodes = []string{
	SupplierQuantio,
	SupplierMonroe,
	SupplierCofarsur,
	SupplierSuizo,
	SupplierKellerhof,
}

// IsValidSupplierCode checks if the supplier code is one of the configured suppliers
func IsValidSupplierCode(code string) bool {
	normalized := NormalizeSupplierCode(code)
	for _, c := range SupplierCodes {
		if c == normalized {
			return true
		}
	}
	return false
}

// NormalizeSupplierCode lowercases and trims a supplier code
func NormalizeSupplierCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Credentials holds the secrets one supplier needs for one branch.
// Only the fields relevant to the supplier are populated.
type Credentials struct {
	Username    string `json:"-"`
	Password    string `json:"-"`
	Token       string `json:"-"`
	AccountCode string `json:"-"`
	SoftwareKey string `json:"-"`
	CustomerKey string `json:"-"`
}

// CredentialStore resolves stored supplier secrets per branch
type CredentialStore interface {
	// GetCredentials returns ErrCredentialMissing when the branch has no
	// usable secrets for the supplier.
	GetCredentials(ctx context.Context, branchID, supplier string) (*Credentials, error)
	Ping(ctx context.Context) error
}

// Product is the catalog view of a barcode
type Product struct {
	Barcode     string `json:"codigo_barras" db:"codigo_barras"`
	Description string `json:"descripcion" db:"descripcion"`
	InternalID  string `json:"-" db:"id_producto"`
}

// CatalogLookup maps barcodes to the internal catalog used by Quantio
type CatalogLookup interface {
	// ResolveInternalID returns ErrProductNotFound when the barcode is unknown.
	ResolveInternalID(ctx context.Context, barcode string) (string, error)
	FindProduct(ctx context.Context, barcode string) (*Product, error)
}

// TokenCacheEntry is a cached bearer token for a supplier account
type TokenCacheEntry struct {
	AccountKey string    `json:"account_key"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// IsStale reports whether the entry must be replaced at the given instant
func (e *TokenCacheEntry) IsStale(now time.Time) bool {
	return e == nil || e.Token == "" || !now.Before(e.ExpiresAt)
}

// TokenCache stores short-lived supplier tokens keyed by account.
// Concurrent Set calls for one key may race; the last write wins.
type TokenCache interface {
	Get(ctx context.Context, accountKey string) (*TokenCacheEntry, error)
	Set(ctx context.Context, entry TokenCacheEntry) error
}

// QuoteRequest asks one supplier for stock and price of one basket line
type QuoteRequest struct {
	ProductCode string
	BranchID    string
	Quantity    int
}

// SupplierAdapter defines the uniform capability every supplier integration offers
type SupplierAdapter interface {
	Code() string
	// Quote never fails; any failure degrades to an unavailable quote.
	Quote(ctx context.Context, req QuoteRequest) Quote
	// CreateOrder never fails; failures are reported in the result.
	CreateOrder(ctx context.Context, req OrderRequest) OrderResult
}

// SupplierAdapterFactory resolves supplier adapters by supplier code
type SupplierAdapterFactory interface {
	RegisterAdapter(code string, adapter SupplierAdapter)
	GetAdapter(code string) (SupplierAdapter, error)
	// Adapters returns registered adapters in supplier declaration order.
	Adapters() []SupplierAdapter
}

package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BasketLine is one product a branch wants to buy
type BasketLine struct {
	ProductCode string `json:"codigo_barras"`
	Description string `json:"descripcion"`
	Quantity    int    `json:"cantidad"`
}

// BasketRepository stores the basket of a user session
type BasketRepository interface {
	GetLines(ctx context.Context, sessionID string) ([]BasketLine, error)
	// AddLine increments the quantity when the product is already present.
	AddLine(ctx context.Context, sessionID string, line BasketLine) ([]BasketLine, error)
	RemoveLine(ctx context.Context, sessionID, productCode string) error
	Clear(ctx context.Context, sessionID string) error
}

// ComparisonRow holds every supplier quote for one basket line plus the
// selected supplier. Selected is empty when no supplier qualifies.
type ComparisonRow struct {
	Line           BasketLine          `json:"line"`
	Quotes         map[string]Quote    `json:"quotes"`
	Selected       string              `json:"selected"`
	EffectivePrice decimal.NullDecimal `json:"effective_price"`
}

// SelectedQuote returns the quote of the selected supplier
func (r *ComparisonRow) SelectedQuote() (Quote, bool) {
	if r.Selected == "" {
		return Quote{}, false
	}
	quote, ok := r.Quotes[r.Selected]
	return quote, ok
}

// ComparisonTable is the request-scoped result of comparing a basket
type ComparisonTable struct {
	ID        string          `json:"id"`
	BranchID  string          `json:"branch_id"`
	Suppliers []string        `json:"suppliers"`
	Rows      []ComparisonRow `json:"rows"`
	CreatedAt time.Time       `json:"created_at"`
}

// Override replaces the selection of the row for productCode. An empty
// supplier removes the line from dispatch.
func (t *ComparisonTable) Override(productCode, supplier string) bool {
	for i := range t.Rows {
		if t.Rows[i].Line.ProductCode != productCode {
			continue
		}
		t.Rows[i].Selected = NormalizeSupplierCode(supplier)
		if quote, ok := t.Rows[i].SelectedQuote(); ok {
			t.Rows[i].EffectivePrice = quote.EffectivePrice()
		} else {
			t.Rows[i].EffectivePrice = decimal.NullDecimal{}
		}
		return true
	}
	return false
}

// ComparisonStore keeps comparison tables between the compare and confirm steps
type ComparisonStore interface {
	Save(ctx context.Context, table *ComparisonTable) error
	Get(ctx context.Context, id string) (*ComparisonTable, error)
}

// DispatchGuard enforces that a comparison table is dispatched at most once
type DispatchGuard interface {
	// Claim returns false when the table was already claimed.
	Claim(ctx context.Context, tableID string) (bool, error)
	// Release drops a claim whose dispatch reached no supplier.
	Release(ctx context.Context, tableID string) error
}

// ComparisonUsecase builds comparison tables
type ComparisonUsecase interface {
	Compare(ctx context.Context, lines []BasketLine, branchID string) (*ComparisonTable, error)
}

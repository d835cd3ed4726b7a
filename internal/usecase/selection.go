package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
)

// SelectSupplier picks the supplier of one comparison row. Quantio stock is
// authoritative regardless of price. Otherwise the strictly lowest
// effective price among in-stock suppliers wins, and ties go to the
// supplier declared first. An empty code means no supplier qualifies.
func SelectSupplier(quotes map[string]domain.Quote) (string, decimal.NullDecimal) {
	if quantio, ok := quotes[domain.SupplierQuantio]; ok && quantio.InStock {
		return domain.SupplierQuantio, quantio.EffectivePrice()
	}

	var (
		selected string
		best     decimal.NullDecimal
	)
	for _, code := range domain.SupplierCodes {
		quote, ok := quotes[code]
		if !ok || !quote.InStock {
			continue
		}
		price := quote.EffectivePrice()
		if !price.Valid {
			continue
		}
		if !best.Valid || price.Decimal.LessThan(best.Decimal) {
			selected = code
			best = price
		}
	}
	return selected, best
}

package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// OfferTier is a quantity-bracketed discount returned by a supplier.
// MaxUnits of zero means the bracket has no upper bound. A tier carries
// either a DiscountPercent applied to the list price or a FixedPrice.
type OfferTier struct {
	Label           string              `json:"label"`
	MinUnits        int                 `json:"min_units"`
	MaxUnits        int                 `json:"max_units,omitempty"`
	DiscountPercent decimal.Decimal     `json:"discount_percent"`
	FixedPrice      decimal.NullDecimal `json:"fixed_price"`
}

// Applies reports whether the tier bracket contains quantity
func (t OfferTier) Applies(quantity int) bool {
	if quantity < t.MinUnits {
		return false
	}
	if t.MaxUnits > 0 && quantity > t.MaxUnits {
		return false
	}
	return true
}

// PriceFor returns the unit price the tier yields over listPrice
func (t OfferTier) PriceFor(listPrice decimal.NullDecimal) (decimal.Decimal, bool) {
	if t.FixedPrice.Valid {
		return t.FixedPrice.Decimal, true
	}
	if !listPrice.Valid {
		return decimal.Decimal{}, false
	}
	factor := decimal.NewFromInt(1).Sub(t.DiscountPercent.Div(hundred))
	return listPrice.Decimal.Mul(factor), true
}

// OfferLabel renders the human readable legend for a percentage discount
func OfferLabel(percent decimal.Decimal, minUnits int) string {
	label := fmt.Sprintf("%s%%", percent.String())
	if minUnits > 0 {
		label += fmt.Sprintf(" min %d unidades", minUnits)
	}
	return label
}

// FilterTiers keeps only the tiers applicable to quantity, preserving order
func FilterTiers(tiers []OfferTier, quantity int) []OfferTier {
	applicable := make([]OfferTier, 0, len(tiers))
	for _, tier := range tiers {
		if tier.Applies(quantity) {
			applicable = append(applicable, tier)
		}
	}
	return applicable
}

// BestOfferPrice returns the minimum price across the tiers applicable to
// quantity. The nominally largest discount is not necessarily eligible.
func BestOfferPrice(listPrice decimal.NullDecimal, tiers []OfferTier, quantity int) decimal.NullDecimal {
	var best decimal.NullDecimal
	for _, tier := range tiers {
		if !tier.Applies(quantity) {
			continue
		}
		price, ok := tier.PriceFor(listPrice)
		if !ok {
			continue
		}
		if !best.Valid || price.LessThan(best.Decimal) {
			best = decimal.NewNullDecimal(price)
		}
	}
	return best
}

// Quote is the normalized stock/price answer of one supplier for one basket line
type Quote struct {
	Supplier   string              `json:"supplier"`
	InStock    bool                `json:"in_stock"`
	ListPrice  decimal.NullDecimal `json:"list_price"`
	OfferPrice decimal.NullDecimal `json:"offer_price"`
	Offers     []OfferTier         `json:"offers"`
	OpaqueRef  string              `json:"-"`
}

// UnavailableQuote is the quote every adapter degrades to on failure
func UnavailableQuote(supplier string) Quote {
	return Quote{
		Supplier: supplier,
		Offers:   []OfferTier{},
	}
}

// EffectivePrice returns the offer price if present, else the list price
func (q Quote) EffectivePrice() decimal.NullDecimal {
	if q.OfferPrice.Valid {
		return q.OfferPrice
	}
	return q.ListPrice
}

// ApplyQuantity keeps only the tiers applicable to quantity and derives the
// offer price from them. A quote without applicable tiers has no offer price.
func (q Quote) ApplyQuantity(quantity int) Quote {
	q.Offers = FilterTiers(q.Offers, quantity)
	q.OfferPrice = BestOfferPrice(q.ListPrice, q.Offers, quantity)
	return q
}

// Normalize enforces the structural invariants of a quote: a non-nil offer
// slice and an offer price never above the list price.
func (q Quote) Normalize() Quote {
	if q.Offers == nil {
		q.Offers = []OfferTier{}
	}
	if q.OfferPrice.Valid && q.ListPrice.Valid && q.OfferPrice.Decimal.GreaterThan(q.ListPrice.Decimal) {
		q.OfferPrice = decimal.NullDecimal{}
	}
	return q
}

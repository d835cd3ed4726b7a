package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

func TestQuoteApplyQuantity(t *testing.T) {
	quote := Quote{
		InStock:   true,
		ListPrice: price("100"),
		Offers: []OfferTier{
			{MinUnits: 1, MaxUnits: 2, DiscountPercent: decimal.NewFromInt(5)},
			{MinUnits: 3, DiscountPercent: decimal.NewFromInt(20)},
			{MinUnits: 1, FixedPrice: price("92")},
		},
	}

	tests := []struct {
		quantity int
		tiers    int
		offer    string
	}{
		{quantity: 1, tiers: 2, offer: "92"},
		{quantity: 3, tiers: 2, offer: "80"},
	}
	for _, tt := range tests {
		applied := quote.ApplyQuantity(tt.quantity)
		assert.Len(t, applied.Offers, tt.tiers)
		require.True(t, applied.OfferPrice.Valid)
		assert.True(t, applied.OfferPrice.Decimal.Equal(decimal.RequireFromString(tt.offer)), "quantity %d", tt.quantity)
	}

	assert.Len(t, quote.Offers, 3, "receiver is not modified")
}

func TestQuoteWithoutApplicableTierHasNoOffer(t *testing.T) {
	quote := Quote{
		ListPrice: price("100"),
		Offers:    []OfferTier{{MinUnits: 10, DiscountPercent: decimal.NewFromInt(30)}},
	}.ApplyQuantity(2)

	assert.Empty(t, quote.Offers)
	assert.NotNil(t, quote.Offers)
	assert.False(t, quote.OfferPrice.Valid)
	assert.True(t, quote.EffectivePrice().Decimal.Equal(decimal.NewFromInt(100)))
}

func TestPercentTierWithoutListPrice(t *testing.T) {
	quote := Quote{
		Offers: []OfferTier{{MinUnits: 1, DiscountPercent: decimal.NewFromInt(10)}},
	}.ApplyQuantity(1)

	assert.Len(t, quote.Offers, 1)
	assert.False(t, quote.OfferPrice.Valid)
	assert.False(t, quote.EffectivePrice().Valid)
}

func TestQuoteNormalize(t *testing.T) {
	quote := Quote{ListPrice: price("10"), OfferPrice: price("12")}.Normalize()

	assert.NotNil(t, quote.Offers)
	assert.False(t, quote.OfferPrice.Valid)

	kept := Quote{ListPrice: price("10"), OfferPrice: price("8")}.Normalize()
	assert.True(t, kept.OfferPrice.Valid)
}

func TestOfferLabel(t *testing.T) {
	assert.Equal(t, "11% min 3 unidades", OfferLabel(decimal.NewFromInt(11), 3))
	assert.Equal(t, "12.5%", OfferLabel(decimal.RequireFromString("12.50"), 0))
}

func TestComparisonTableOverride(t *testing.T) {
	table := &ComparisonTable{Rows: []ComparisonRow{{
		Line: BasketLine{ProductCode: "A", Quantity: 1},
		Quotes: map[string]Quote{
			SupplierMonroe: {InStock: true, ListPrice: price("10")},
			SupplierSuizo:  {InStock: true, ListPrice: price("12"), OfferPrice: price("9")},
		},
		Selected:       SupplierMonroe,
		EffectivePrice: price("10"),
	}}}

	require.True(t, table.Override("A", " Suizo "))
	assert.Equal(t, SupplierSuizo, table.Rows[0].Selected)
	assert.True(t, table.Rows[0].EffectivePrice.Decimal.Equal(decimal.NewFromInt(9)))

	require.True(t, table.Override("A", ""))
	assert.Empty(t, table.Rows[0].Selected)
	assert.False(t, table.Rows[0].EffectivePrice.Valid)

	assert.False(t, table.Override("B", SupplierMonroe))
}

func TestBasketLineValidate(t *testing.T) {
	assert.NoError(t, BasketLine{ProductCode: "7791234560012", Quantity: 1}.Validate())
	assert.ErrorIs(t, BasketLine{ProductCode: " ", Quantity: 1}.Validate(), ErrInvalidLine)
	assert.ErrorIs(t, BasketLine{ProductCode: "7791234560012"}.Validate(), ErrInvalidLine)
}

func TestDispatchReportOutcome(t *testing.T) {
	failed := FailedOrder(SupplierCofarsur, 2, &SupplierError{
		Kind:     KindRemoteFault,
		Supplier: SupplierCofarsur,
		Op:       "AltaPedido",
		Detail:   "Cliente suspendido",
		Err:      errors.New("rejected"),
	})
	assert.Equal(t, "Cliente suspendido", failed.RawDetail)
	assert.Equal(t, KindRemoteFault, failed.Kind)
	assert.Equal(t, 2, failed.Lines)

	ok := OrderResult{Supplier: SupplierMonroe, Status: OrderStatusOK, OrderNumber: "M-1", Lines: 1}
	skipped := SkippedOrder(SupplierSuizo, "no lines selected")

	report := &DispatchReport{TableID: "t-1", BranchID: "25", Reference: "pedido-25-1", DispatchedAt: time.Unix(10, 0)}

	report.Results = []OrderResult{ok, skipped}
	assert.NoError(t, report.Err())

	report.Results = []OrderResult{ok, failed, skipped}
	o, f, s := report.Counts()
	assert.Equal(t, []int{1, 1, 1}, []int{o, f, s})
	assert.ErrorIs(t, report.Err(), ErrPartialDispatch)
	assert.Equal(t, KindPartialDispatchFailure, KindOf(report.Err()))

	report.Results = []OrderResult{failed, skipped}
	err := report.Err()
	assert.Equal(t, KindRemoteFault, KindOf(err))
	var supplierErr *SupplierError
	require.ErrorAs(t, err, &supplierErr)
	assert.Equal(t, SupplierCofarsur, supplierErr.Supplier)

	report.Results = []OrderResult{skipped, skipped}
	assert.ErrorIs(t, report.Err(), ErrNothingPlaced)

	droppedLine := skipped
	droppedLine.Unplaced = []string{"7790000000001"}
	report.Results = []OrderResult{droppedLine, skipped}
	assert.ErrorIs(t, report.Err(), ErrNothingPlaced)
	assert.Equal(t, []string{"7790000000001"}, report.Unplaced())

	leftOut := ok
	leftOut.Unplaced = []string{"7790000000002"}
	report.Results = []OrderResult{leftOut, skipped}
	assert.ErrorIs(t, report.Err(), ErrPartialDispatch)

	report.Results = []OrderResult{ok, failed, skipped}
	records := report.Records()
	require.Len(t, records, 2)
	assert.Equal(t, OrderRecord{
		TableID:     "t-1",
		BranchID:    "25",
		Supplier:    SupplierMonroe,
		Reference:   "pedido-25-1",
		Status:      OrderStatusOK,
		OrderNumber: "M-1",
		Lines:       1,
		CreatedAt:   time.Unix(10, 0),
	}, records[0])
	assert.Equal(t, OrderStatusFailed, records[1].Status)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.Equal(t, KindCredentialMissing, KindOf(CredentialError(SupplierMonroe, "quote", ErrCredentialMissing)))
	assert.Equal(t, KindNoEligibleSupplier, KindOf(ErrNoEligibleSupplier))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))

	storeDown := CredentialError(SupplierMonroe, "quote", errors.New("connection refused"))
	assert.Equal(t, KindUnknown, KindOf(storeDown))
	assert.ErrorIs(t, storeDown, ErrCredentialStore)
}

func TestSupplierCodes(t *testing.T) {
	assert.True(t, IsValidSupplierCode(" MONROE "))
	assert.False(t, IsValidSupplierCode("drogueria-x"))
	assert.Equal(t, "quantio", NormalizeSupplierCode(" Quantio"))
	assert.True(t, (&TokenCacheEntry{Token: "t", ExpiresAt: time.Unix(10, 0)}).IsStale(time.Unix(10, 0)))
	assert.False(t, (&TokenCacheEntry{Token: "t", ExpiresAt: time.Unix(11, 0)}).IsStale(time.Unix(10, 0)))
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/metrics"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/utils"
)

const defaultLineConcurrency = 4

type comparisonUsecase struct {
	adapters        domain.SupplierAdapterFactory
	credentials     domain.CredentialStore
	lineConcurrency int
	deadline        time.Duration
	now             func() time.Time
}

// NewComparisonUsecase creates the aggregator. lineConcurrency bounds how
// many basket lines are quoted at the same time; a positive deadline bounds
// the whole comparison.
func NewComparisonUsecase(
	adapters domain.SupplierAdapterFactory,
	credentials domain.CredentialStore,
	lineConcurrency int,
	deadline time.Duration,
) domain.ComparisonUsecase {
	if lineConcurrency <= 0 {
		lineConcurrency = defaultLineConcurrency
	}
	return &comparisonUsecase{
		adapters:        adapters,
		credentials:     credentials,
		lineConcurrency: lineConcurrency,
		deadline:        deadline,
		now:             time.Now,
	}
}

// Compare quotes every line against every supplier and selects a winner per
// line. Single supplier failures never abort the comparison; an unreachable
// credential store does.
func (uc *comparisonUsecase) Compare(ctx context.Context, lines []domain.BasketLine, branchID string) (*domain.ComparisonTable, error) {
	if branchID == "" {
		return nil, fmt.Errorf("%w: branch is required", domain.ErrInvalidLine)
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyBasket
	}
	for _, line := range lines {
		if err := line.Validate(); err != nil {
			return nil, err
		}
	}

	if err := uc.credentials.Ping(ctx); err != nil {
		logger.FromContext(ctx).Error("Credential store unreachable, aborting comparison",
			logger.Branch(branchID),
			logger.ErrorField(err),
		)
		metrics.RecordSystemError("credential_store", "comparison")
		return nil, fmt.Errorf("%w: %v", domain.ErrCredentialStore, err)
	}

	// Quotes cut off by the deadline degrade to unavailable, so the table
	// still renders.
	quoteCtx := ctx
	if uc.deadline > 0 {
		var cancel context.CancelFunc
		quoteCtx, cancel = context.WithTimeout(ctx, uc.deadline)
		defer cancel()
	}

	start := time.Now()
	adapters := uc.adapters.Adapters()
	codes := make([]string, len(adapters))
	for i, adapter := range adapters {
		codes[i] = adapter.Code()
	}

	rows := make([]domain.ComparisonRow, len(lines))
	var g errgroup.Group
	g.SetLimit(uc.lineConcurrency)
	for i, line := range lines {
		g.Go(func() error {
			rows[i] = uc.compareLine(quoteCtx, adapters, line, branchID)
			return nil
		})
	}
	_ = g.Wait()

	table := &domain.ComparisonTable{
		ID:        utils.GenerateUUID(),
		BranchID:  branchID,
		Suppliers: codes,
		Rows:      rows,
		CreatedAt: uc.now(),
	}

	elapsed := time.Since(start)
	metrics.RecordComparison(elapsed.Seconds())
	if quoteCtx.Err() != nil {
		logger.FromContext(ctx).Warn("Comparison deadline reached, pending quotes rendered unavailable",
			logger.String("table_id", table.ID),
			logger.Duration("deadline", uc.deadline),
		)
	}
	logger.FromContext(ctx).Info("Comparison completed",
		logger.String("table_id", table.ID),
		logger.Branch(branchID),
		logger.Int("lines", len(rows)),
		logger.Duration("duration", elapsed),
	)

	return table, nil
}

// compareLine fans out one quote per supplier. Quotes never fail, so no
// supplier cancels another.
func (uc *comparisonUsecase) compareLine(ctx context.Context, adapters []domain.SupplierAdapter, line domain.BasketLine, branchID string) domain.ComparisonRow {
	quotes := make([]domain.Quote, len(adapters))
	req := domain.QuoteRequest{ProductCode: line.ProductCode, BranchID: branchID, Quantity: line.Quantity}

	var g errgroup.Group
	for i, adapter := range adapters {
		g.Go(func() error {
			quotes[i] = adapter.Quote(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	row := domain.ComparisonRow{
		Line:   line,
		Quotes: make(map[string]domain.Quote, len(adapters)),
	}
	for i, adapter := range adapters {
		row.Quotes[adapter.Code()] = quotes[i]
	}

	row.Selected, row.EffectivePrice = SelectSupplier(row.Quotes)
	if row.Selected == "" {
		logger.FromContext(ctx).Info("No eligible supplier for line",
			logger.String("codigo_barras", line.ProductCode),
			logger.String("kind", string(domain.KindNoEligibleSupplier)),
		)
		metrics.RecordSelection("none")
	} else {
		metrics.RecordSelection(row.Selected)
	}
	return row
}

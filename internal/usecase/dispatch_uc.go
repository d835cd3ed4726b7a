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

// Page bounds of the order history
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

type dispatchUsecase struct {
	adapters domain.SupplierAdapterFactory
	guard    domain.DispatchGuard
	history  domain.OrderHistoryRepository
	now      func() time.Time
}

// NewDispatchUsecase creates the order dispatcher. A nil history disables
// order recording.
func NewDispatchUsecase(adapters domain.SupplierAdapterFactory, guard domain.DispatchGuard, history domain.OrderHistoryRepository) domain.DispatchUsecase {
	return &dispatchUsecase{adapters: adapters, guard: guard, history: history, now: time.Now}
}

// ConfirmAndDispatch places one order per selected supplier. The table is
// claimed first so a second confirmation never reaches any supplier; the
// claim is dropped again when no supplier received an order. Every
// configured supplier appears in the report; failures are report entries.
func (uc *dispatchUsecase) ConfirmAndDispatch(ctx context.Context, table *domain.ComparisonTable, branchID string) (*domain.DispatchReport, error) {
	if table == nil || table.ID == "" {
		return nil, domain.ErrTableNotFound
	}
	if table.BranchID != branchID {
		return nil, fmt.Errorf("%w: table belongs to another branch", domain.ErrTableNotFound)
	}

	adapters := uc.adapters.Adapters()
	groups, excluded := partition(table, adapters)
	if len(groups) == 0 {
		return &domain.DispatchReport{
			TableID:      table.ID,
			BranchID:     branchID,
			Results:      skippedResults(adapters),
			Excluded:     excluded,
			DispatchedAt: uc.now(),
		}, domain.ErrNoEligibleSupplier
	}

	claimed, err := uc.guard.Claim(ctx, table.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, domain.ErrAlreadyDispatched
	}

	options := domain.OrderOptions{Reference: utils.GenerateOrderReference(branchID)}
	results := make([]domain.OrderResult, len(adapters))

	var g errgroup.Group
	for i, adapter := range adapters {
		g.Go(func() error {
			results[i] = adapter.CreateOrder(ctx, domain.OrderRequest{
				BranchID: branchID,
				Lines:    groups[adapter.Code()],
				Options:  options,
			})
			return nil
		})
	}
	_ = g.Wait()

	report := &domain.DispatchReport{
		TableID:      table.ID,
		BranchID:     branchID,
		Reference:    options.Reference,
		Results:      results,
		Excluded:     excluded,
		DispatchedAt: uc.now(),
	}

	for _, result := range results {
		metrics.RecordDispatchOrder(result.Supplier, string(result.Status))
	}
	ok, failed, skipped := report.Counts()
	logger.FromContext(ctx).Info("Dispatch completed",
		logger.String("table_id", table.ID),
		logger.Branch(branchID),
		logger.String("reference", options.Reference),
		logger.Int("ok", ok),
		logger.Int("failed", failed),
		logger.Int("skipped", skipped),
		logger.Int("excluded", len(excluded)),
		logger.Int("unplaced", len(report.Unplaced())),
	)

	// No supplier received an order, so the operator may confirm again.
	if ok == 0 && failed == 0 {
		if err := uc.guard.Release(ctx, table.ID); err != nil {
			logger.FromContext(ctx).Error("Failed to release comparison table",
				logger.String("table_id", table.ID),
				logger.ErrorField(err),
			)
		}
	}

	// Recording is best effort; the supplier orders already exist.
	if uc.history != nil {
		if err := uc.history.SaveReport(ctx, report); err != nil {
			logger.FromContext(ctx).Error("Failed to record dispatch",
				logger.String("table_id", table.ID),
				logger.ErrorField(err),
			)
		}
	}

	return report, report.Err()
}

// History lists the recorded orders of a branch, newest first
func (uc *dispatchUsecase) History(ctx context.Context, branchID string, limit, offset int) ([]domain.OrderRecord, error) {
	if uc.history == nil {
		return []domain.OrderRecord{}, nil
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return uc.history.ListByBranch(ctx, branchID, limit, offset)
}

// partition groups the selected lines by supplier. Lines without a
// selection, or selected for an unregistered supplier, are excluded.
func partition(table *domain.ComparisonTable, adapters []domain.SupplierAdapter) (map[string][]domain.OrderLine, []string) {
	registered := make(map[string]bool, len(adapters))
	for _, adapter := range adapters {
		registered[adapter.Code()] = true
	}

	groups := make(map[string][]domain.OrderLine)
	excluded := []string{}
	for _, row := range table.Rows {
		supplier := domain.NormalizeSupplierCode(row.Selected)
		if supplier == "" || !registered[supplier] {
			excluded = append(excluded, row.Line.ProductCode)
			continue
		}

		line := domain.OrderLine{
			ProductCode: row.Line.ProductCode,
			Description: row.Line.Description,
			Quantity:    row.Line.Quantity,
		}
		if quote, ok := row.Quotes[supplier]; ok {
			line.OpaqueRef = quote.OpaqueRef
		}
		groups[supplier] = append(groups[supplier], line)
	}
	return groups, excluded
}

func skippedResults(adapters []domain.SupplierAdapter) []domain.OrderResult {
	results := make([]domain.OrderResult, len(adapters))
	for i, adapter := range adapters {
		results[i] = domain.SkippedOrder(adapter.Code(), "no lines selected")
	}
	return results
}

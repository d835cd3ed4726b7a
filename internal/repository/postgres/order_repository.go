package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/utils"
)

type orderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates the dispatched order history repository
func NewOrderRepository(db *sqlx.DB) domain.OrderHistoryRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, tabla_id, sucursal_codigo, drogueria, referencia, estado,
	numero_pedido, confirmacion, motivo, tipo_error, lineas, created_at`

// SaveReport stores every attempted supplier order of the report in one
// transaction
func (r *orderRepository) SaveReport(ctx context.Context, report *domain.DispatchReport) error {
	records := report.Records()
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin order transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO pedidos_droguerias (` + orderColumns + `)
		VALUES (:id, :tabla_id, :sucursal_codigo, :drogueria, :referencia, :estado,
			:numero_pedido, :confirmacion, :motivo, :tipo_error, :lineas, :created_at)
	`
	for i := range records {
		records[i].ID = utils.GenerateUUID()
		if _, err := tx.NamedExecContext(ctx, query, records[i]); err != nil {
			logger.Error("Failed to store supplier order",
				logger.String("table_id", report.TableID),
				logger.Supplier(records[i].Supplier),
				logger.ErrorField(err),
			)
			return fmt.Errorf("failed to store order: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit orders: %w", err)
	}

	logger.Info("Supplier orders stored",
		logger.String("table_id", report.TableID),
		logger.Branch(report.BranchID),
		logger.Int("orders", len(records)),
	)
	return nil
}

// ListByBranch returns the most recent orders of a branch
func (r *orderRepository) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]domain.OrderRecord, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM pedidos_droguerias
		WHERE sucursal_codigo = $1
		ORDER BY created_at DESC, drogueria
		LIMIT $2 OFFSET $3
	`

	records := []domain.OrderRecord{}
	if err := r.db.SelectContext(ctx, &records, query, branchID, limit, offset); err != nil {
		logger.Error("Failed to list orders",
			logger.Branch(branchID),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return records, nil
}

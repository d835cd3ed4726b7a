package domain

import (
	"context"
	"errors"
	"time"
)

// OrderStatus is the outcome of one supplier order-creation call
type OrderStatus string

const (
	OrderStatusSkipped OrderStatus = "skipped"
	OrderStatusOK      OrderStatus = "ok"
	OrderStatusFailed  OrderStatus = "failed"
)

// OrderLine is one basket line routed to a supplier
type OrderLine struct {
	ProductCode string `json:"codigo_barras"`
	Description string `json:"descripcion"`
	Quantity    int    `json:"cantidad"`
	// OpaqueRef is the supplier-internal product id captured while quoting.
	OpaqueRef string `json:"-"`
}

// OrderOptions carries per-dispatch settings shared by every supplier call
type OrderOptions struct {
	Reference string
	Notes     string
}

// OrderRequest asks one supplier to create an order for the lines selected for it
type OrderRequest struct {
	BranchID string
	Lines    []OrderLine
	Options  OrderOptions
}

// OrderResult reports what happened to one supplier during dispatch
type OrderResult struct {
	Supplier     string      `json:"supplier"`
	Status       OrderStatus `json:"status"`
	OrderNumber  string      `json:"order_number,omitempty"`
	Confirmation string      `json:"confirmation,omitempty"`
	Reason       string      `json:"reason,omitempty"`
	RawDetail    string      `json:"raw_detail,omitempty"`
	Kind         ErrorKind   `json:"kind,omitempty"`
	Lines        int         `json:"lines"`
	// Unplaced lists the barcodes routed to the supplier that were left out
	// of the order.
	Unplaced []string `json:"unplaced,omitempty"`
}

// SkippedOrder builds a skipped result
func SkippedOrder(supplier, reason string) OrderResult {
	return OrderResult{Supplier: supplier, Status: OrderStatusSkipped, Reason: reason}
}

// FailedOrder builds a failed result from a classified error
func FailedOrder(supplier string, lines int, err error) OrderResult {
	result := OrderResult{
		Supplier: supplier,
		Status:   OrderStatusFailed,
		Lines:    lines,
		Kind:     KindOf(err),
	}
	if err != nil {
		result.Reason = err.Error()
	}
	var supplierErr *SupplierError
	if errors.As(err, &supplierErr) {
		result.RawDetail = supplierErr.Detail
	}
	return result
}

// DispatchReport aggregates per-supplier order results in declaration order
type DispatchReport struct {
	TableID      string        `json:"table_id"`
	BranchID     string        `json:"branch_id"`
	Reference    string        `json:"reference"`
	Results      []OrderResult `json:"results"`
	Excluded     []string      `json:"excluded"`
	DispatchedAt time.Time     `json:"dispatched_at"`
}

// Counts returns how many suppliers succeeded, failed and were skipped
func (r *DispatchReport) Counts() (ok, failed, skipped int) {
	for _, result := range r.Results {
		switch result.Status {
		case OrderStatusOK:
			ok++
		case OrderStatusFailed:
			failed++
		default:
			skipped++
		}
	}
	return ok, failed, skipped
}

// Unplaced returns the barcodes of lines routed to a supplier that no
// order carries, failed orders excluded
func (r *DispatchReport) Unplaced() []string {
	var codes []string
	for _, result := range r.Results {
		if result.Status != OrderStatusFailed {
			codes = append(codes, result.Unplaced...)
		}
	}
	return codes
}

// Err returns nil only when every attempted supplier placed its whole order.
// Nothing placed at all yields ErrNothingPlaced; when no order succeeded the
// first failure is returned; anything else is a partial dispatch failure.
func (r *DispatchReport) Err() error {
	ok, failed, _ := r.Counts()
	unplaced := len(r.Unplaced())
	switch {
	case ok == 0 && failed == 0:
		return ErrNothingPlaced
	case failed == 0 && unplaced == 0:
		return nil
	case ok > 0:
		return &SupplierError{
			Kind: KindPartialDispatchFailure,
			Op:   "dispatch",
			Err:  ErrPartialDispatch,
		}
	}
	for _, result := range r.Results {
		if result.Status == OrderStatusFailed {
			return &SupplierError{Kind: result.Kind, Supplier: result.Supplier, Op: "create_order", Detail: result.RawDetail}
		}
	}
	return ErrNothingPlaced
}

// OrderRecord is the stored outcome of one supplier order. Skipped suppliers
// are not recorded.
type OrderRecord struct {
	ID           string      `json:"id" db:"id"`
	TableID      string      `json:"table_id" db:"tabla_id"`
	BranchID     string      `json:"branch_id" db:"sucursal_codigo"`
	Supplier     string      `json:"supplier" db:"drogueria"`
	Reference    string      `json:"reference" db:"referencia"`
	Status       OrderStatus `json:"status" db:"estado"`
	OrderNumber  string      `json:"order_number,omitempty" db:"numero_pedido"`
	Confirmation string      `json:"confirmation,omitempty" db:"confirmacion"`
	Reason       string      `json:"reason,omitempty" db:"motivo"`
	Kind         ErrorKind   `json:"kind,omitempty" db:"tipo_error"`
	Lines        int         `json:"lines" db:"lineas"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// Records flattens the attempted supplier orders of the report
func (r *DispatchReport) Records() []OrderRecord {
	var records []OrderRecord
	for _, result := range r.Results {
		if result.Status == OrderStatusSkipped {
			continue
		}
		records = append(records, OrderRecord{
			TableID:      r.TableID,
			BranchID:     r.BranchID,
			Supplier:     result.Supplier,
			Reference:    r.Reference,
			Status:       result.Status,
			OrderNumber:  result.OrderNumber,
			Confirmation: result.Confirmation,
			Reason:       result.Reason,
			Kind:         result.Kind,
			Lines:        result.Lines,
			CreatedAt:    r.DispatchedAt,
		})
	}
	return records
}

// OrderHistoryRepository stores dispatched supplier orders per branch
type OrderHistoryRepository interface {
	SaveReport(ctx context.Context, report *DispatchReport) error
	ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]OrderRecord, error)
}

// DispatchUsecase confirms a comparison table and places the supplier orders
type DispatchUsecase interface {
	ConfirmAndDispatch(ctx context.Context, table *ComparisonTable, branchID string) (*DispatchReport, error)
	History(ctx context.Context, branchID string, limit, offset int) ([]OrderRecord, error)
}

package domain

import (
	"context"
	"fmt"
	"strings"
)

// Validate checks the invariants of a basket line
func (l BasketLine) Validate() error {
	if strings.TrimSpace(l.ProductCode) == "" {
		return fmt.Errorf("%w: product code is required", ErrInvalidLine)
	}
	if l.Quantity <= 0 {
		return fmt.Errorf("%w: quantity of %s must be positive", ErrInvalidLine, l.ProductCode)
	}
	return nil
}

// BasketUsecase manages the basket of a branch user
type BasketUsecase interface {
	FindProduct(ctx context.Context, barcode string) (*Product, error)
	AddProduct(ctx context.Context, sessionID, barcode string, quantity int) ([]BasketLine, error)
	Lines(ctx context.Context, sessionID string) ([]BasketLine, error)
	RemoveProduct(ctx context.Context, sessionID, barcode string) error
	Clear(ctx context.Context, sessionID string) error
}

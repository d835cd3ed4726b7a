package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/utils"
)

type basketUsecase struct {
	baskets domain.BasketRepository
	catalog domain.CatalogLookup
}

// NewBasketUsecase creates a new basket use case
func NewBasketUsecase(baskets domain.BasketRepository, catalog domain.CatalogLookup) domain.BasketUsecase {
	return &basketUsecase{baskets: baskets, catalog: catalog}
}

// FindProduct looks a barcode up in the catalog
func (uc *basketUsecase) FindProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if !utils.ValidateBarcode(barcode) {
		return nil, fmt.Errorf("%w: invalid barcode %q", domain.ErrInvalidLine, barcode)
	}
	return uc.catalog.FindProduct(ctx, barcode)
}

// AddProduct adds a catalog product to the basket, incrementing the
// quantity when the barcode is already present
func (uc *basketUsecase) AddProduct(ctx context.Context, sessionID, barcode string, quantity int) ([]domain.BasketLine, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidLine)
	}
	product, err := uc.FindProduct(ctx, barcode)
	if err != nil {
		return nil, err
	}

	line := domain.BasketLine{
		ProductCode: product.Barcode,
		Description: product.Description,
		Quantity:    quantity,
	}
	if err := line.Validate(); err != nil {
		return nil, err
	}
	return uc.baskets.AddLine(ctx, sessionID, line)
}

// Lines returns the current basket
func (uc *basketUsecase) Lines(ctx context.Context, sessionID string) ([]domain.BasketLine, error) {
	return uc.baskets.GetLines(ctx, sessionID)
}

// RemoveProduct drops a barcode from the basket
func (uc *basketUsecase) RemoveProduct(ctx context.Context, sessionID, barcode string) error {
	return uc.baskets.RemoveLine(ctx, sessionID, strings.TrimSpace(barcode))
}

// Clear empties the basket
func (uc *basketUsecase) Clear(ctx context.Context, sessionID string) error {
	return uc.baskets.Clear(ctx, sessionID)
}

package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/adapter/adaptertest"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
)

type memoryBasket struct {
	lines map[string][]domain.BasketLine
}

func (m *memoryBasket) GetLines(_ context.Context, sessionID string) ([]domain.BasketLine, error) {
	return append([]domain.BasketLine{}, m.lines[sessionID]...), nil
}

func (m *memoryBasket) AddLine(_ context.Context, sessionID string, line domain.BasketLine) ([]domain.BasketLine, error) {
	lines := m.lines[sessionID]
	for i := range lines {
		if lines[i].ProductCode == line.ProductCode {
			lines[i].Quantity += line.Quantity
			return lines, nil
		}
	}
	m.lines[sessionID] = append(lines, line)
	return m.lines[sessionID], nil
}

func (m *memoryBasket) RemoveLine(_ context.Context, sessionID, productCode string) error {
	var kept []domain.BasketLine
	for _, line := range m.lines[sessionID] {
		if line.ProductCode != productCode {
			kept = append(kept, line)
		}
	}
	m.lines[sessionID] = kept
	return nil
}

func (m *memoryBasket) Clear(_ context.Context, sessionID string) error {
	delete(m.lines, sessionID)
	return nil
}

func newBasketUsecase() domain.BasketUsecase {
	catalog := adaptertest.Catalog{
		scenarioBarcode: {Description: "IBUPROFENO 400 MG x 20", InternalID: "48213"},
	}
	return NewBasketUsecase(&memoryBasket{lines: map[string][]domain.BasketLine{}}, catalog)
}

func TestAddProductUsesCatalogDescription(t *testing.T) {
	uc := newBasketUsecase()
	ctx := context.Background()

	_, err := uc.AddProduct(ctx, "u1", scenarioBarcode, 2)
	require.NoError(t, err)
	lines, err := uc.AddProduct(ctx, "u1", " "+scenarioBarcode+" ", 1)
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.Equal(t, domain.BasketLine{ProductCode: scenarioBarcode, Description: "IBUPROFENO 400 MG x 20", Quantity: 3}, lines[0])
}

func TestAddProductValidation(t *testing.T) {
	uc := newBasketUsecase()
	ctx := context.Background()

	_, err := uc.AddProduct(ctx, "u1", scenarioBarcode, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidLine)

	_, err = uc.AddProduct(ctx, "u1", "abc", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidLine)

	_, err = uc.AddProduct(ctx, "u1", "7790000000001", 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	lines, err := uc.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRemoveAndClear(t *testing.T) {
	uc := newBasketUsecase()
	ctx := context.Background()

	_, err := uc.AddProduct(ctx, "u1", scenarioBarcode, 1)
	require.NoError(t, err)
	require.NoError(t, uc.RemoveProduct(ctx, "u1", scenarioBarcode))

	lines, err := uc.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)

	_, err = uc.AddProduct(ctx, "u1", scenarioBarcode, 1)
	require.NoError(t, err)
	require.NoError(t, uc.Clear(ctx, "u1"))
	lines, err = uc.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

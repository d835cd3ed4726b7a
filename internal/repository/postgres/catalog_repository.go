package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
)

type catalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates the lookup over the Plex product catalog
func NewCatalogRepository(db *sqlx.DB) domain.CatalogLookup {
	return &catalogRepository{db: db}
}

// ResolveInternalID maps a barcode to the Plex product id
func (r *catalogRepository) ResolveInternalID(ctx context.Context, barcode string) (string, error) {
	query := `SELECT pc.idproducto::text FROM productoscodebars pc WHERE pc.codebar = $1 LIMIT 1`

	var id string
	err := r.db.GetContext(ctx, &id, query, barcode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrProductNotFound
		}
		logger.Error("Failed to resolve catalog id",
			logger.String("codigo_barras", barcode),
			logger.ErrorField(err),
		)
		return "", fmt.Errorf("failed to resolve catalog id: %w", err)
	}
	if id == "" {
		return "", domain.ErrProductNotFound
	}

	return id, nil
}

// FindProduct returns the barcode with its catalog description
func (r *catalogRepository) FindProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	query := `
		SELECT pc.codebar AS codigo_barras,
			CONCAT(m.Producto, ' ', m.Presentaci) AS descripcion,
			pc.idproducto::text AS id_producto
		FROM productoscodebars pc
		JOIN medicamentos m ON pc.idproducto = m.CodPlex
		WHERE pc.codebar = $1
		LIMIT 1
	`

	var product domain.Product
	err := r.db.GetContext(ctx, &product, query, barcode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		logger.Error("Failed to find product",
			logger.String("codigo_barras", barcode),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	return &product, nil
}

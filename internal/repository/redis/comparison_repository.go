package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
)

type comparisonRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewComparisonRepository keeps comparison tables between the compare and
// the confirm step for ttl
func NewComparisonRepository(client *redis.Client, ttl time.Duration) domain.ComparisonStore {
	if ttl <= 0 {
		ttl = DefaultTableTTL
	}
	return &comparisonRepository{client: client, ttl: ttl}
}

// Save stores the table under its id
func (r *comparisonRepository) Save(ctx context.Context, table *domain.ComparisonTable) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to marshal comparison table: %w", err)
	}

	if err := r.client.Set(ctx, ComparisonKeyPrefix+table.ID, data, r.ttl).Err(); err != nil {
		logger.Error("Failed to save comparison table",
			logger.String("table_id", table.ID),
			logger.ErrorField(err),
		)
		return fmt.Errorf("failed to save comparison table: %w", err)
	}

	logger.Debug("Comparison table saved",
		logger.String("table_id", table.ID),
		logger.Int("rows", len(table.Rows)),
	)
	return nil
}

// Get loads a table; expired or unknown ids return ErrTableNotFound
func (r *comparisonRepository) Get(ctx context.Context, id string) (*domain.ComparisonTable, error) {
	data, err := r.client.Get(ctx, ComparisonKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrTableNotFound
		}
		logger.Error("Failed to get comparison table",
			logger.String("table_id", id),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to get comparison table: %w", err)
	}

	var table domain.ComparisonTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comparison table: %w", err)
	}
	return &table, nil
}

package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
)

type dispatchGuard struct {
	client *redis.Client
}

// NewDispatchGuard creates a guard that lets each table be dispatched once
func NewDispatchGuard(client *redis.Client) domain.DispatchGuard {
	return &dispatchGuard{client: client}
}

// Claim marks the table as dispatched; only the first caller gets true
func (g *dispatchGuard) Claim(ctx context.Context, tableID string) (bool, error) {
	claimed, err := g.client.SetNX(ctx, DispatchKeyPrefix+tableID, "1", DispatchMarkerTTL).Result()
	if err != nil {
		logger.Error("Failed to claim comparison table",
			logger.String("table_id", tableID),
			logger.ErrorField(err),
		)
		return false, fmt.Errorf("failed to claim comparison table: %w", err)
	}
	return claimed, nil
}

// Release frees the table so it can be dispatched again
func (g *dispatchGuard) Release(ctx context.Context, tableID string) error {
	if err := g.client.Del(ctx, DispatchKeyPrefix+tableID).Err(); err != nil {
		logger.Error("Failed to release comparison table",
			logger.String("table_id", tableID),
			logger.ErrorField(err),
		)
		return fmt.Errorf("failed to release comparison table: %w", err)
	}
	return nil
}

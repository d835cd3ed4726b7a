package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
)

type basketRepository struct {
	client *redis.Client
}

// NewBasketRepository creates a basket store keeping one JSON list per session
func NewBasketRepository(client *redis.Client) domain.BasketRepository {
	return &basketRepository{client: client}
}

func basketKey(sessionID string) string {
	return BasketKeyPrefix + sessionID
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readLines(ctx context.Context, store getter, key string) ([]domain.BasketLine, error) {
	data, err := store.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []domain.BasketLine{}, nil
		}
		return nil, err
	}

	var lines []domain.BasketLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("failed to unmarshal basket: %w", err)
	}
	if lines == nil {
		lines = []domain.BasketLine{}
	}
	return lines, nil
}

// GetLines returns the basket lines in insertion order
func (r *basketRepository) GetLines(ctx context.Context, sessionID string) ([]domain.BasketLine, error) {
	lines, err := readLines(ctx, r.client, basketKey(sessionID))
	if err != nil {
		logger.Error("Failed to get basket",
			logger.String("session_id", sessionID),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrBasketUnavailable, err)
	}
	return lines, nil
}

// AddLine appends a line, or increments the quantity of an existing barcode
func (r *basketRepository) AddLine(ctx context.Context, sessionID string, line domain.BasketLine) ([]domain.BasketLine, error) {
	var result []domain.BasketLine
	err := r.update(ctx, sessionID, func(lines []domain.BasketLine) []domain.BasketLine {
		for i := range lines {
			if lines[i].ProductCode == line.ProductCode {
				lines[i].Quantity += line.Quantity
				if lines[i].Description == "" {
					lines[i].Description = line.Description
				}
				result = lines
				return lines
			}
		}
		result = append(lines, line)
		return result
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveLine drops the line of productCode; removing a missing line is a no-op
func (r *basketRepository) RemoveLine(ctx context.Context, sessionID, productCode string) error {
	return r.update(ctx, sessionID, func(lines []domain.BasketLine) []domain.BasketLine {
		kept := lines[:0]
		for _, line := range lines {
			if line.ProductCode != productCode {
				kept = append(kept, line)
			}
		}
		return kept
	})
}

// Clear empties the basket
func (r *basketRepository) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, basketKey(sessionID)).Err(); err != nil {
		logger.Error("Failed to clear basket",
			logger.String("session_id", sessionID),
			logger.ErrorField(err),
		)
		return fmt.Errorf("%w: %v", domain.ErrBasketUnavailable, err)
	}
	return nil
}

// update applies fn under WATCH so concurrent edits of one basket do not
// overwrite each other.
func (r *basketRepository) update(ctx context.Context, sessionID string, fn func([]domain.BasketLine) []domain.BasketLine) error {
	key := basketKey(sessionID)

	txf := func(tx *redis.Tx) error {
		lines, err := readLines(ctx, tx, key)
		if err != nil {
			return err
		}
		data, err := json.Marshal(fn(lines))
		if err != nil {
			return fmt.Errorf("failed to marshal basket: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, BasketTTL)
			return nil
		})
		return err
	}

	for i := 0; i < maxBasketRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			logger.Error("Failed to update basket",
				logger.String("session_id", sessionID),
				logger.ErrorField(err),
			)
			return fmt.Errorf("%w: %v", domain.ErrBasketUnavailable, err)
		}
		return nil
	}
	return fmt.Errorf("%w: too many concurrent updates", domain.ErrBasketUnavailable)
}

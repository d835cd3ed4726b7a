package worker

import (
	"context"
	"time"

	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
)

// Sweeper drops cached entries that are stale at now and reports how many
// were removed.
type Sweeper interface {
	Sweep(now time.Time) int
}

// TokenSweeper periodically evicts expired supplier tokens from the
// in-process cache. Callers manage its lifecycle through the context.
type TokenSweeper struct {
	cache    Sweeper
	interval time.Duration
	now      func() time.Time
}

// TokenSweeperConfig defines runtime options for the sweeper.
type TokenSweeperConfig struct {
	Interval time.Duration
}

// NewTokenSweeper builds a new sweeper instance.
func NewTokenSweeper(cache Sweeper, cfg TokenSweeperConfig) *TokenSweeper {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	return &TokenSweeper{
		cache:    cache,
		interval: interval,
		now:      time.Now,
	}
}

// Start launches the sweep loop. It blocks until context cancellation.
func (w *TokenSweeper) Start(ctx context.Context) {
	logger.Info("Token sweeper started", logger.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Token sweeper stopping", logger.ErrorField(ctx.Err()))
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *TokenSweeper) sweep() int {
	if w.cache == nil {
		logger.Warn("Token sweeper missing cache")
		return 0
	}

	removed := w.cache.Sweep(w.now())
	if removed > 0 {
		logger.Debug("Expired tokens evicted", logger.Int("removed", removed))
	}
	return removed
}

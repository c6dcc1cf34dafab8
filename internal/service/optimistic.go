package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// mutation describes an optimistic write: the cached view is updated first,
// the durable write follows, and a failed commit restores the previous view.
type mutation[T any] struct {
	key      string
	previous T
	next     T
	ttl      time.Duration
	commit   func(ctx context.Context) error
}

// commitMutation applies the optimistic cache update, runs the durable
// commit, and rolls the cache back on failure. The cache itself is best
// effort throughout; only the commit error is returned.
func commitMutation[T any](ctx context.Context, cache *CacheService, logger *zap.Logger, m mutation[T]) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	applied := false
	if cache.Enabled() {
		if err := cache.Set(ctx, m.key, m.next, m.ttl); err == nil {
			applied = true
		}
	}
	if err := m.commit(ctx); err != nil {
		if applied {
			if rbErr := cache.Set(ctx, m.key, m.previous, m.ttl); rbErr != nil {
				logger.Warn("optimistic rollback failed", zap.String("key", m.key), zap.Error(rbErr))
			}
		}
		return err
	}
	return nil
}

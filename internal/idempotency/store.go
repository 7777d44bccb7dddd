// Package idempotency records which appeals have already been processed so
// that redelivered records are acknowledged without being processed again.
package idempotency

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"moderator/internal/config"
	"moderator/internal/constants"
	"moderator/internal/logger"
)

// Store is the membership set of processed appeal ids.
//
// MarkProcessed always records the id in memory before attempting the
// durable write. A failed durable write is returned to the caller, but the id
// stays marked for the life of the process.
type Store interface {
	IsProcessed(ctx context.Context, appealID string) (bool, error)
	MarkProcessed(ctx context.Context, appealID string) error
	Count() int64
	Close() error
}

// New builds the store selected by cfg.Type. The redis client is only
// required for the redis store.
func New(cfg config.IdempotencyConfig, redisClient redis.UniversalClient, log logger.Logger) (Store, error) {
	switch cfg.Type {
	case constants.StoreTypeFile, "":
		path := cfg.Path
		if path == "" {
			path = constants.DefaultIdempotencyLog
		}
		return NewFileStore(path, log)
	case constants.StoreTypeRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis idempotency store requires a redis client")
		}
		key := cfg.RedisKey
		if key == "" {
			key = constants.DefaultIdempotencyRedisKey
		}
		return NewRedisStore(redisClient, key, log), nil
	default:
		return nil, fmt.Errorf("unsupported idempotency store type: %s", cfg.Type)
	}
}

package idempotency

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"moderator/internal/logger"
	apperrors "moderator/pkg/errors"
)

// RedisStore keeps the durable set in a Redis SET. A local sync.Map fronts it
// so that ids marked by this process are answered without a round trip, and
// so a failed SADD still suppresses duplicates until restart.
type RedisStore struct {
	client redis.UniversalClient
	key    string
	logger logger.Logger

	local sync.Map
	count atomic.Int64
}

func NewRedisStore(client redis.UniversalClient, key string, log logger.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		key:    key,
		logger: log.Named("idempotency"),
	}
}

func (s *RedisStore) IsProcessed(ctx context.Context, appealID string) (bool, error) {
	if _, ok := s.local.Load(appealID); ok {
		return true, nil
	}

	member, err := s.client.SIsMember(ctx, s.key, appealID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check processed appeal %s: %w", appealID, err)
	}
	if member {
		s.local.Store(appealID, struct{}{})
	}
	return member, nil
}

func (s *RedisStore) MarkProcessed(ctx context.Context, appealID string) error {
	if _, loaded := s.local.LoadOrStore(appealID, struct{}{}); !loaded {
		s.count.Add(1)
	}

	if err := s.client.SAdd(ctx, s.key, appealID).Err(); err != nil {
		s.logger.ErrorwCtx(ctx, "Failed to add appeal to processed set", "key", s.key, "error", err)
		return apperrors.ErrIdempotencyWrite.WithCause(err).WithDetail("appeal_id", appealID)
	}
	return nil
}

// Count returns the number of ids marked by this process.
func (s *RedisStore) Count() int64 {
	return s.count.Load()
}

// Close is a no-op; the client is owned by the caller.
func (s *RedisStore) Close() error {
	return nil
}

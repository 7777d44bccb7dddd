package enrichmentstub

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"moderator/internal/config"
	"moderator/internal/constants"
	"moderator/internal/logger"
	apperrors "moderator/pkg/errors"
	"moderator/pkg/metrics"
	"moderator/pkg/models"
)

type Service interface {
	Enrich(ctx context.Context, clientID string) (models.EnrichmentData, error)
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

type service struct {
	cache      redis.UniversalClient
	ttl        time.Duration
	minLatency time.Duration
	maxLatency time.Duration
	now        func() time.Time
	logger     logger.Logger
}

// NewService builds the stub. cache may be nil, in which case every lookup
// is generated.
func NewService(cfg config.StubConfig, cache redis.UniversalClient, log logger.Logger, opts ...Option) Service {
	s := &service{
		cache:      cache,
		ttl:        time.Duration(cfg.CacheTTLSeconds) * time.Second,
		minLatency: cfg.MinLatency,
		maxLatency: cfg.MaxLatency,
		now:        time.Now,
		logger:     log.Named("enrichment-stub"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func CacheKey(clientID string) string {
	return constants.CacheKeyPrefixEnrich + clientID
}

func (s *service) Enrich(ctx context.Context, clientID string) (models.EnrichmentData, error) {
	if strings.TrimSpace(clientID) == "" {
		return models.EnrichmentData{}, apperrors.ErrValidation.WithDetail("field", "clientId")
	}

	if data, ok := s.fromCache(ctx, clientID); ok {
		metrics.IncStubRequest("cache")
		return data, nil
	}

	if err := s.simulateLatency(ctx); err != nil {
		return models.EnrichmentData{}, apperrors.ErrTimeout.WithCause(err)
	}

	data := Generate(clientID, s.now())
	s.toCache(ctx, data)

	metrics.IncStubRequest("generated")
	s.logger.InfowCtx(ctx, "Enrichment completed",
		"client_id", clientID,
		"fraud_score", data.FraudScore,
		"support_rating", data.SupportRating,
		"is_vip", data.IsVIP,
		"risk_category", data.RiskCategory,
	)

	return data, nil
}

func (s *service) fromCache(ctx context.Context, clientID string) (models.EnrichmentData, bool) {
	if s.cache == nil {
		return models.EnrichmentData{}, false
	}

	raw, err := s.cache.Get(ctx, CacheKey(clientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.IncStubCacheOperation("get", "miss")
		return models.EnrichmentData{}, false
	}
	if err != nil {
		metrics.IncStubCacheOperation("get", "error")
		s.logger.WarnwCtx(ctx, "Enrichment cache read failed", "client_id", clientID, "error", err)
		return models.EnrichmentData{}, false
	}

	var data models.EnrichmentData
	if err := json.Unmarshal(raw, &data); err != nil {
		metrics.IncStubCacheOperation("get", "error")
		s.logger.WarnwCtx(ctx, "Discarding undecodable cache entry", "client_id", clientID, "error", err)
		return models.EnrichmentData{}, false
	}

	metrics.IncStubCacheOperation("get", "hit")
	return data, true
}

func (s *service) toCache(ctx context.Context, data models.EnrichmentData) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		metrics.IncStubCacheOperation("set", "error")
		return
	}

	if err := s.cache.Set(ctx, CacheKey(data.ClientID), raw, s.ttl).Err(); err != nil {
		metrics.IncStubCacheOperation("set", "error")
		s.logger.WarnwCtx(ctx, "Enrichment cache write failed", "client_id", data.ClientID, "error", err)
		return
	}
	metrics.IncStubCacheOperation("set", "ok")
}

func (s *service) simulateLatency(ctx context.Context) error {
	delay := s.minLatency
	if spread := s.maxLatency - s.minLatency; spread > 0 {
		delay += rand.N(spread)
	}
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

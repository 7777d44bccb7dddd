// Package enrichment resolves the risk profile of a client for moderation.
package enrichment

import (
	"context"
	"errors"
	"time"

	"moderator/internal/config"
	"moderator/internal/constants"
	"moderator/internal/enrichment/provider"
	"moderator/internal/logger"
	apperrors "moderator/pkg/errors"
	"moderator/pkg/metrics"
	"moderator/pkg/models"
	"moderator/pkg/retry"
)

const (
	fallbackRetriesExhausted = "retries_exhausted"
	fallbackNonRetryable     = "non_retryable"
	fallbackCircuitOpen      = "circuit_open"
	fallbackPanic            = "panic"
)

// Gateway never fails: when the upstream cannot answer it substitutes the
// neutral fallback profile for the requested client.
type Gateway interface {
	Fetch(ctx context.Context, clientID string) models.EnrichmentData
}

type gatewayImpl struct {
	provider provider.Provider
	policy   retry.Policy
	timeout  time.Duration
	logger   logger.Logger
	now      func() time.Time
}

type Option func(*gatewayImpl)

// WithClock overrides the clock used to stamp fallback profiles.
func WithClock(now func() time.Time) Option {
	return func(g *gatewayImpl) {
		g.now = now
	}
}

func NewGateway(p provider.Provider, cfg config.EnrichmentConfig, log logger.Logger, opts ...Option) Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultEnrichmentTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	g := &gatewayImpl{
		provider: p,
		policy: retry.Policy{
			MaxAttempts:     maxRetries + 1,
			Strategy:        retry.StrategyFixed,
			InitialInterval: cfg.RetryDelay,
		},
		timeout: timeout,
		logger:  log.Named("enrichment"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *gatewayImpl) Fetch(ctx context.Context, clientID string) (data models.EnrichmentData) {
	defer func() {
		if r := recover(); r != nil {
			err := apperrors.RecoverPanic(r)
			g.logger.ErrorwCtx(ctx, "Enrichment lookup panicked, using fallback", "client_id", clientID, "error", err)
			data = g.fallback(clientID, fallbackPanic)
		}
	}()

	g.logger.DebugwCtx(ctx, "Fetching enrichment", "client_id", clientID)

	var result *models.EnrichmentData
	err := retry.Do(ctx, g.policy, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		start := time.Now()
		fetched, err := g.provider.Fetch(attemptCtx, clientID)
		metrics.IncEnrichmentRequest(attemptStatus(err), time.Since(start))
		if err != nil {
			return err
		}
		result = fetched
		return nil
	}, func(attempt int, err error, next time.Duration) {
		metrics.IncRetryAttempt(constants.ServiceNameModeration, "enrichment")
		g.logger.WarnwCtx(ctx, "Transient enrichment failure, retrying",
			"client_id", clientID,
			"attempt", attempt,
			"next_delay", next,
			"error", err,
		)
	})

	if err == nil && result != nil {
		g.logger.InfowCtx(ctx, "Enrichment received",
			"client_id", clientID,
			"fraud_score", result.FraudScore,
			"risk_category", result.RiskCategory,
		)
		return *result
	}

	reason := fallbackNonRetryable
	switch {
	case isBreakerRejection(err):
		reason = fallbackCircuitOpen
	case apperrors.IsRetryable(err):
		reason = fallbackRetriesExhausted
	}

	g.logger.WarnwCtx(ctx, "Enrichment unavailable, using fallback",
		"client_id", clientID,
		"reason", reason,
		"error", err,
	)
	return g.fallback(clientID, reason)
}

func (g *gatewayImpl) fallback(clientID, reason string) models.EnrichmentData {
	metrics.IncFallbackUsage(constants.ServiceNameModeration, "neutral_profile", reason)
	return models.FallbackEnrichment(clientID, g.now())
}

func isBreakerRejection(err error) bool {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		return false
	}
	_, ok := appErr.Details["circuit_breaker"]
	return ok
}

func attemptStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case apperrors.IsRetryable(err):
		return "transient"
	case errors.Is(err, apperrors.ErrUpstreamPermanent):
		return "permanent"
	default:
		return "error"
	}
}

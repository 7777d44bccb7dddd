package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	apperrors "moderator/pkg/errors"
)

type Strategy int

const (
	// StrategyFixed waits InitialInterval between every attempt.
	StrategyFixed Strategy = iota
	StrategyExponential
)

// Policy bounds a retry loop. MaxAttempts counts the first call.
type Policy struct {
	MaxAttempts     int
	Strategy        Strategy
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		Strategy:        StrategyFixed,
		InitialInterval: 500 * time.Millisecond,
	}
}

func (p Policy) backOff() backoff.BackOff {
	if p.Strategy == StrategyExponential {
		return ExponentialBackoff(p.InitialInterval, p.MaxInterval, p.Multiplier)
	}
	return FixedBackoff(p.InitialInterval)
}

// OnRetry is invoked before sleeping ahead of the next attempt.
type OnRetry func(attempt int, err error, nextDelay time.Duration)

// Do calls fn until it succeeds, the attempt budget is spent, ctx is done, or
// fn returns an error that is not classified as retryable. Unclassified errors
// are not retried. The last error from fn is returned unwrapped.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error, onRetry OnRetry) error {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}

	var b backoff.BackOff = policy.backOff()
	b = backoff.WithMaxRetries(b, uint64(policy.MaxAttempts-1))
	b = backoff.WithContext(b, ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if !apperrors.IsRetryable(err) {
			return backoff.Permanent(err)
		}

		return err
	}

	notify := func(err error, next time.Duration) {
		if onRetry != nil {
			onRetry(attempt, err, next)
		}
	}

	err := backoff.RetryNotify(operation, b, notify)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}
	return err
}

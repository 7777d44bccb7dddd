package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "moderator/pkg/errors"
)

func testConfig(name string) Config {
	cfg := DefaultConfig(name)
	cfg.Timeout = time.Hour
	cfg.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 2
	}
	return cfg
}

func TestBreaker_OpensOnTransientFailures(t *testing.T) {
	b := New(testConfig("test-transient"))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := b.Execute(ctx, func(ctx context.Context) error {
			return apperrors.ErrUpstreamTransient
		})
		require.Error(t, err)
	}

	assert.True(t, b.IsOpen())

	called := false
	err := b.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavailable))
	assert.False(t, apperrors.IsRetryable(err))
}

func TestBreaker_PermanentFailuresDoNotTrip(t *testing.T) {
	b := New(testConfig("test-permanent"))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := b.Execute(ctx, func(ctx context.Context) error {
			return apperrors.ErrUpstreamPermanent
		})
		assert.True(t, errors.Is(err, apperrors.ErrUpstreamPermanent))
	}

	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_CancelledContext(t *testing.T) {
	b := New(testConfig("test-cancelled"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Execute(ctx, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

package enrichment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moderator/internal/config"
	"moderator/internal/enrichment/provider"
	"moderator/internal/logger"
	"moderator/pkg/models"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func testConfig() config.EnrichmentConfig {
	return config.EnrichmentConfig{
		Timeout:    200 * time.Millisecond,
		MaxRetries: 2,
		RetryDelay: 5 * time.Millisecond,
	}
}

// scriptedServer answers with the given statuses in order and then keeps
// repeating the last one. A 200 writes the profile.
func scriptedServer(t *testing.T, profile models.EnrichmentData, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		status := statuses[len(statuses)-1]
		if n <= len(statuses) {
			status = statuses[n-1]
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(profile)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newGateway(baseURL string, cfg config.EnrichmentConfig) Gateway {
	p := provider.NewAPIProvider(baseURL, nil)
	return NewGateway(p, cfg, logger.NopLogger(), WithClock(func() time.Time { return fixedNow }))
}

func assertFallback(t *testing.T, clientID string, data models.EnrichmentData) {
	t.Helper()
	assert.Equal(t, models.FallbackEnrichment(clientID, fixedNow), data)
}

func TestGateway_SucceedsOnThirdAttempt(t *testing.T) {
	profile := models.NewEnrichmentDataBuilder("c-1").WithFraudScore(0.91).Build()
	srv, calls := scriptedServer(t, profile, http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusOK)

	data := newGateway(srv.URL, testConfig()).Fetch(context.Background(), "c-1")

	assert.Equal(t, profile, data)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGateway_FallsBackAfterRetriesExhausted(t *testing.T) {
	srv, calls := scriptedServer(t, models.EnrichmentData{}, http.StatusServiceUnavailable)

	data := newGateway(srv.URL, testConfig()).Fetch(context.Background(), "c-1")

	assertFallback(t, "c-1", data)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGateway_RetriesRateLimit(t *testing.T) {
	profile := models.NewEnrichmentDataBuilder("c-2").Build()
	srv, calls := scriptedServer(t, profile, http.StatusTooManyRequests, http.StatusOK)

	data := newGateway(srv.URL, testConfig()).Fetch(context.Background(), "c-2")

	assert.Equal(t, profile, data)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGateway_DoesNotRetryClientErrors(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusBadRequest, http.StatusUnauthorized} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv, calls := scriptedServer(t, models.EnrichmentData{}, status)

			data := newGateway(srv.URL, testConfig()).Fetch(context.Background(), "c-3")

			assertFallback(t, "c-3", data)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestGateway_DoesNotRetryUndecodableBody(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	data := newGateway(srv.URL, testConfig()).Fetch(context.Background(), "c-4")

	assertFallback(t, "c-4", data)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGateway_TimeoutAbandonsAttempt(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond

	start := time.Now()
	data := newGateway(srv.URL, cfg).Fetch(context.Background(), "c-5")

	assertFallback(t, "c-5", data)
	assert.Equal(t, int32(1), calls.Load())
	assert.Less(t, time.Since(start), time.Second)
}

func TestGateway_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	data := newGateway(url, testConfig()).Fetch(context.Background(), "c-6")

	assertFallback(t, "c-6", data)
}

type panickingProvider struct{}

func (panickingProvider) Fetch(ctx context.Context, clientID string) (*models.EnrichmentData, error) {
	panic("unexpected nil profile")
}

func TestGateway_PanicFallsBack(t *testing.T) {
	g := NewGateway(panickingProvider{}, testConfig(), logger.NopLogger(), WithClock(func() time.Time { return fixedNow }))

	data := g.Fetch(context.Background(), "c-7")

	assertFallback(t, "c-7", data)
}

func TestGateway_FallbackCarriesRequestedClientID(t *testing.T) {
	srv, _ := scriptedServer(t, models.EnrichmentData{}, http.StatusInternalServerError)

	data := newGateway(srv.URL, testConfig()).Fetch(context.Background(), "client-with-id")

	assert.Equal(t, "client-with-id", data.ClientID)
}

func TestGateway_CircuitBreakerShortCircuits(t *testing.T) {
	srv, calls := scriptedServer(t, models.EnrichmentData{}, http.StatusServiceUnavailable)

	cbCfg := config.CircuitBreakerConfig{
		Enabled:      true,
		Timeout:      time.Hour,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
	p := provider.WrapWithCircuitBreaker(provider.NewAPIProvider(srv.URL, nil), "enrichment-test", cbCfg)
	g := NewGateway(p, testConfig(), logger.NopLogger(), WithClock(func() time.Time { return fixedNow }))

	assertFallback(t, "c-8", g.Fetch(context.Background(), "c-8"))
	require.Equal(t, int32(3), calls.Load())

	assertFallback(t, "c-8", g.Fetch(context.Background(), "c-8"))
	assert.Equal(t, int32(3), calls.Load(), "open breaker must not reach the upstream")
}

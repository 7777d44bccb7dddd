package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "moderator/pkg/errors"
)

func TestAPIProvider_URL(t *testing.T) {
	p := NewAPIProvider("http://enrichment:8081/", nil)

	assert.Equal(t, "http://enrichment:8081/api/v1/clients/12345/enrichment", p.URL("12345"))
	assert.Equal(t, "http://enrichment:8081/api/v1/clients/a%2Fb/enrichment", p.URL("a/b"))
}

func TestAPIProvider_Fetch(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"clientId":"12345","fraudScore":0.55,"supportRating":4.5,"isVIP":false,` +
			`"previousComplaints":0,"riskCategory":"MEDIUM","lastInteractionTimestamp":1710498600000}`))
	}))
	defer srv.Close()

	data, err := NewAPIProvider(srv.URL, nil).Fetch(context.Background(), "12345")
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/clients/12345/enrichment", gotPath)
	assert.Equal(t, 0.55, data.FraudScore)
	assert.Equal(t, 4.5, data.SupportRating)
	assert.Equal(t, int64(1710498600000), data.LastInteractionTimestamp)
}

func TestAPIProvider_ClassifiesStatus(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
		target    error
	}{
		{http.StatusInternalServerError, true, apperrors.ErrUpstreamTransient},
		{http.StatusBadGateway, true, apperrors.ErrUpstreamTransient},
		{http.StatusServiceUnavailable, true, apperrors.ErrUpstreamTransient},
		{http.StatusTooManyRequests, true, apperrors.ErrUpstreamTransient},
		{http.StatusNotFound, false, apperrors.ErrUpstreamPermanent},
		{http.StatusBadRequest, false, apperrors.ErrUpstreamPermanent},
		{http.StatusNoContent + 100, false, apperrors.ErrUpstreamPermanent},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := NewAPIProvider(srv.URL, nil).Fetch(context.Background(), "c-1")
			require.Error(t, err)
			assert.Equal(t, tt.retryable, apperrors.IsRetryable(err))
			assert.True(t, errors.Is(err, tt.target))
		})
	}
}

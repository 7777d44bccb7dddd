package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"moderator/internal/constants"
	apperrors "moderator/pkg/errors"
	"moderator/pkg/models"
	"moderator/pkg/tracing"
)

// APIProvider calls GET {baseURL}/api/v1/clients/{clientId}/enrichment.
//
// 5xx and 429 responses are reported as ErrUpstreamTransient. Any other
// non-2xx status, an undecodable body, or a transport failure is reported as
// a non-retryable error.
type APIProvider struct {
	baseURL string
	client  *http.Client
}

func NewAPIProvider(baseURL string, client *http.Client) *APIProvider {
	if client == nil {
		client = &http.Client{Transport: tracing.HTTPTransport(nil)}
	}
	return &APIProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (p *APIProvider) URL(clientID string) string {
	return p.baseURL + fmt.Sprintf(constants.EnrichmentPathTemplate, url.PathEscape(clientID))
}

func (p *APIProvider) Fetch(ctx context.Context, clientID string) (*models.EnrichmentData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL(clientID), nil)
	if err != nil {
		return nil, apperrors.ErrUpstreamPermanent.WithCause(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.ErrTimeout.WithCause(err).AsFatal()
		}
		return nil, apperrors.ErrServiceUnavailable.WithCause(fmt.Errorf("enrichment request failed: %w", err)).AsFatal()
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperrors.ErrUpstreamTransient.
			WithCause(fmt.Errorf("enrichment returned status: %d", resp.StatusCode)).
			WithDetail("status", resp.StatusCode)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, apperrors.ErrUpstreamPermanent.
			WithCause(fmt.Errorf("enrichment returned status: %d", resp.StatusCode)).
			WithDetail("status", resp.StatusCode)
	}

	var data models.EnrichmentData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, apperrors.ErrUpstreamPermanent.WithCause(fmt.Errorf("failed to decode response: %w", err))
	}

	return &data, nil
}

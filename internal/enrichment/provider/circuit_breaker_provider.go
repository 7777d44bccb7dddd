package provider

import (
	"context"

	"moderator/pkg/circuitbreaker"
	"moderator/pkg/models"
)

type CircuitBreakerProvider struct {
	provider Provider
	cb       *circuitbreaker.Breaker
}

func NewCircuitBreakerProvider(provider Provider, cfg circuitbreaker.Config) *CircuitBreakerProvider {
	return &CircuitBreakerProvider{
		provider: provider,
		cb:       circuitbreaker.New(cfg),
	}
}

func (p *CircuitBreakerProvider) Fetch(ctx context.Context, clientID string) (*models.EnrichmentData, error) {
	var data *models.EnrichmentData
	err := p.cb.Execute(ctx, func(ctx context.Context) error {
		var err error
		data, err = p.provider.Fetch(ctx, clientID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (p *CircuitBreakerProvider) State() string {
	return p.cb.State().String()
}

func (p *CircuitBreakerProvider) IsOpen() bool {
	return p.cb.IsOpen()
}

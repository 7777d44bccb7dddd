// Package provider issues single enrichment lookups against an upstream and
// classifies their failures. Retrying and fallback live one level up.
package provider

import (
	"context"

	"moderator/pkg/models"
)

type Provider interface {
	Fetch(ctx context.Context, clientID string) (*models.EnrichmentData, error)
}

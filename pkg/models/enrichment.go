package models

import "time"

type RiskCategory string

const (
	RiskLow      RiskCategory = "LOW"
	RiskMedium   RiskCategory = "MEDIUM"
	RiskHigh     RiskCategory = "HIGH"
	RiskCritical RiskCategory = "CRITICAL"
)

// EnrichmentData holds the risk attributes known about a client.
type EnrichmentData struct {
	ClientID                 string       `json:"clientId"`
	FraudScore               float64      `json:"fraudScore"`
	SupportRating            float64      `json:"supportRating"`
	IsVIP                    bool         `json:"isVIP"`
	PreviousComplaints       int          `json:"previousComplaints"`
	RiskCategory             RiskCategory `json:"riskCategory"`
	LastInteractionTimestamp int64        `json:"lastInteractionTimestamp"`
}

// FallbackEnrichment is the neutral profile substituted when the enrichment
// upstream cannot answer.
func FallbackEnrichment(clientID string, now time.Time) EnrichmentData {
	return EnrichmentData{
		ClientID:                 clientID,
		FraudScore:               0.5,
		SupportRating:            3.0,
		IsVIP:                    false,
		PreviousComplaints:       0,
		RiskCategory:             RiskMedium,
		LastInteractionTimestamp: now.UnixMilli(),
	}
}

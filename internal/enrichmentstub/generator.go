package enrichmentstub

import (
	"time"
	"unicode/utf16"

	"moderator/pkg/models"
)

// stringHash is the 31-multiplier hash over UTF-16 code units, with int32
// overflow.
func stringHash(s string) int32 {
	var h int32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = 31*h + int32(unit)
	}
	return h
}

func absHash(s string) int64 {
	h := int64(stringHash(s))
	if h < 0 {
		return -h
	}
	return h
}

// Generate derives a deterministic enrichment profile from clientID.
// Only LastInteractionTimestamp depends on now.
func Generate(clientID string, now time.Time) models.EnrichmentData {
	h := absHash(clientID)

	fraudScore := float64(h%100) / 100.0
	supportRating := 1.0 + float64(h%40)/10.0
	complaints := int(h % 5)

	return models.EnrichmentData{
		ClientID:                 clientID,
		FraudScore:               fraudScore,
		SupportRating:            supportRating,
		IsVIP:                    h%10 == 0,
		PreviousComplaints:       complaints,
		RiskCategory:             RiskFor(fraudScore, complaints),
		LastInteractionTimestamp: now.UnixMilli(),
	}
}

func RiskFor(fraudScore float64, complaints int) models.RiskCategory {
	switch {
	case fraudScore > 0.8 || complaints > 3:
		return models.RiskCritical
	case fraudScore > 0.6 || complaints > 2:
		return models.RiskHigh
	case fraudScore > 0.4 || complaints > 1:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

package enrichmentstub

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"moderator/pkg/models"
)

func TestStringHash(t *testing.T) {
	tests := []struct {
		in   string
		want int32
	}{
		{"", 0},
		{"a", 97},
		{"12345", 46792755},
		{"hello", 99162322},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, stringHash(tt.in))
		})
	}
}

func TestAbsHash_NeverNegative(t *testing.T) {
	for _, id := range []string{"12345", "client-with-a-long-identifier", "Ω-client", "polygenelubricants"} {
		assert.GreaterOrEqual(t, absHash(id), int64(0), id)
	}
	// "polygenelubricants" hashes to the minimum int32
	assert.Equal(t, int32(math.MinInt32), stringHash("polygenelubricants"))
	assert.Equal(t, int64(2147483648), absHash("polygenelubricants"))
}

func TestGenerate_KnownClient(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	data := Generate("12345", now)

	assert.Equal(t, "12345", data.ClientID)
	assert.InDelta(t, 0.55, data.FraudScore, 1e-9)
	assert.InDelta(t, 4.5, data.SupportRating, 1e-9)
	assert.False(t, data.IsVIP)
	assert.Equal(t, 0, data.PreviousComplaints)
	assert.Equal(t, models.RiskMedium, data.RiskCategory)
	assert.Equal(t, now.UnixMilli(), data.LastInteractionTimestamp)
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate("client-42", time.Unix(0, 0))
	b := Generate("client-42", time.Unix(100, 0))

	a.LastInteractionTimestamp = 0
	b.LastInteractionTimestamp = 0
	assert.Equal(t, a, b)
}

func TestGenerate_Ranges(t *testing.T) {
	for _, id := range []string{"1", "42", "vip", "12345", "polygenelubricants", "Ω-client"} {
		data := Generate(id, time.Now())

		assert.GreaterOrEqual(t, data.FraudScore, 0.0, id)
		assert.Less(t, data.FraudScore, 1.0, id)
		assert.GreaterOrEqual(t, data.SupportRating, 1.0, id)
		assert.LessOrEqual(t, data.SupportRating, 4.9+1e-9, id)
		assert.GreaterOrEqual(t, data.PreviousComplaints, 0, id)
		assert.Less(t, data.PreviousComplaints, 5, id)
	}
}

func TestRiskFor(t *testing.T) {
	tests := []struct {
		name       string
		fraud      float64
		complaints int
		want       models.RiskCategory
	}{
		{"critical by fraud", 0.81, 0, models.RiskCritical},
		{"critical by complaints", 0.1, 4, models.RiskCritical},
		{"high by fraud", 0.61, 0, models.RiskHigh},
		{"high by complaints", 0.1, 3, models.RiskHigh},
		{"medium by fraud", 0.41, 0, models.RiskMedium},
		{"medium by complaints", 0.1, 2, models.RiskMedium},
		{"boundaries are exclusive", 0.4, 1, models.RiskLow},
		{"low", 0.0, 0, models.RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RiskFor(tt.fraud, tt.complaints))
		})
	}
}

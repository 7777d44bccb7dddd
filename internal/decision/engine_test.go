package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"moderator/pkg/models"
)

func appeal(priority models.Priority, message string) models.AppealEvent {
	return models.NewAppealEventBuilder().
		WithAppealID("a-1").
		WithClientID("c-1").
		WithPriority(priority).
		WithMessage(message).
		Build()
}

func TestEngine_Decide(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name     string
		appeal   models.AppealEvent
		data     models.EnrichmentData
		decision models.Decision
		reason   string
		rule     string
	}{
		{
			name:     "fraud beats vip",
			appeal:   appeal(models.PriorityNormal, "hello"),
			data:     models.NewEnrichmentDataBuilder("c-1").WithFraudScore(0.9).WithVIP(true).Build(),
			decision: models.DecisionRejected,
			reason:   "High fraud risk (score: 0.90)",
			rule:     "high_fraud",
		},
		{
			name:     "fraud exactly at threshold is not rejected",
			appeal:   appeal(models.PriorityNormal, "hello"),
			data:     models.NewEnrichmentDataBuilder("c-1").WithFraudScore(0.8).Build(),
			decision: models.DecisionApproved,
			reason:   "Standard processing - all checks passed",
			rule:     "default",
		},
		{
			name:     "vip beats urgent and risk",
			appeal:   appeal(models.PriorityUrgent, "a problem"),
			data:     models.NewEnrichmentDataBuilder("c-1").WithVIP(true).WithRiskCategory(models.RiskCritical).Build(),
			decision: models.DecisionApproved,
			reason:   "VIP client - priority handling",
			rule:     "vip_client",
		},
		{
			name:     "urgent beats low rating complaint",
			appeal:   appeal(models.PriorityUrgent, "I have a problem"),
			data:     models.NewEnrichmentDataBuilder("c-1").WithSupportRating(1.2).Build(),
			decision: models.DecisionApproved,
			reason:   "Urgent priority appeal",
			rule:     "urgent_priority",
		},
		{
			name:     "low rating with complaint",
			appeal:   appeal(models.PriorityHigh, "Payment ISSUE again"),
			data:     models.NewEnrichmentDataBuilder("c-1").WithSupportRating(2.0).WithPreviousComplaints(4).Build(),
			decision: models.DecisionReviewRequired,
			reason:   "Low rating (2.0) with complaint",
			rule:     "low_rating_complaint",
		},
		{
			name:     "low rating without complaint falls through to complaints count",
			appeal:   appeal(models.PriorityNormal, "thanks for the help"),
			data:     models.NewEnrichmentDataBuilder("c-1").WithSupportRating(1.5).WithPreviousComplaints(3).Build(),
			decision: models.DecisionReviewRequired,
			reason:   "Multiple previous complaints (3)",
			rule:     "repeat_complainer",
		},
		{
			name:     "two previous complaints is not enough",
			appeal:   appeal(models.PriorityNormal, "hello"),
			data:     models.NewEnrichmentDataBuilder("c-1").WithPreviousComplaints(2).Build(),
			decision: models.DecisionApproved,
			reason:   "Standard processing - all checks passed",
			rule:     "default",
		},
		{
			name:     "high risk category",
			appeal:   appeal(models.PriorityLow, "hello"),
			data:     models.NewEnrichmentDataBuilder("c-1").WithRiskCategory(models.RiskHigh).Build(),
			decision: models.DecisionReviewRequired,
			reason:   "High risk category: HIGH",
			rule:     "high_risk_category",
		},
		{
			name:     "critical risk category",
			appeal:   appeal(models.PriorityLow, "hello"),
			data:     models.NewEnrichmentDataBuilder("c-1").WithRiskCategory(models.RiskCritical).Build(),
			decision: models.DecisionReviewRequired,
			reason:   "High risk category: CRITICAL",
			rule:     "high_risk_category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := engine.Decide(tt.appeal, tt.data)

			assert.Equal(t, tt.decision, outcome.Decision)
			assert.Equal(t, tt.reason, outcome.Reason)
			assert.Equal(t, tt.rule, outcome.Rule)
		})
	}
}

func TestEngine_FallbackProfileIsApproved(t *testing.T) {
	engine := NewEngine()
	fallback := models.FallbackEnrichment("c-1", time.Now())

	for _, priority := range []models.Priority{models.PriorityLow, models.PriorityNormal, models.PriorityHigh} {
		outcome := engine.Decide(appeal(priority, "where is my card?"), fallback)

		assert.Equal(t, models.DecisionApproved, outcome.Decision)
		assert.Equal(t, "default", outcome.Rule)
	}

	outcome := engine.Decide(appeal(models.PriorityUrgent, "where is my card?"), fallback)
	assert.Equal(t, models.DecisionApproved, outcome.Decision)
	assert.Equal(t, "urgent_priority", outcome.Rule)
}

func TestIsComplaint(t *testing.T) {
	text := func(s string) *string { return &s }

	tests := []struct {
		name    string
		message *string
		want    bool
	}{
		{"absent", nil, false},
		{"empty", text(""), false},
		{"plain question", text("How do I change my PIN?"), false},
		{"mixed case", text("There is a PROBLEM with my card"), true},
		{"substring", text("issues with login"), true},
		{"complaint keyword", text("formal complaint"), true},
		{"cyrillic", text("Приложение НЕ РАБОТАЕТ"), true},
		{"cyrillic error", text("Ошибка при оплате"), true},
		{"cyrillic wrong", text("списали неправильно"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsComplaint(tt.message))
		})
	}
}

func TestRules_OrderIsFixed(t *testing.T) {
	var names []string
	for _, r := range Rules() {
		names = append(names, r.Name)
	}

	assert.Equal(t, []string{
		"high_fraud",
		"vip_client",
		"urgent_priority",
		"low_rating_complaint",
		"repeat_complainer",
		"high_risk_category",
		"default",
	}, names)
}

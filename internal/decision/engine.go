// Package decision maps an appeal and the client's enrichment profile to a
// moderation decision. Rules are evaluated in order and the first match wins.
package decision

import (
	"fmt"
	"strings"

	"moderator/pkg/models"
)

const (
	fraudThreshold      = 0.8
	lowRatingThreshold  = 2.5
	complaintsThreshold = 2
)

var complaintKeywords = []string{
	"problem",
	"issue",
	"complaint",
	"не работает",
	"ошибка",
	"неправильно",
}

// Rule is one row of the decision table.
type Rule struct {
	Name     string
	Matches  func(appeal models.AppealEvent, data models.EnrichmentData) bool
	Decision models.Decision
	Reason   func(appeal models.AppealEvent, data models.EnrichmentData) string
}

// Outcome is the verdict together with the rule that produced it.
type Outcome struct {
	Decision models.Decision
	Reason   string
	Rule     string
}

// Rules returns the decision table in evaluation order.
func Rules() []Rule {
	return []Rule{
		{
			Name: "high_fraud",
			Matches: func(_ models.AppealEvent, d models.EnrichmentData) bool {
				return d.FraudScore > fraudThreshold
			},
			Decision: models.DecisionRejected,
			Reason: func(_ models.AppealEvent, d models.EnrichmentData) string {
				return fmt.Sprintf("High fraud risk (score: %.2f)", d.FraudScore)
			},
		},
		{
			Name: "vip_client",
			Matches: func(_ models.AppealEvent, d models.EnrichmentData) bool {
				return d.IsVIP
			},
			Decision: models.DecisionApproved,
			Reason:   constant("VIP client - priority handling"),
		},
		{
			Name: "urgent_priority",
			Matches: func(a models.AppealEvent, _ models.EnrichmentData) bool {
				return a.Priority == models.PriorityUrgent
			},
			Decision: models.DecisionApproved,
			Reason:   constant("Urgent priority appeal"),
		},
		{
			Name: "low_rating_complaint",
			Matches: func(a models.AppealEvent, d models.EnrichmentData) bool {
				return d.SupportRating < lowRatingThreshold && IsComplaint(a.Message)
			},
			Decision: models.DecisionReviewRequired,
			Reason: func(_ models.AppealEvent, d models.EnrichmentData) string {
				return fmt.Sprintf("Low rating (%.1f) with complaint", d.SupportRating)
			},
		},
		{
			Name: "repeat_complainer",
			Matches: func(_ models.AppealEvent, d models.EnrichmentData) bool {
				return d.PreviousComplaints > complaintsThreshold
			},
			Decision: models.DecisionReviewRequired,
			Reason: func(_ models.AppealEvent, d models.EnrichmentData) string {
				return fmt.Sprintf("Multiple previous complaints (%d)", d.PreviousComplaints)
			},
		},
		{
			Name: "high_risk_category",
			Matches: func(_ models.AppealEvent, d models.EnrichmentData) bool {
				return d.RiskCategory == models.RiskHigh || d.RiskCategory == models.RiskCritical
			},
			Decision: models.DecisionReviewRequired,
			Reason: func(_ models.AppealEvent, d models.EnrichmentData) string {
				return fmt.Sprintf("High risk category: %s", d.RiskCategory)
			},
		},
		{
			Name: "default",
			Matches: func(models.AppealEvent, models.EnrichmentData) bool {
				return true
			},
			Decision: models.DecisionApproved,
			Reason:   constant("Standard processing - all checks passed"),
		},
	}
}

func constant(reason string) func(models.AppealEvent, models.EnrichmentData) string {
	return func(models.AppealEvent, models.EnrichmentData) string {
		return reason
	}
}

// IsComplaint reports whether message contains a complaint keyword, ignoring
// case. An absent message is never a complaint.
func IsComplaint(message *string) bool {
	if message == nil {
		return false
	}
	lower := strings.ToLower(*message)
	for _, keyword := range complaintKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// Engine evaluates a fixed rule table. It holds no mutable state.
type Engine struct {
	rules []Rule
}

func NewEngine() *Engine {
	return &Engine{rules: Rules()}
}

func (e *Engine) Decide(appeal models.AppealEvent, data models.EnrichmentData) Outcome {
	for _, rule := range e.rules {
		if rule.Matches(appeal, data) {
			return Outcome{
				Decision: rule.Decision,
				Reason:   rule.Reason(appeal, data),
				Rule:     rule.Name,
			}
		}
	}
	// Unreachable while the table ends with the default rule.
	return Outcome{
		Decision: models.DecisionApproved,
		Reason:   "Standard processing - all checks passed",
		Rule:     "default",
	}
}

package models

type Decision string

const (
	DecisionApproved       Decision = "APPROVED"
	DecisionRejected       Decision = "REJECTED"
	DecisionReviewRequired Decision = "REVIEW_REQUIRED"
)

// ModerationResult is published once per processed appeal.
type ModerationResult struct {
	AppealID       string       `json:"appealId"`
	ClientID       string       `json:"clientId"`
	Decision       Decision     `json:"decision"`
	Reason         string       `json:"reason"`
	RiskCategory   RiskCategory `json:"riskCategory"`
	ProcessedAt    LocalTime    `json:"processedAt"`
	OriginalAppeal AppealEvent  `json:"originalAppeal"`
}

package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Category string

const (
	CategoryComplaint Category = "COMPLAINT"
	CategoryQuestion  Category = "QUESTION"
	CategoryFeedback  Category = "FEEDBACK"
)

func (c *Category) UnmarshalText(text []byte) error {
	switch v := Category(text); v {
	case CategoryComplaint, CategoryQuestion, CategoryFeedback, "":
		*c = v
		return nil
	default:
		return fmt.Errorf("unknown category %q", string(text))
	}
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

func (p *Priority) UnmarshalText(text []byte) error {
	switch v := Priority(text); v {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent, "":
		*p = v
		return nil
	default:
		return fmt.Errorf("unknown priority %q", string(text))
	}
}

// AppealEvent is the inbound record consumed from the appeals topic.
type AppealEvent struct {
	AppealID  string    `json:"appealId"`
	ClientID  string    `json:"clientId"`
	Message   *string   `json:"message"`
	Timestamp LocalTime `json:"timestamp"`
	Category  Category  `json:"category,omitempty"`
	Priority  Priority  `json:"priority,omitempty"`
}

// Text returns the appeal message, or "" when the message is absent.
func (a AppealEvent) Text() string {
	if a.Message == nil {
		return ""
	}
	return *a.Message
}

// DecodeAppealEvent parses a record value. A value that is not a JSON object,
// has an unparseable field, or lacks a well-formed appealId is rejected.
func DecodeAppealEvent(data []byte) (*AppealEvent, error) {
	var event AppealEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	if strings.TrimSpace(event.AppealID) == "" {
		return nil, fmt.Errorf("appealId is required")
	}
	if strings.ContainsAny(event.AppealID, "\r\n") || strings.TrimSpace(event.AppealID) != event.AppealID {
		return nil, fmt.Errorf("appealId %q must be a single line without surrounding whitespace", event.AppealID)
	}
	return &event, nil
}

package models

// AppealEventBuilder assembles appeal events, mostly for tests and the
// producer tooling.
type AppealEventBuilder struct {
	event *AppealEvent
}

func NewAppealEventBuilder() *AppealEventBuilder {
	return &AppealEventBuilder{
		event: &AppealEvent{
			Category: CategoryQuestion,
			Priority: PriorityNormal,
		},
	}
}

func (b *AppealEventBuilder) WithAppealID(id string) *AppealEventBuilder {
	b.event.AppealID = id
	return b
}

func (b *AppealEventBuilder) WithClientID(id string) *AppealEventBuilder {
	b.event.ClientID = id
	return b
}

func (b *AppealEventBuilder) WithMessage(message string) *AppealEventBuilder {
	b.event.Message = &message
	return b
}

func (b *AppealEventBuilder) WithoutMessage() *AppealEventBuilder {
	b.event.Message = nil
	return b
}

func (b *AppealEventBuilder) WithTimestamp(ts LocalTime) *AppealEventBuilder {
	b.event.Timestamp = ts
	return b
}

func (b *AppealEventBuilder) WithCategory(category Category) *AppealEventBuilder {
	b.event.Category = category
	return b
}

func (b *AppealEventBuilder) WithPriority(priority Priority) *AppealEventBuilder {
	b.event.Priority = priority
	return b
}

func (b *AppealEventBuilder) Build() AppealEvent {
	if b.event.Timestamp.IsZero() {
		b.event.Timestamp = Now()
	}
	return *b.event
}

// EnrichmentDataBuilder starts from the fallback profile so that tests only
// spell out the attributes they care about.
type EnrichmentDataBuilder struct {
	data EnrichmentData
}

func NewEnrichmentDataBuilder(clientID string) *EnrichmentDataBuilder {
	return &EnrichmentDataBuilder{
		data: EnrichmentData{
			ClientID:      clientID,
			FraudScore:    0.1,
			SupportRating: 4.0,
			RiskCategory:  RiskLow,
		},
	}
}

func (b *EnrichmentDataBuilder) WithFraudScore(score float64) *EnrichmentDataBuilder {
	b.data.FraudScore = score
	return b
}

func (b *EnrichmentDataBuilder) WithSupportRating(rating float64) *EnrichmentDataBuilder {
	b.data.SupportRating = rating
	return b
}

func (b *EnrichmentDataBuilder) WithVIP(vip bool) *EnrichmentDataBuilder {
	b.data.IsVIP = vip
	return b
}

func (b *EnrichmentDataBuilder) WithPreviousComplaints(n int) *EnrichmentDataBuilder {
	b.data.PreviousComplaints = n
	return b
}

func (b *EnrichmentDataBuilder) WithRiskCategory(risk RiskCategory) *EnrichmentDataBuilder {
	b.data.RiskCategory = risk
	return b
}

func (b *EnrichmentDataBuilder) Build() EnrichmentData {
	return b.data
}

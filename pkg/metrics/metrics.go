package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	AppealsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_appeals_total",
			Help: "Total number of appeal records handled by the consumer, by final stage (count)",
		},
		[]string{"stage"},
	)

	AppealProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moderation_processing_duration_ms",
			Help:    "Processing duration for a single appeal record in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"stage"},
	)

	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_decisions_total",
			Help: "Total number of moderation decisions, by decision and matching rule (count)",
		},
		[]string{"decision", "rule"},
	)

	EnrichmentRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_requests_total",
			Help: "Total number of enrichment upstream attempts, by outcome (count)",
		},
		[]string{"status"},
	)

	EnrichmentRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "enrichment_request_duration_ms",
			Help:    "Duration of enrichment upstream attempts in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"status"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"service", "target"},
	)

	FallbackUsageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_usage_total",
			Help: "Total number of times fallback strategies were used (count)",
		},
		[]string{"service", "strategy", "reason"},
	)

	PublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_publish_total",
			Help: "Total number of moderation results published, by channel and status (count)",
		},
		[]string{"channel", "status"},
	)

	PublishInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "moderation_publish_in_flight",
			Help: "Number of asynchronous publishes not yet completed (count)",
		},
	)

	IdempotencyWriteFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "idempotency_write_failures_total",
			Help: "Total number of failed durable writes to the idempotency store (count)",
		},
	)

	IdempotencyProcessedIDs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "idempotency_processed_ids",
			Help: "Number of appeal ids known to the idempotency store (count)",
		},
	)

	RedeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_redeliveries_total",
			Help: "Total number of partition rewinds to an unacknowledged record (count)",
		},
		[]string{"topic", "partition"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	KafkaMessagesReadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_read_total",
			Help: "Total number of messages read from Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaMessageSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_message_size_bytes",
			Help:    "Size of Kafka messages in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		},
		[]string{"service", "topic", "direction"},
	)

	KafkaConsumerLag = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kafka_consumer_lag",
			Help: "Kafka consumer lag (difference between high water mark and current offset) (count)",
		},
		[]string{"service", "topic", "partition"},
	)

	KafkaWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_write_duration_ms",
			Help:    "Duration of writing messages to Kafka in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service", "topic"},
	)

	StubRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_stub_requests_total",
			Help: "Total number of enrichment lookups served by the stub, by source (count)",
		},
		[]string{"source"},
	)

	StubCacheOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_stub_cache_operations_total",
			Help: "Total number of stub cache operations, by operation and result (count)",
		},
		[]string{"operation", "result"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)
)

func RegisterModerationMetrics() {
	prometheus.MustRegister(AppealsProcessedTotal)
	prometheus.MustRegister(AppealProcessingDuration)
	prometheus.MustRegister(DecisionsTotal)
	prometheus.MustRegister(EnrichmentRequestsTotal)
	prometheus.MustRegister(EnrichmentRequestDuration)
	prometheus.MustRegister(FallbackUsageTotal)
	prometheus.MustRegister(PublishTotal)
	prometheus.MustRegister(PublishInFlight)
	prometheus.MustRegister(IdempotencyWriteFailuresTotal)
	prometheus.MustRegister(IdempotencyProcessedIDs)
}

func RegisterBrokerMetrics() {
	prometheus.MustRegister(RetryAttemptsTotal)
	prometheus.MustRegister(RedeliveriesTotal)
	prometheus.MustRegister(KafkaMessagesReadTotal)
	prometheus.MustRegister(KafkaMessagesWrittenTotal)
	prometheus.MustRegister(KafkaMessageSizeBytes)
	prometheus.MustRegister(KafkaConsumerLag)
	prometheus.MustRegister(KafkaWriteDuration)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func RegisterStubMetrics() {
	prometheus.MustRegister(StubRequestsTotal)
	prometheus.MustRegister(StubCacheOperationsTotal)
	prometheus.MustRegister(RateLimitRequestsTotal)
}

func IncAppealStage(stage string) {
	AppealsProcessedTotal.WithLabelValues(stage).Inc()
}

func ObserveAppealDuration(duration time.Duration, stage string) {
	AppealProcessingDuration.WithLabelValues(stage).Observe(float64(duration.Milliseconds()))
}

func IncDecision(decision, rule string) {
	DecisionsTotal.WithLabelValues(decision, rule).Inc()
}

func IncEnrichmentRequest(status string, duration time.Duration) {
	EnrichmentRequestsTotal.WithLabelValues(status).Inc()
	EnrichmentRequestDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func IncRetryAttempt(service, target string) {
	RetryAttemptsTotal.WithLabelValues(service, target).Inc()
}

func IncFallbackUsage(service, strategy, reason string) {
	FallbackUsageTotal.WithLabelValues(service, strategy, reason).Inc()
}

func IncPublish(channel, status string) {
	PublishTotal.WithLabelValues(channel, status).Inc()
}

func IncIdempotencyWriteFailure() {
	IdempotencyWriteFailuresTotal.Inc()
}

func SetIdempotencyProcessedIDs(count int64) {
	IdempotencyProcessedIDs.Set(float64(count))
}

func IncRedelivery(topic string, partition int) {
	RedeliveriesTotal.WithLabelValues(topic, fmt.Sprintf("%d", partition)).Inc()
}

func IncKafkaMessagesRead(service, topic string) {
	KafkaMessagesReadTotal.WithLabelValues(service, topic).Inc()
}

func IncKafkaMessagesWritten(service, topic string) {
	KafkaMessagesWrittenTotal.WithLabelValues(service, topic).Inc()
}

func ObserveKafkaMessageSize(service, topic, direction string, sizeBytes int) {
	KafkaMessageSizeBytes.WithLabelValues(service, topic, direction).Observe(float64(sizeBytes))
}

func SetKafkaConsumerLag(service, topic string, partition int, lag int64) {
	KafkaConsumerLag.WithLabelValues(service, topic, fmt.Sprintf("%d", partition)).Set(float64(lag))
}

func ObserveKafkaWriteDuration(service, topic string, duration time.Duration) {
	KafkaWriteDuration.WithLabelValues(service, topic).Observe(float64(duration.Milliseconds()))
}

func IncStubRequest(source string) {
	StubRequestsTotal.WithLabelValues(source).Inc()
}

func IncStubCacheOperation(operation, result string) {
	StubCacheOperationsTotal.WithLabelValues(operation, result).Inc()
}

package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultAppealsTopic  = "appeals"
	DefaultApprovedTopic = "moderation.approved"
	DefaultReviewTopic   = "moderation.review"
)

const (
	DefaultEnrichmentTimeout    = 2 * time.Second
	DefaultEnrichmentRetries    = 2
	DefaultEnrichmentRetryDelay = 500 * time.Millisecond
	EnrichmentPathTemplate      = "/api/v1/clients/%s/enrichment"
	DefaultEnrichmentHealthPath = "/api/v1/clients/health"
)

const (
	StoreTypeFile  = "file"
	StoreTypeRedis = "redis"

	DefaultIdempotencyLog      = "processed_appeals.txt"
	DefaultIdempotencyRedisKey = "moderation:processed_appeals"
)

const (
	CacheKeyPrefixEnrich = "enrich:"
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	ServiceNameModeration = "moderation-service"
	ServiceNameEnrichment = "enrichment-service"
)

const (
	StubHealthMessage = "Enrichment Service is UP"
)

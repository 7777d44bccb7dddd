package config

import (
	"fmt"
	"net/url"
	"strings"

	"moderator/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidateStatic checks the sections shared by every binary.
func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateRedis(cfg.Database.Redis); err != nil {
		errors = append(errors, err)
	}

	if err := validateLogging(cfg.Logging); err != nil {
		errors = append(errors, err)
	}

	if err := validateStub(cfg.Stub); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

// ValidateModeration checks the sections the moderation pipeline cannot run without.
func ValidateModeration(cfg *Config) error {
	var errors []error

	if err := validateBroker(cfg.Broker); err != nil {
		errors = append(errors, err)
	}

	if err := validateEnrichment(cfg.Enrichment); err != nil {
		errors = append(errors, err)
	}

	if err := validateIdempotency(cfg.Idempotency, cfg.Database.Redis); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("moderation configuration invalid: %v", errors)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout_seconds",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout_seconds",
			Message: "write timeout must be positive",
		}
	}

	return nil
}

func validateBroker(cfg BrokerConfig) error {
	if cfg.Type == "" {
		return &ValidationError{
			Field:   "broker.type",
			Message: "broker type is required",
		}
	}

	switch cfg.Type {
	case "kafka":
		return validateKafka(cfg.Kafka)
	default:
		return &ValidationError{
			Field:   "broker.type",
			Message: fmt.Sprintf("unknown broker type: %s (supported: kafka)", cfg.Type),
		}
	}
}

func validateKafka(cfg KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return &ValidationError{
			Field:   "broker.kafka.brokers",
			Message: "at least one Kafka broker is required",
		}
	}

	for i, broker := range cfg.Brokers {
		if broker == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("broker.kafka.brokers[%d]", i),
				Message: "broker address cannot be empty",
			}
		}
	}

	if cfg.GroupID == "" {
		return &ValidationError{
			Field:   "broker.kafka.group_id",
			Message: "Kafka consumer group ID is required",
		}
	}

	topics := map[string]string{
		"broker.kafka.appeals_topic":  cfg.AppealsTopic,
		"broker.kafka.approved_topic": cfg.ApprovedTopic,
		"broker.kafka.review_topic":   cfg.ReviewTopic,
	}
	for field, topic := range topics {
		if topic == "" {
			return &ValidationError{Field: field, Message: "topic name is required"}
		}
	}

	if cfg.ApprovedTopic == cfg.ReviewTopic {
		return &ValidationError{
			Field:   "broker.kafka.review_topic",
			Message: "approved and review channels must be different topics",
		}
	}

	switch strings.ToLower(cfg.StartOffset) {
	case "", "first", "last":
	default:
		return &ValidationError{
			Field:   "broker.kafka.start_offset",
			Message: fmt.Sprintf("invalid start offset: %s (valid: first, last)", cfg.StartOffset),
		}
	}

	if cfg.Redelivery.InitialInterval < 0 || cfg.Redelivery.MaxInterval < 0 {
		return &ValidationError{
			Field:   "broker.kafka.redelivery",
			Message: "redelivery intervals must be non-negative",
		}
	}

	if cfg.Redelivery.MaxInterval > 0 && cfg.Redelivery.InitialInterval > cfg.Redelivery.MaxInterval {
		return &ValidationError{
			Field:   "broker.kafka.redelivery.max_interval",
			Message: "max_interval must be greater than or equal to initial_interval",
		}
	}

	if cfg.Redelivery.MaxAttempts < 0 {
		return &ValidationError{
			Field:   "broker.kafka.redelivery.max_attempts",
			Message: "max_attempts must be non-negative",
		}
	}

	if cfg.DLQTopic != "" && (cfg.DLQTopic == cfg.AppealsTopic || cfg.DLQTopic == cfg.ApprovedTopic || cfg.DLQTopic == cfg.ReviewTopic) {
		return &ValidationError{
			Field:   "broker.kafka.dlq_topic",
			Message: "dead letter topic must differ from the pipeline topics",
		}
	}

	if cfg.Redelivery.Multiplier < 0 {
		return &ValidationError{
			Field:   "broker.kafka.redelivery.multiplier",
			Message: "multiplier must be non-negative",
		}
	}

	return nil
}

func validateEnrichment(cfg EnrichmentConfig) error {
	if cfg.BaseURL == "" {
		return &ValidationError{
			Field:   "enrichment.base_url",
			Message: "enrichment base URL is required",
		}
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{
			Field:   "enrichment.base_url",
			Message: fmt.Sprintf("invalid enrichment base URL: %s", cfg.BaseURL),
		}
	}

	if !strings.HasPrefix(cfg.HealthPath, "/") {
		return &ValidationError{
			Field:   "enrichment.health_path",
			Message: fmt.Sprintf("health path must start with '/': %q", cfg.HealthPath),
		}
	}

	if cfg.Timeout <= 0 {
		return &ValidationError{
			Field:   "enrichment.timeout",
			Message: "timeout must be positive",
		}
	}

	if cfg.MaxRetries < 0 {
		return &ValidationError{
			Field:   "enrichment.max_retries",
			Message: "max_retries must be non-negative",
		}
	}

	if cfg.RetryDelay < 0 {
		return &ValidationError{
			Field:   "enrichment.retry_delay",
			Message: "retry_delay must be non-negative",
		}
	}

	return nil
}

func validateIdempotency(cfg IdempotencyConfig, redis RedisConfig) error {
	switch strings.ToLower(cfg.Type) {
	case "", constants.StoreTypeFile:
		if cfg.Path == "" {
			return &ValidationError{
				Field:   "idempotency.path",
				Message: "file store requires a log path",
			}
		}
	case constants.StoreTypeRedis:
		if !redis.Enabled() {
			return &ValidationError{
				Field:   "idempotency.type",
				Message: "redis store requires database.redis.host",
			}
		}
		if cfg.RedisKey == "" {
			return &ValidationError{
				Field:   "idempotency.redis_key",
				Message: "redis store requires a set key",
			}
		}
	default:
		return &ValidationError{
			Field:   "idempotency.type",
			Message: fmt.Sprintf("unknown store type: %s (valid: file, redis)", cfg.Type),
		}
	}

	return nil
}

func validateRedis(cfg RedisConfig) error {
	if !cfg.Enabled() && cfg.Port == 0 {
		return nil
	}

	if cfg.Host == "" {
		return &ValidationError{
			Field:   "database.redis.host",
			Message: "Redis host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "database.redis.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.TTLSeconds < 0 {
		return &ValidationError{
			Field:   "database.redis.ttl_seconds",
			Message: "TTL must be non-negative",
		}
	}

	return nil
}

func validateLogging(cfg LoggingConfig) error {
	switch strings.ToLower(cfg.Format) {
	case "", "json", "console":
		return nil
	default:
		return &ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: json, console)", cfg.Format),
		}
	}
}

func validateStub(cfg StubConfig) error {
	if cfg.MinLatency < 0 || cfg.MaxLatency < 0 {
		return &ValidationError{
			Field:   "stub.min_latency",
			Message: "latency bounds must be non-negative",
		}
	}

	if cfg.MaxLatency < cfg.MinLatency {
		return &ValidationError{
			Field:   "stub.max_latency",
			Message: "max_latency must be greater than or equal to min_latency",
		}
	}

	if cfg.RateLimit.Enabled && (cfg.RateLimit.RPS <= 0 || cfg.RateLimit.Burst <= 0) {
		return &ValidationError{
			Field:   "stub.rate_limit",
			Message: "rps and burst must be positive when rate limiting is enabled",
		}
	}

	return nil
}

package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Broker         BrokerConfig         `mapstructure:"broker"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Enrichment     EnrichmentConfig     `mapstructure:"enrichment"`
	Idempotency    IdempotencyConfig    `mapstructure:"idempotency"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
	Stub           StubConfig           `mapstructure:"stub"`
}

type ServerConfig struct {
	Port                int           `mapstructure:"port"`
	ReadTimeoutSeconds  time.Duration `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds time.Duration `mapstructure:"write_timeout_seconds"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

// Enabled reports whether a Redis endpoint has been configured.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type BrokerConfig struct {
	Type  string      `mapstructure:"type"`
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers       []string         `mapstructure:"brokers"`
	GroupID       string           `mapstructure:"group_id"`
	AppealsTopic  string           `mapstructure:"appeals_topic"`
	ApprovedTopic string           `mapstructure:"approved_topic"`
	ReviewTopic   string           `mapstructure:"review_topic"`
	StartOffset   string           `mapstructure:"start_offset"` // "first" or "last"
	Redelivery    RedeliveryConfig `mapstructure:"redelivery"`
	// DLQTopic, when set together with Redelivery.MaxAttempts, receives
	// records that still fail after MaxAttempts deliveries.
	DLQTopic string `mapstructure:"dlq_topic"`
}

// RedeliveryConfig controls how long a partition worker waits before it
// rewinds to an unacknowledged record.
type RedeliveryConfig struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxAttempts     int           `mapstructure:"max_attempts"` // 0 means unbounded
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type EnrichmentConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	HealthPath string        `mapstructure:"health_path"`
}

type IdempotencyConfig struct {
	Type     string `mapstructure:"type"` // "file" or "redis"
	Path     string `mapstructure:"path"`
	RedisKey string `mapstructure:"redis_key"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type TracingConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	OTLP    OTLPConfig    `mapstructure:"otlp"`
	Sampler SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}

// StubConfig configures the enrichment stub service.
type StubConfig struct {
	MinLatency      time.Duration   `mapstructure:"min_latency"`
	MaxLatency      time.Duration   `mapstructure:"max_latency"`
	CacheTTLSeconds int             `mapstructure:"cache_ttl_seconds"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	RPS             float64 `mapstructure:"rps"`
	Burst           int     `mapstructure:"burst"`
	CleanupInterval int     `mapstructure:"cleanup_interval"`
	MaxAge          int     `mapstructure:"max_age"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}

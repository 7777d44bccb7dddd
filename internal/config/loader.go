package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"moderator/internal/constants"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout_seconds", 10*time.Second)
	viper.SetDefault("server.write_timeout_seconds", 10*time.Second)

	viper.SetDefault("broker.type", "kafka")
	viper.SetDefault("broker.kafka.appeals_topic", constants.DefaultAppealsTopic)
	viper.SetDefault("broker.kafka.approved_topic", constants.DefaultApprovedTopic)
	viper.SetDefault("broker.kafka.review_topic", constants.DefaultReviewTopic)
	viper.SetDefault("broker.kafka.start_offset", "first")
	viper.SetDefault("broker.kafka.redelivery.initial_interval", time.Second)
	viper.SetDefault("broker.kafka.redelivery.max_interval", 30*time.Second)
	viper.SetDefault("broker.kafka.redelivery.multiplier", 2.0)

	viper.SetDefault("enrichment.timeout", constants.DefaultEnrichmentTimeout)
	viper.SetDefault("enrichment.max_retries", constants.DefaultEnrichmentRetries)
	viper.SetDefault("enrichment.retry_delay", constants.DefaultEnrichmentRetryDelay)
	viper.SetDefault("enrichment.health_path", constants.DefaultEnrichmentHealthPath)

	viper.SetDefault("idempotency.type", constants.StoreTypeFile)
	viper.SetDefault("idempotency.path", constants.DefaultIdempotencyLog)
	viper.SetDefault("idempotency.redis_key", constants.DefaultIdempotencyRedisKey)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("stub.min_latency", 50*time.Millisecond)
	viper.SetDefault("stub.max_latency", 150*time.Millisecond)
}

func bindEnvVariables() {
	viper.BindEnv("broker.kafka.brokers", "BROKER_KAFKA_BROKERS")
	viper.BindEnv("broker.kafka.group_id", "BROKER_KAFKA_GROUP_ID")
	viper.BindEnv("broker.kafka.appeals_topic", "BROKER_KAFKA_APPEALS_TOPIC")
	viper.BindEnv("broker.kafka.approved_topic", "BROKER_KAFKA_APPROVED_TOPIC")
	viper.BindEnv("broker.kafka.review_topic", "BROKER_KAFKA_REVIEW_TOPIC")
	viper.BindEnv("broker.kafka.dlq_topic", "BROKER_KAFKA_DLQ_TOPIC")

	viper.BindEnv("enrichment.base_url", "ENRICHMENT_BASE_URL")
	viper.BindEnv("enrichment.timeout", "ENRICHMENT_TIMEOUT")

	viper.BindEnv("idempotency.type", "IDEMPOTENCY_TYPE")
	viper.BindEnv("idempotency.path", "IDEMPOTENCY_PATH")

	viper.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	viper.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	viper.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")
	viper.BindEnv("database.redis.db", "DATABASE_REDIS_DB")

	viper.BindEnv("server.port", "SERVER_PORT")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")

	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
}

func applyEnvOverrides(cfg *Config) error {
	if brokersEnv := viper.GetString("BROKER_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) > 0 && brokers[0] != "" {
			cfg.Broker.Kafka.Brokers = brokers
		}
	}

	cfg.Enrichment.BaseURL = strings.TrimRight(cfg.Enrichment.BaseURL, "/")

	return nil
}

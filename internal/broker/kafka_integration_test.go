//go:build integration

package broker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moderator/internal/config"
	"moderator/internal/logger"
	"moderator/internal/testinfra"
)

func testKafkaConfig(brokers []string, group string) config.KafkaConfig {
	return config.KafkaConfig{
		Brokers:     brokers,
		GroupID:     group,
		StartOffset: "first",
		Redelivery: config.RedeliveryConfig{
			InitialInterval: 50 * time.Millisecond,
			MaxInterval:     200 * time.Millisecond,
			Multiplier:      2,
		},
	}
}

func TestKafkaConsumer_RedeliversUnacknowledgedRecord(t *testing.T) {
	brokers := testinfra.SetupKafka(t)
	cfg := testKafkaConfig(brokers, "redelivery-test")
	topic := "appeals-redelivery"

	producer := NewKafkaProducer(cfg, logger.NopLogger())
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		require.NoError(t, producer.Publish(ctx, topic, Message{
			Key:   []byte("same-partition"),
			Value: []byte(fmt.Sprintf("record-%d", i)),
		}))
	}

	var mu sync.Mutex
	var seen []string
	failedOnce := false
	done := make(chan struct{})

	consumer := NewKafkaConsumer(cfg, logger.NopLogger())
	go consumer.Consume(ctx, topic, func(ctx context.Context, rec Record) error {
		mu.Lock()
		defer mu.Unlock()

		seen = append(seen, string(rec.Value))
		if string(rec.Value) == "record-1" && !failedOnce {
			failedOnce = true
			return fmt.Errorf("transient handler failure")
		}
		if string(rec.Value) == "record-2" {
			close(done)
		}
		return nil
	})

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("timed out waiting for records")
	}
	require.NoError(t, consumer.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"record-0", "record-1", "record-1", "record-2"}, seen)
}

func TestKafkaConsumer_DeadLettersAfterMaxAttempts(t *testing.T) {
	brokers := testinfra.SetupKafka(t)
	cfg := testKafkaConfig(brokers, "dlq-test")
	cfg.DLQTopic = "appeals-dlq"
	cfg.Redelivery.MaxAttempts = 2
	topic := "appeals-poison"

	producer := NewKafkaProducer(cfg, logger.NopLogger())
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	require.NoError(t, producer.Publish(ctx, topic, Message{Key: []byte("k"), Value: []byte("not json")}))
	require.NoError(t, producer.Publish(ctx, topic, Message{Key: []byte("k"), Value: []byte("ok")}))

	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})

	consumer := NewKafkaConsumer(cfg, logger.NopLogger())
	go consumer.Consume(ctx, topic, func(ctx context.Context, rec Record) error {
		if string(rec.Value) == "ok" {
			close(done)
			return nil
		}
		mu.Lock()
		attempts++
		mu.Unlock()
		return fmt.Errorf("malformed")
	})

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("timed out waiting for the record after the poison one")
	}
	require.NoError(t, consumer.Close())

	mu.Lock()
	assert.Equal(t, 2, attempts)
	mu.Unlock()

	dlqSeen := make(chan Record, 1)
	dlqCfg := testKafkaConfig(brokers, "dlq-reader")
	dlqConsumer := NewKafkaConsumer(dlqCfg, logger.NopLogger())
	go dlqConsumer.Consume(ctx, cfg.DLQTopic, func(ctx context.Context, rec Record) error {
		select {
		case dlqSeen <- rec:
		default:
		}
		return nil
	})
	defer dlqConsumer.Close()

	select {
	case rec := <-dlqSeen:
		assert.Equal(t, "not json", string(rec.Value))
	case <-ctx.Done():
		t.Fatal("timed out waiting for dead letter")
	}
}

package broker

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/codes"

	"moderator/internal/config"
	"moderator/internal/logger"
	apperrors "moderator/pkg/errors"
	"moderator/pkg/logging"
	"moderator/pkg/metrics"
	"moderator/pkg/retry"
	"moderator/pkg/tracing"
)

// KafkaConsumer joins a consumer group and runs one worker per assigned
// partition. Each worker handles records strictly in offset order and
// commits a record only after its handler returned nil. A failed record is
// fetched again after a backoff by rewinding the partition reader, so later
// records are never committed past it.
type KafkaConsumer struct {
	cfg         config.KafkaConfig
	logger      logger.Logger
	serviceName string
	dlqProducer Producer

	mu    sync.Mutex
	group *kafka.ConsumerGroup
	wg    sync.WaitGroup
}

func NewKafkaConsumer(cfg config.KafkaConfig, log logger.Logger) *KafkaConsumer {
	consumer := &KafkaConsumer{
		cfg:         cfg,
		logger:      log.Named("consumer"),
		serviceName: "unknown",
	}

	if cfg.DLQTopic != "" && cfg.Redelivery.MaxAttempts > 0 {
		consumer.dlqProducer = NewKafkaProducer(cfg, log)
	}

	return consumer
}

func (c *KafkaConsumer) SetServiceName(name string) {
	c.serviceName = name
}

func (c *KafkaConsumer) startOffset() int64 {
	if strings.EqualFold(c.cfg.StartOffset, "last") {
		return kafka.LastOffset
	}
	return kafka.FirstOffset
}

// Consume blocks until ctx is cancelled or the consumer is closed.
func (c *KafkaConsumer) Consume(ctx context.Context, topic string, handler HandlerFunc) error {
	c.logger.Infow("Joining consumer group",
		"topic", topic,
		"brokers", c.cfg.Brokers,
		"group_id", c.cfg.GroupID,
		"service_name", c.serviceName,
	)

	group, err := kafka.NewConsumerGroup(kafka.ConsumerGroupConfig{
		ID:                    c.cfg.GroupID,
		Brokers:               c.cfg.Brokers,
		Topics:                []string{topic},
		StartOffset:           c.startOffset(),
		WatchPartitionChanges: true,
		ErrorLogger:           kafka.LoggerFunc(c.logger.Errorf),
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.group = group
	c.mu.Unlock()

	c.wg.Add(1)
	defer c.wg.Done()
	defer group.Close()

	consumeCtx := logging.WithServiceName(ctx, c.serviceName)

	for {
		gen, err := group.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, kafka.ErrGroupClosed) {
				c.logger.InfowCtx(consumeCtx, "Stopped consuming", "topic", topic)
				return nil
			}
			c.logger.ErrorwCtx(consumeCtx, "Failed to join consumer group generation", "error", err, "topic", topic)
			if !sleepCtx(ctx, time.Second) {
				return nil
			}
			continue
		}

		assignments := gen.Assignments[topic]
		c.logger.InfowCtx(consumeCtx, "Consumer group generation started",
			"generation_id", gen.ID,
			"member_id", gen.MemberID,
			"partitions", len(assignments),
		)

		for _, assignment := range assignments {
			partition, offset := assignment.ID, assignment.Offset
			gen.Start(func(genCtx context.Context) {
				c.runPartition(logging.WithServiceName(genCtx, c.serviceName), gen, topic, partition, offset, handler)
			})
		}
	}
}

func (c *KafkaConsumer) runPartition(ctx context.Context, gen *kafka.Generation, topic string, partition int, offset int64, handler HandlerFunc) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   c.cfg.Brokers,
		Topic:     topic,
		Partition: partition,
		MinBytes:  1,
		MaxBytes:  10e6,
		MaxWait:   500 * time.Millisecond,
	})
	defer reader.Close()

	if err := reader.SetOffset(offset); err != nil {
		c.logger.ErrorwCtx(ctx, "Failed to position partition reader", "error", err, "partition", partition, "offset", offset)
		return
	}

	c.logger.InfowCtx(ctx, "Partition worker started", "topic", topic, "partition", partition, "offset", offset)

	redelivery := c.redeliveryBackoff()
	failedOffset := int64(-1)
	attempts := 0

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.InfowCtx(ctx, "Partition worker stopped", "topic", topic, "partition", partition)
				return
			}
			c.logger.ErrorwCtx(ctx, "Error fetching kafka message", "error", err, "topic", topic, "partition", partition)
			if !sleepCtx(ctx, time.Second) {
				return
			}
			continue
		}

		metrics.IncKafkaMessagesRead(c.serviceName, topic)
		metrics.ObserveKafkaMessageSize(c.serviceName, topic, "in", len(m.Value))
		metrics.SetKafkaConsumerLag(c.serviceName, topic, partition, reader.Lag())

		handleErr := c.deliver(ctx, m, handler)
		if handleErr == nil {
			redelivery.Reset()
			failedOffset, attempts = -1, 0
			c.commit(ctx, gen, m)
			continue
		}

		if m.Offset == failedOffset {
			attempts++
		} else {
			failedOffset, attempts = m.Offset, 1
		}

		if c.shouldDeadLetter(attempts) {
			if err := c.sendToDLQ(ctx, m, handleErr); err == nil {
				redelivery.Reset()
				failedOffset, attempts = -1, 0
				c.commit(ctx, gen, m)
				continue
			}
		}

		delay := redelivery.NextBackOff()
		metrics.IncRedelivery(topic, partition)
		c.logger.WarnwCtx(ctx, "Record not acknowledged, scheduling redelivery",
			"topic", topic,
			"partition", partition,
			"offset", m.Offset,
			"attempt", attempts,
			"next_delay", delay,
			"error", handleErr,
		)

		if !sleepCtx(ctx, delay) {
			return
		}
		if err := reader.SetOffset(m.Offset); err != nil {
			c.logger.ErrorwCtx(ctx, "Failed to rewind partition reader", "error", err, "partition", partition, "offset", m.Offset)
			return
		}
	}
}

func (c *KafkaConsumer) deliver(ctx context.Context, m kafka.Message, handler HandlerFunc) (err error) {
	msgCtx, span := tracing.StartConsumeSpan(ctx, m)
	defer span.End()

	if traceID := tracing.TraceIDFromContext(msgCtx); traceID != "" {
		msgCtx = logging.WithTraceID(msgCtx, traceID)
	}
	msgCtx = logging.WithRecord(msgCtx, logging.RecordPosition{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
	})

	defer func() {
		if r := recover(); r != nil {
			err = apperrors.RecoverPanic(r)
			c.logger.ErrorwCtx(msgCtx, "Panic recovered during record processing", "error", err)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	return handler(msgCtx, Record{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Time:      m.Time,
	})
}

func (c *KafkaConsumer) commit(ctx context.Context, gen *kafka.Generation, m kafka.Message) {
	err := gen.CommitOffsets(map[string]map[int]int64{
		m.Topic: {m.Partition: m.Offset + 1},
	})
	if err != nil {
		c.logger.ErrorwCtx(ctx, "Failed to commit offset",
			"error", err,
			"topic", m.Topic,
			"partition", m.Partition,
			"offset", m.Offset,
		)
	}
}

func (c *KafkaConsumer) redeliveryBackoff() backoff.BackOff {
	r := c.cfg.Redelivery
	initial, maxInterval, multiplier := r.InitialInterval, r.MaxInterval, r.Multiplier
	if initial <= 0 {
		initial = time.Second
	}
	if maxInterval <= 0 {
		maxInterval = 30 * time.Second
	}
	if multiplier < 1 {
		multiplier = 2.0
	}
	return retry.ExponentialBackoff(initial, maxInterval, multiplier)
}

func (c *KafkaConsumer) shouldDeadLetter(attempts int) bool {
	return c.dlqProducer != nil && attempts >= c.cfg.Redelivery.MaxAttempts
}

func (c *KafkaConsumer) sendToDLQ(ctx context.Context, m kafka.Message, cause error) error {
	err := c.dlqProducer.Publish(ctx, c.cfg.DLQTopic, Message{
		Key:   m.Key,
		Value: m.Value,
		Headers: map[string]string{
			"dlq_reason":       cause.Error(),
			"dlq_source_topic": m.Topic,
			"dlq_partition":    strconv.Itoa(m.Partition),
			"dlq_offset":       strconv.FormatInt(m.Offset, 10),
			"dlq_timestamp":    time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		c.logger.ErrorwCtx(ctx, "Failed to send record to DLQ", "error", err, "dlq_topic", c.cfg.DLQTopic)
		return err
	}

	c.logger.WarnwCtx(ctx, "Record sent to DLQ",
		"source_topic", m.Topic,
		"dlq_topic", c.cfg.DLQTopic,
		"reason", cause.Error(),
	)
	return nil
}

func (c *KafkaConsumer) Close() error {
	c.mu.Lock()
	group := c.group
	c.mu.Unlock()

	var err error
	if group != nil {
		err = group.Close()
	}
	c.wg.Wait()

	if c.dlqProducer != nil {
		if closeErr := c.dlqProducer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

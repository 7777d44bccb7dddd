package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/codes"

	"moderator/internal/config"
	"moderator/internal/constants"
	"moderator/internal/logger"
	"moderator/pkg/metrics"
	"moderator/pkg/tracing"
)

type KafkaProducer struct {
	writer      *kafka.Writer
	logger      logger.Logger
	serviceName string
}

// NewKafkaProducer returns a synchronous producer. Messages are partitioned
// by key so that every result for one appeal lands on the same partition.
func NewKafkaProducer(cfg config.KafkaConfig, log logger.Logger) *KafkaProducer {
	p := &KafkaProducer{
		logger:      log.Named("producer"),
		serviceName: "unknown",
	}
	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           constants.KafkaBatchTimeout,
		WriteTimeout:           constants.KafkaWriteTimeout,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		Async:                  false,
		Completion:             p.onCompletion,
	}
	return p
}

func (p *KafkaProducer) SetServiceName(name string) {
	p.serviceName = name
}

func (p *KafkaProducer) Publish(ctx context.Context, topic string, msg Message) error {
	ctx, span := tracing.StartPublishSpan(ctx, topic)
	defer span.End()

	headers := make([]kafka.Header, 0, len(msg.Headers)+2)
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	headers = tracing.InjectTraceContext(ctx, headers)

	start := time.Now()
	err := p.writer.WriteMessages(ctx,
		kafka.Message{
			Topic:   topic,
			Key:     msg.Key,
			Value:   msg.Value,
			Headers: headers,
			Time:    time.Now(),
		},
	)
	metrics.ObserveKafkaWriteDuration(p.serviceName, topic, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	metrics.IncKafkaMessagesWritten(p.serviceName, topic)
	metrics.ObserveKafkaMessageSize(p.serviceName, topic, "out", len(msg.Value))
	return nil
}

// onCompletion reports broker placement of every written batch.
func (p *KafkaProducer) onCompletion(messages []kafka.Message, err error) {
	if err != nil {
		p.logger.Errorw("Kafka write batch failed", "messages", len(messages), "error", err)
		return
	}
	for _, m := range messages {
		p.logger.Debugw("Message delivered",
			"topic", m.Topic,
			"partition", m.Partition,
			"offset", m.Offset,
			"key", string(m.Key),
		)
	}
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

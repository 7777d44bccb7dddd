package bootstrap

import (
	"context"
	"fmt"

	"moderator/internal/broker"
	"moderator/internal/config"
	"moderator/internal/logger"
)

type Base struct {
	Config   *config.Config
	Logger   logger.Logger
	Producer broker.Producer
	Consumer broker.Consumer
}

func NewBase(cfg *config.Config, log logger.Logger) *Base {
	return &Base{
		Config: cfg,
		Logger: log,
	}
}

func (b *Base) InitBroker(serviceName string) error {
	producer, err := broker.NewProducer(b.Config.Broker, b.Logger)
	if err != nil {
		return fmt.Errorf("failed to create producer: %w", err)
	}

	consumer, err := broker.NewConsumer(b.Config.Broker, b.Logger)
	if err != nil {
		producer.Close()
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	if serviceName != "" {
		consumer.SetServiceName(serviceName)
	}

	b.Producer = producer
	b.Consumer = consumer
	return nil
}

// ShutdownConsumer stops intake only; the producer stays open.
func (b *Base) ShutdownConsumer() []error {
	if b.Consumer == nil {
		return nil
	}
	if err := b.Consumer.Close(); err != nil {
		return []error{fmt.Errorf("consumer close error: %w", err)}
	}
	return nil
}

func (b *Base) ShutdownProducer() []error {
	if b.Producer == nil {
		return nil
	}
	if err := b.Producer.Close(); err != nil {
		return []error{fmt.Errorf("producer close error: %w", err)}
	}
	return nil
}

// Shutdown closes the consumer, runs drain, then closes the producer and
// runs additionalShutdown.
func (b *Base) Shutdown(ctx context.Context, drain func(ctx context.Context) []error, additionalShutdown func(ctx context.Context) []error) error {
	b.Logger.Infow("Shutting down application")

	var errs []error

	errs = append(errs, b.ShutdownConsumer()...)

	if drain != nil {
		errs = append(errs, drain(ctx)...)
	}

	errs = append(errs, b.ShutdownProducer()...)

	if additionalShutdown != nil {
		errs = append(errs, additionalShutdown(ctx)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	b.Logger.Infow("Application exited successfully")
	return nil
}

package broker

import (
	"context"
	"time"
)

// Record is one inbound message handed to a HandlerFunc.
type Record struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Time      time.Time
}

// Message is one outbound message.
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

type Producer interface {
	Publish(ctx context.Context, topic string, msg Message) error
	Close() error
}

// Consumer delivers records to a handler. A nil error from the handler
// acknowledges the record. Any other error leaves it unacknowledged and the
// record is delivered again.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler HandlerFunc) error
	Close() error
	SetServiceName(name string)
}

type HandlerFunc func(ctx context.Context, rec Record) error

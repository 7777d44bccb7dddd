// Package brokertest provides an in-memory Producer for tests.
package brokertest

import (
	"context"
	"sync"

	"moderator/internal/broker"
)

type Published struct {
	Topic   string
	Message broker.Message
}

// Producer records every publish. Err, when set, is returned by Publish
// instead of recording. Block, when set, makes Publish wait until it is
// closed or ctx ends.
type Producer struct {
	mu        sync.Mutex
	published []Published
	Err       error
	Block     chan struct{}
	closed    bool
}

func (p *Producer) Publish(ctx context.Context, topic string, msg broker.Message) error {
	if p.Block != nil {
		select {
		case <-p.Block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}
	p.published = append(p.published, Published{Topic: topic, Message: msg})
	return nil
}

func (p *Producer) Published() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Published, len(p.published))
	copy(out, p.published)
	return out
}

func (p *Producer) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	topics := make([]string, 0, len(p.published))
	for _, pub := range p.published {
		topics = append(topics, pub.Topic)
	}
	return topics
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *Producer) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

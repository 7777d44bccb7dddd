// Package routing publishes moderation results to the channel that matches
// their decision.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"moderator/internal/broker"
	"moderator/internal/constants"
	"moderator/internal/logger"
	apperrors "moderator/pkg/errors"
	"moderator/pkg/logging"
	"moderator/pkg/metrics"
	"moderator/pkg/models"
)

type Channel string

const (
	ChannelApproved Channel = "approved"
	ChannelReview   Channel = "review"
)

// ChannelFor maps a decision to its channel. Both non-approved decisions share
// the review channel.
func ChannelFor(decision models.Decision) Channel {
	if decision == models.DecisionApproved {
		return ChannelApproved
	}
	return ChannelReview
}

// Delivery is the completion of one publish.
type Delivery struct {
	AppealID string
	Channel  Channel
	Topic    string
	Duration time.Duration
	Err      error
}

// Router publishes fire-and-forget. Publish returns at once; the outcome is
// logged and also sent on the returned channel, which is buffered so callers
// may ignore it.
type Router struct {
	producer broker.Producer
	topics   map[Channel]string
	timeout  time.Duration
	logger   logger.Logger

	wg sync.WaitGroup
}

func NewRouter(producer broker.Producer, approvedTopic, reviewTopic string, log logger.Logger) *Router {
	return &Router{
		producer: producer,
		topics: map[Channel]string{
			ChannelApproved: approvedTopic,
			ChannelReview:   reviewTopic,
		},
		timeout: constants.KafkaWriteTimeout,
		logger:  log.Named("router"),
	}
}

func (r *Router) TopicFor(channel Channel) string {
	return r.topics[channel]
}

func (r *Router) Publish(ctx context.Context, result models.ModerationResult) <-chan Delivery {
	done := make(chan Delivery, 1)
	channel := ChannelFor(result.Decision)
	topic := r.topics[channel]

	body, err := json.Marshal(result)
	if err != nil {
		r.complete(ctx, done, Delivery{
			AppealID: result.AppealID,
			Channel:  channel,
			Topic:    topic,
			Err:      apperrors.ErrPublish.WithCause(fmt.Errorf("failed to marshal result: %w", err)),
		})
		return done
	}

	// The publish outlives the record's processing context but keeps its
	// trace and log fields.
	pubCtx := context.WithoutCancel(ctx)

	r.wg.Add(1)
	metrics.PublishInFlight.Inc()
	go func() {
		defer r.wg.Done()
		defer metrics.PublishInFlight.Dec()

		start := time.Now()
		d := Delivery{AppealID: result.AppealID, Channel: channel, Topic: topic}

		defer func() {
			if rec := recover(); rec != nil {
				d.Err = apperrors.ErrPublish.WithCause(apperrors.RecoverPanic(rec))
			}
			d.Duration = time.Since(start)
			r.complete(pubCtx, done, d)
		}()

		writeCtx, cancel := context.WithTimeout(pubCtx, r.timeout)
		defer cancel()

		if err := r.producer.Publish(writeCtx, topic, broker.Message{
			Key:   []byte(result.AppealID),
			Value: body,
			Headers: map[string]string{
				"content-type": "application/json",
				"decision":     string(result.Decision),
			},
		}); err != nil {
			d.Err = apperrors.ErrPublish.WithCause(err)
		}
	}()

	return done
}

func (r *Router) complete(ctx context.Context, done chan<- Delivery, d Delivery) {
	ctx = logging.WithAppealID(ctx, d.AppealID)
	if d.Err != nil {
		metrics.IncPublish(string(d.Channel), "failure")
		r.logger.ErrorwCtx(ctx, "Failed to publish moderation result",
			"channel", d.Channel,
			"topic", d.Topic,
			"error", d.Err,
		)
	} else {
		metrics.IncPublish(string(d.Channel), "success")
		r.logger.InfowCtx(ctx, "Moderation result published",
			"channel", d.Channel,
			"topic", d.Topic,
			"duration_ms", d.Duration.Milliseconds(),
		)
	}
	done <- d
	close(done)
}

// Close waits for in-flight publishes until ctx is done.
func (r *Router) Close(ctx context.Context) error {
	waitCh := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for in-flight publishes: %w", ctx.Err())
	}
}

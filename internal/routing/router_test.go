package routing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moderator/internal/broker/brokertest"
	"moderator/internal/logger"
	apperrors "moderator/pkg/errors"
	"moderator/pkg/models"
)

const (
	approvedTopic = "moderation.approved"
	reviewTopic   = "moderation.review"
)

func result(id string, decision models.Decision) models.ModerationResult {
	return models.ModerationResult{
		AppealID:       id,
		ClientID:       "c-1",
		Decision:       decision,
		Reason:         "test",
		RiskCategory:   models.RiskLow,
		ProcessedAt:    models.Now(),
		OriginalAppeal: models.NewAppealEventBuilder().WithAppealID(id).Build(),
	}
}

func waitDelivery(t *testing.T, ch <-chan Delivery) Delivery {
	t.Helper()
	select {
	case d := <-ch:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
		return Delivery{}
	}
}

func TestChannelFor(t *testing.T) {
	assert.Equal(t, ChannelApproved, ChannelFor(models.DecisionApproved))
	assert.Equal(t, ChannelReview, ChannelFor(models.DecisionRejected))
	assert.Equal(t, ChannelReview, ChannelFor(models.DecisionReviewRequired))
}

func TestRouter_RoutesByDecision(t *testing.T) {
	producer := &brokertest.Producer{}
	router := NewRouter(producer, approvedTopic, reviewTopic, logger.NopLogger())

	tests := []struct {
		decision models.Decision
		topic    string
	}{
		{models.DecisionApproved, approvedTopic},
		{models.DecisionRejected, reviewTopic},
		{models.DecisionReviewRequired, reviewTopic},
	}

	for _, tt := range tests {
		d := waitDelivery(t, router.Publish(context.Background(), result("a-"+string(tt.decision), tt.decision)))
		require.NoError(t, d.Err)
		assert.Equal(t, tt.topic, d.Topic)
	}

	assert.Equal(t, []string{approvedTopic, reviewTopic, reviewTopic}, producer.Topics())
}

func TestRouter_MessageKeyAndBody(t *testing.T) {
	producer := &brokertest.Producer{}
	router := NewRouter(producer, approvedTopic, reviewTopic, logger.NopLogger())

	waitDelivery(t, router.Publish(context.Background(), result("a-42", models.DecisionRejected)))

	published := producer.Published()
	require.Len(t, published, 1)
	assert.Equal(t, "a-42", string(published[0].Message.Key))

	var decoded models.ModerationResult
	require.NoError(t, json.Unmarshal(published[0].Message.Value, &decoded))
	assert.Equal(t, models.DecisionRejected, decoded.Decision)
	assert.Equal(t, "a-42", decoded.OriginalAppeal.AppealID)
}

func TestRouter_PublishFailureIsReportedNotRaised(t *testing.T) {
	producer := &brokertest.Producer{Err: errors.New("broker down")}
	router := NewRouter(producer, approvedTopic, reviewTopic, logger.NopLogger())

	d := waitDelivery(t, router.Publish(context.Background(), result("a-1", models.DecisionApproved)))

	require.Error(t, d.Err)
	assert.True(t, errors.Is(d.Err, apperrors.ErrPublish))
	assert.Equal(t, ChannelApproved, d.Channel)
}

func TestRouter_PublishDoesNotBlockCaller(t *testing.T) {
	producer := &brokertest.Producer{Block: make(chan struct{})}
	router := NewRouter(producer, approvedTopic, reviewTopic, logger.NopLogger())

	start := time.Now()
	ch := router.Publish(context.Background(), result("a-1", models.DecisionApproved))
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, router.Close(ctx), "close must time out while a publish is in flight")

	close(producer.Block)
	d := waitDelivery(t, ch)
	require.NoError(t, d.Err)
	require.NoError(t, router.Close(context.Background()))
}

func TestRouter_PublishSurvivesCallerCancellation(t *testing.T) {
	producer := &brokertest.Producer{}
	router := NewRouter(producer, approvedTopic, reviewTopic, logger.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := waitDelivery(t, router.Publish(ctx, result("a-1", models.DecisionApproved)))
	require.NoError(t, d.Err)
	assert.Len(t, producer.Published(), 1)
}

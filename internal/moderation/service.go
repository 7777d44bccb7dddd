// Package moderation turns inbound appeal records into routed moderation
// results and decides whether each record may be acknowledged.
package moderation

import (
	"context"
	"time"

	"moderator/internal/broker"
	"moderator/internal/decision"
	"moderator/internal/enrichment"
	"moderator/internal/idempotency"
	"moderator/internal/logger"
	"moderator/internal/routing"
	apperrors "moderator/pkg/errors"
	"moderator/pkg/logging"
	"moderator/pkg/metrics"
	"moderator/pkg/models"
)

// Stage is a step of the per-record state machine:
//
//	RECEIVED -> DEDUP_CHECKED -> SKIPPED
//	                          -> ENRICHED -> DECIDED -> PUBLISHED -> MARKED -> ACKED
//	any step before ACKED     -> FAILED
type Stage string

const (
	StageReceived     Stage = "RECEIVED"
	StageDedupChecked Stage = "DEDUP_CHECKED"
	StageSkipped      Stage = "SKIPPED"
	StageEnriched     Stage = "ENRICHED"
	StageDecided      Stage = "DECIDED"
	StagePublished    Stage = "PUBLISHED"
	StageMarked       Stage = "MARKED"
	StageAcked        Stage = "ACKED"
	StageFailed       Stage = "FAILED"
)

// Outcome describes where processing of one record ended.
type Outcome struct {
	Stage    Stage
	AppealID string
	Decision models.Decision
	Reason   string
	Rule     string
	Channel  routing.Channel
}

// Publisher hands a result off for asynchronous delivery.
type Publisher interface {
	Publish(ctx context.Context, result models.ModerationResult) <-chan routing.Delivery
}

type Service struct {
	store     idempotency.Store
	gateway   enrichment.Gateway
	engine    *decision.Engine
	publisher Publisher
	logger    logger.Logger
	now       func() time.Time
}

func NewService(store idempotency.Store, gateway enrichment.Gateway, engine *decision.Engine, publisher Publisher, log logger.Logger) *Service {
	return &Service{
		store:     store,
		gateway:   gateway,
		engine:    engine,
		publisher: publisher,
		logger:    log.Named("moderation"),
		now:       time.Now,
	}
}

// Handle adapts Process to a broker handler. The record is acknowledged
// exactly when Process returns a nil error.
func (s *Service) Handle(ctx context.Context, rec broker.Record) error {
	_, err := s.Process(ctx, rec.Value)
	return err
}

// Process runs one record through the pipeline. A nil error means the
// record may be acknowledged. Failures to persist the idempotency mark or to
// publish the result are logged and do not fail the record.
func (s *Service) Process(ctx context.Context, value []byte) (out Outcome, err error) {
	start := time.Now()
	out.Stage = StageReceived

	defer func() {
		if r := recover(); r != nil {
			err = apperrors.RecoverPanic(r)
			s.logger.ErrorwCtx(ctx, "Panic during appeal processing", "stage", out.Stage, "error", err)
		}
		if err != nil {
			out.Stage = StageFailed
		}
		metrics.IncAppealStage(string(out.Stage))
		metrics.ObserveAppealDuration(time.Since(start), string(out.Stage))
	}()

	appeal, err := models.DecodeAppealEvent(value)
	if err != nil {
		s.logger.ErrorwCtx(ctx, "Failed to decode appeal event, leaving unacknowledged", "error", err, "size", len(value))
		return out, apperrors.ErrMalformedEvent.WithCause(err)
	}
	out.AppealID = appeal.AppealID
	ctx = logging.WithAppealID(ctx, appeal.AppealID)

	s.logger.InfowCtx(ctx, "Appeal received",
		"client_id", appeal.ClientID,
		"category", appeal.Category,
		"priority", appeal.Priority,
	)

	processed, err := s.store.IsProcessed(ctx, appeal.AppealID)
	if err != nil {
		s.logger.ErrorwCtx(ctx, "Failed to check idempotency store", "error", err)
		return out, err
	}
	out.Stage = StageDedupChecked

	if processed {
		out.Stage = StageSkipped
		s.logger.InfowCtx(ctx, "Appeal already processed, skipping")
		return out, nil
	}

	data := s.gateway.Fetch(ctx, appeal.ClientID)
	out.Stage = StageEnriched

	verdict := s.engine.Decide(*appeal, data)
	out.Stage = StageDecided
	out.Decision, out.Reason, out.Rule = verdict.Decision, verdict.Reason, verdict.Rule
	out.Channel = routing.ChannelFor(verdict.Decision)
	metrics.IncDecision(string(verdict.Decision), verdict.Rule)

	s.logger.InfowCtx(ctx, "Moderation decided",
		"decision", verdict.Decision,
		"reason", verdict.Reason,
		"rule", verdict.Rule,
	)

	// Shutting down: the decision may rest on a cancelled lookup, so leave
	// the record for redelivery.
	if err := ctx.Err(); err != nil {
		return out, err
	}

	result := models.ModerationResult{
		AppealID:       appeal.AppealID,
		ClientID:       appeal.ClientID,
		Decision:       verdict.Decision,
		Reason:         verdict.Reason,
		RiskCategory:   data.RiskCategory,
		ProcessedAt:    models.NewLocalTime(s.now()),
		OriginalAppeal: *appeal,
	}
	s.publisher.Publish(ctx, result)
	out.Stage = StagePublished

	if err := s.store.MarkProcessed(ctx, appeal.AppealID); err != nil {
		metrics.IncIdempotencyWriteFailure()
		s.logger.ErrorwCtx(ctx, "Failed to persist processed appeal, continuing", "error", err)
	}
	metrics.SetIdempotencyProcessedIDs(s.store.Count())
	out.Stage = StageMarked

	out.Stage = StageAcked
	return out, nil
}

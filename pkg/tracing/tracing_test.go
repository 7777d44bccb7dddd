package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"moderator/internal/config"
)

func TestInit_DisabledKeepsPropagation(t *testing.T) {
	tp, err := Init(config.TracingConfig{Enabled: false}, "moderation-service")
	require.NoError(t, err)
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewSampler(t *testing.T) {
	root := func(s sdktrace.Sampler) sdktrace.SamplingDecision {
		return s.ShouldSample(sdktrace.SamplingParameters{
			ParentContext: context.Background(),
			TraceID:       trace.TraceID{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 1},
		}).Decision
	}

	assert.Equal(t, sdktrace.RecordAndSample, root(newSampler(config.SamplerConfig{})))
	assert.Equal(t, sdktrace.RecordAndSample, root(newSampler(config.SamplerConfig{Type: "always_on"})))
	assert.Equal(t, sdktrace.Drop, root(newSampler(config.SamplerConfig{Type: "always_off"})))
	assert.Equal(t, sdktrace.Drop, root(newSampler(config.SamplerConfig{Type: "traceidratio", Param: 0})))
}

func TestNewSampler_FollowsSampledParent(t *testing.T) {
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{1},
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	ctx := trace.ContextWithRemoteSpanContext(context.Background(), parent)

	result := newSampler(config.SamplerConfig{Type: "always_off"}).ShouldSample(sdktrace.SamplingParameters{
		ParentContext: ctx,
		TraceID:       parent.TraceID(),
	})
	assert.Equal(t, sdktrace.RecordAndSample, result.Decision)
}

package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetLogFields_Empty(t *testing.T) {
	assert.Empty(t, GetLogFields(context.Background()))
}

func TestGetLogFields_AllValues(t *testing.T) {
	ctx := WithTraceID(context.Background(), "trace-1")
	ctx = WithAppealID(ctx, "appeal-7")
	ctx = WithServiceName(ctx, "moderation-service")
	ctx = WithRequestID(ctx, "req-3")
	ctx = WithRecord(ctx, RecordPosition{Topic: "appeals", Partition: 2, Offset: 41})

	assert.Equal(t, []interface{}{
		"trace_id", "trace-1",
		"appeal_id", "appeal-7",
		"service_name", "moderation-service",
		"request_id", "req-3",
		"topic", "appeals",
		"partition", 2,
		"offset", int64(41),
	}, GetLogFields(ctx))
}

func TestGetRecord_Missing(t *testing.T) {
	_, ok := GetRecord(context.Background())
	assert.False(t, ok)
}

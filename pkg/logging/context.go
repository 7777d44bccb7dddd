package logging

import (
	"context"
)

type contextKey string

const (
	TraceIDKey     contextKey = "trace_id"
	AppealIDKey    contextKey = "appeal_id"
	ServiceNameKey contextKey = "service_name"
	RecordKey      contextKey = "record"
	RequestIDKey   contextKey = "request_id"
)

// RecordPosition identifies an inbound broker record.
type RecordPosition struct {
	Topic     string
	Partition int
	Offset    int64
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func WithAppealID(ctx context.Context, appealID string) context.Context {
	return context.WithValue(ctx, AppealIDKey, appealID)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, ServiceNameKey, serviceName)
}

func WithRecord(ctx context.Context, pos RecordPosition) context.Context {
	return context.WithValue(ctx, RecordKey, pos)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

func GetAppealID(ctx context.Context) string {
	if appealID, ok := ctx.Value(AppealIDKey).(string); ok {
		return appealID
	}
	return ""
}

func GetServiceName(ctx context.Context) string {
	if serviceName, ok := ctx.Value(ServiceNameKey).(string); ok {
		return serviceName
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func GetRecord(ctx context.Context) (RecordPosition, bool) {
	pos, ok := ctx.Value(RecordKey).(RecordPosition)
	return pos, ok
}

func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 12)

	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, "trace_id", traceID)
	}

	if appealID := GetAppealID(ctx); appealID != "" {
		fields = append(fields, "appeal_id", appealID)
	}

	if serviceName := GetServiceName(ctx); serviceName != "" {
		fields = append(fields, "service_name", serviceName)
	}

	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}

	if pos, ok := GetRecord(ctx); ok {
		fields = append(fields,
			"topic", pos.Topic,
			"partition", pos.Partition,
			"offset", pos.Offset,
		)
	}

	return fields
}

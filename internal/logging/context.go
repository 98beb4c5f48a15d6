// internal/logging/context.go
package logging

import (
	"context"

	"go.uber.org/zap"
)

// contextKey es un tipo privado para evitar colisiones de claves de contexto.
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	ReportKey    contextKey = "report"
)

// FieldsFromContext extrae request_id y report del contexto como zap.Field.
func FieldsFromContext(ctx context.Context) []zap.Field {
	fields := []zap.Field{}
	if ctx == nil {
		return fields
	}
	if id, ok := ctx.Value(RequestIDKey).(string); ok && id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if name, ok := ctx.Value(ReportKey).(string); ok && name != "" {
		fields = append(fields, zap.String("report", name))
	}
	return fields
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithReport marca el contexto con el nombre del reporte en curso.
func WithReport(ctx context.Context, report string) context.Context {
	if report == "" {
		return ctx
	}
	return context.WithValue(ctx, ReportKey, report)
}

// For devuelve logger (o el global si es nil) con los campos del contexto.
func For(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if logger == nil {
		logger = zap.L()
	}
	return logger.With(FieldsFromContext(ctx)...)
}

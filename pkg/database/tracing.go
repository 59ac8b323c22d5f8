package database

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Ami2490/armeria/pkg/database"

// QueryTracer opens client spans around storage operations and logs the
// ones slower than SlowThreshold. A zero threshold or nil Logger disables
// slow-query logging. The zero value only traces.
type QueryTracer struct {
	System        string // db.system attribute, e.g. "postgresql" or "redis"
	SlowThreshold time.Duration
	Logger        *slog.Logger
}

// Start begins a span named "db.<operation>". Call the returned function with
// the operation's error once it completes.
func (q QueryTracer) Start(ctx context.Context, operation, statement string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", q.System),
			attribute.String("db.operation", operation),
			attribute.String("db.statement", statement),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		if q.SlowThreshold <= 0 || q.Logger == nil {
			return
		}
		if elapsed := time.Since(start); elapsed >= q.SlowThreshold {
			attrs := []any{
				slog.String("system", q.System),
				slog.String("operation", operation),
				slog.Duration("duration", elapsed),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			q.Logger.WarnContext(ctx, "slow query detected", attrs...)
		}
	}
}

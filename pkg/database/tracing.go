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

const tracerName = "github.com/Salisuili/rest-frontend/pkg/database"

// QueryTracer starts spans for database operations and warns about slow
// ones.
type QueryTracer struct {
	system        string
	slowThreshold time.Duration
	logger        *slog.Logger
}

// NewQueryTracer creates a tracer. A zero threshold disables slow query
// logging.
func NewQueryTracer(system string, slowThreshold time.Duration, logger *slog.Logger) *QueryTracer {
	return &QueryTracer{system: system, slowThreshold: slowThreshold, logger: logger}
}

// Start opens a span for operation. Call the returned function with the
// operation's error when it completes:
//
//	ctx, end := tracer.Start(ctx, "GetState", query)
//	defer func() { end(err) }()
func (t *QueryTracer) Start(ctx context.Context, operation, statement string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", t.system),
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

		if t.slowThreshold <= 0 || t.logger == nil {
			return
		}
		if elapsed := time.Since(start); elapsed >= t.slowThreshold {
			t.logger.WarnContext(ctx, "slow query detected",
				slog.String("operation", operation),
				slog.Duration("duration", elapsed),
			)
		}
	}
}

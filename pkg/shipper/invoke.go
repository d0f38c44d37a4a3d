package shipper

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Observer receives per-call metrics. telemetry.Metrics satisfies it.
type Observer interface {
	RecordRequest(operation, carrier, status string, duration float64)
	RecordError(carrier, errorType string)
}

type nopObserver struct{}

func (nopObserver) RecordRequest(string, string, string, float64) {}
func (nopObserver) RecordError(string, string)                     {}

// NopObserver discards all metrics.
var NopObserver Observer = nopObserver{}

// Instrument bundles what every adapter needs to observe its calls.
type Instrument struct {
	Carrier  string
	Logger   *otelzap.Logger
	Tracer   trace.Tracer
	Observer Observer
}

// NewInstrument fills nil collaborators with no-op implementations.
func NewInstrument(carrier string, logger *otelzap.Logger, tracer trace.Tracer, observer Observer) Instrument {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(carrier)
	}
	if observer == nil {
		observer = NopObserver
	}
	return Instrument{
		Carrier:  carrier,
		Logger:   logger,
		Tracer:   tracer,
		Observer: observer,
	}
}

// Invoke runs one carrier operation inside a span, records metrics, and
// applies the error propagation policy (see Wrap).
func (in Instrument) Invoke(ctx context.Context, operation string, testMode bool, fn func(ctx context.Context) (Result, error)) (Result, error) {
	ctx, span := in.Tracer.Start(ctx, in.Carrier+"."+operation,
		trace.WithAttributes(
			attribute.String("carrier", in.Carrier),
			attribute.Bool("test_mode", testMode),
		))
	defer span.End()

	start := time.Now()
	res, err := fn(ctx)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		err = Wrap(in.Carrier, operation, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, Kind(err))
		in.Observer.RecordRequest(operation, in.Carrier, "error", elapsed)
		in.Observer.RecordError(in.Carrier, Kind(err))
		in.Logger.Ctx(ctx).Error("Carrier call failed",
			zap.String("carrier", in.Carrier),
			zap.String("operation", operation),
			zap.String("kind", Kind(err)),
			zap.Int("status_code", StatusCode(err)),
			zap.Error(err),
		)
		return nil, err
	}

	in.Observer.RecordRequest(operation, in.Carrier, "ok", elapsed)
	if res == nil {
		res = Result{}
	}
	return res, nil
}

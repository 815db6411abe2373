package cmd

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tanq16/guardl/internal/utils"
)

var tracerProvider *sdktrace.TracerProvider

// spanLogExporter writes finished spans to the "trace" component logger.
type spanLogExporter struct {
	log zerolog.Logger
}

func (e *spanLogExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		ev := e.log.Info()
		if s.Status().Code == codes.Error {
			ev = e.log.Warn().Str("error", s.Status().Description)
		}
		ev = ev.Str("span", s.Name()).
			Str("trace", s.SpanContext().TraceID().String()).
			Dur("duration", s.EndTime().Sub(s.StartTime()))
		for _, kv := range s.Attributes() {
			ev = ev.Str(string(kv.Key), kv.Value.Emit())
		}
		ev.Msg("Span finished")
	}
	return nil
}

func (e *spanLogExporter) Shutdown(context.Context) error {
	return nil
}

func initTracing() {
	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(&spanLogExporter{log: utils.GetLogger("trace")}),
	)
}

func shutdownTracing() error {
	if tracerProvider == nil {
		return nil
	}
	err := tracerProvider.Shutdown(context.Background())
	tracerProvider = nil
	return err
}

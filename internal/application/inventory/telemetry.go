package inventory

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/jhoicas/stockmaster/internal/application/inventory"

// instruments spans y contadores del núcleo. Sin proveedor configurado son no-op.
type instruments struct {
	tracer      trace.Tracer
	ledgerRows  metric.Int64Counter
	rejections  metric.Int64Counter
	transitions metric.Int64Counter
}

func newInstruments() *instruments {
	meter := otel.Meter(instrumentationName)
	return &instruments{
		tracer:      otel.Tracer(instrumentationName),
		ledgerRows:  counter(meter, "stock.ledger.entries", "Entradas del libro de stock escritas"),
		rejections:  counter(meter, "stock.mutations.rejected", "Mutaciones de stock rechazadas por tipo de error"),
		transitions: counter(meter, "documents.transitions", "Transiciones de estado de documentos"),
	}
}

func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		c, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter(name)
	}
	return c
}

func (in *instruments) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return in.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// end cierra el span registrando el error, si lo hay.
func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

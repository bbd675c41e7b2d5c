package observability

import (
	"context"
	"log"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// setupTracing wires a Jaeger exporter behind the global tracer provider.
// Tracing is best-effort: an unreachable collector never blocks startup.
func setupTracing(serviceName string) *sdktrace.TracerProvider {
	endpoint := os.Getenv("JAEGER_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:14268/api/traces"
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
	if err != nil {
		log.Printf("Failed to create Jaeger exporter: %v", err)
		return nil
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	)
	otel.SetTracerProvider(provider)
	return provider
}

// Tracer returns the service tracer. Safe to call even when tracing failed
// to initialize; spans are then no-ops.
func (o *Observability) Tracer() trace.Tracer {
	return otel.Tracer("matching-engine")
}

func (o *Observability) shutdownTracing() {
	if o.tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.tracerProvider.Shutdown(ctx)
	}
}

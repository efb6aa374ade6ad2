// Package telemetry installs the OpenTelemetry tracer provider. Tracing is
// off unless OTEL_EXPORTER_OTLP_ENDPOINT is set; without a provider the
// otelhttp wrappers in the server and reviews client record nothing.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	instanceIDKey = "instance_id"
	enabledKey    = "telemetry.enabled"
)

// SettingsStore is the interface the telemetry package needs from the config store.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// ShutdownFunc flushes pending spans and stops the exporter.
type ShutdownFunc func(context.Context) error

func noop(context.Context) error { return nil }

// Options configures Setup.
type Options struct {
	ServiceName string
	Version     string
	Endpoint    string // defaults to OTEL_EXPORTER_OTLP_ENDPOINT
	Insecure    bool   // also enabled by OTEL_EXPORTER_OTLP_INSECURE=true
}

// Setup installs a batching OTLP/gRPC tracer provider as the global
// provider. The returned ShutdownFunc is never nil. When tracing is
// disabled (no endpoint, SHOWCASE_TELEMETRY=0, or the telemetry.enabled
// setting is false) Setup does nothing and returns a no-op.
func Setup(ctx context.Context, store SettingsStore, opts Options) (ShutdownFunc, error) {
	if opts.Endpoint == "" {
		opts.Endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if opts.Endpoint == "" || !Enabled(ctx, store) {
		return noop, nil
	}
	if os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true" {
		opts.Insecure = true
	}

	exporterOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(stripScheme(opts.Endpoint))}
	if opts.Insecure {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return noop, fmt.Errorf("create otlp exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(Attributes(ctx, store, opts)...))
	if err != nil {
		return noop, fmt.Errorf("build otel resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

// Enabled reports whether tracing may be turned on. The environment
// override wins over the stored setting.
func Enabled(ctx context.Context, store SettingsStore) bool {
	switch strings.ToLower(os.Getenv("SHOWCASE_TELEMETRY")) {
	case "0", "false", "off", "no":
		return false
	}
	if store != nil {
		val, err := store.GetSetting(ctx, enabledKey)
		if err == nil && (val == "false" || val == "0") {
			return false
		}
	}
	return true
}

// Attributes returns the resource attributes identifying this process.
func Attributes(ctx context.Context, store SettingsStore, opts Options) []attribute.KeyValue {
	name := opts.ServiceName
	if name == "" {
		name = "showcase"
	}
	attrs := []attribute.KeyValue{
		semconv.ServiceName(name),
		semconv.ServiceInstanceID(resolveInstanceID(ctx, store)),
	}
	if opts.Version != "" {
		attrs = append(attrs, semconv.ServiceVersion(opts.Version))
	}
	return attrs
}

// resolveInstanceID loads or generates a persistent instance ID so traces
// from one deployment group together across restarts.
func resolveInstanceID(ctx context.Context, store SettingsStore) string {
	if store != nil {
		id, err := store.GetSetting(ctx, instanceIDKey)
		if err == nil && id != "" {
			return id
		}
	}

	id := uuid.New().String()

	if store != nil {
		_ = store.SetSetting(ctx, instanceIDKey, id)
	}
	return id
}

// stripScheme turns "http(s)://host:port" into the "host:port" form the
// gRPC exporter expects.
func stripScheme(endpoint string) string {
	for _, p := range []string{"https://", "http://"} {
		if strings.HasPrefix(endpoint, p) {
			return strings.TrimSuffix(strings.TrimPrefix(endpoint, p), "/")
		}
	}
	return endpoint
}

package hooks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/waftester/apiprobe/pkg/defaults"
	"github.com/waftester/apiprobe/pkg/duration"
	"github.com/waftester/apiprobe/pkg/output/dispatcher"
	"github.com/waftester/apiprobe/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*OTelHook)(nil)

// OTelHook exports scans as traces: one root span per scan and one
// child span per probe.
type OTelHook struct {
	opts           OTelOptions
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	mu     sync.Mutex
	scans  map[string]*scanSpan
	closed bool
}

type scanSpan struct {
	ctx  context.Context
	span trace.Span
}

// OTelOptions configures the OpenTelemetry hook behavior.
type OTelOptions struct {
	// Endpoint is the OTLP gRPC endpoint (default "localhost:4317").
	Endpoint string

	// ServiceName is the service name for traces (default: "apiprobe").
	ServiceName string

	// Insecure uses a plaintext connection.
	Insecure bool

	// Headers contains additional headers for the OTLP exporter.
	Headers map[string]string

	// ShutdownTimeout bounds the final flush (default: 5s).
	ShutdownTimeout time.Duration

	// ConnectionTimeout bounds exporter setup (default: 10s).
	ConnectionTimeout time.Duration
}

func (o *OTelOptions) applyDefaults() {
	if o.ServiceName == "" {
		o.ServiceName = defaults.ToolName
	}
	if o.Endpoint == "" {
		o.Endpoint = defaults.OTelEndpoint
	}
	if o.ShutdownTimeout == 0 {
		o.ShutdownTimeout = duration.HookShutdown
	}
	if o.ConnectionTimeout == 0 {
		o.ConnectionTimeout = duration.HookConnect
	}
}

// NewOTelHook creates a hook exporting to an OTLP gRPC collector.
// Collector outages do not block scans; spans are batched and dropped
// if they cannot be delivered.
func NewOTelHook(opts OTelOptions) (*OTelHook, error) {
	opts.applyDefaults()

	exporterOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(opts.Endpoint),
	}
	if opts.Insecure {
		exporterOpts = append(exporterOpts,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	}
	if len(opts.Headers) > 0 {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithHeaders(opts.Headers))
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectionTimeout)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("otel: create exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(newResource(opts.ServiceName)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	return NewOTelHookWithProvider(tp, opts), nil
}

// NewOTelHookWithProvider builds the hook on an existing provider. The
// hook owns tp and shuts it down on Close.
func NewOTelHookWithProvider(tp *sdktrace.TracerProvider, opts OTelOptions) *OTelHook {
	opts.applyDefaults()
	return &OTelHook{
		opts:           opts,
		tracerProvider: tp,
		tracer:         tp.Tracer(defaults.ToolName + "/scanner"),
		scans:          make(map[string]*scanSpan),
	}
}

func newResource(service string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(service),
		semconv.ServiceVersion(defaults.Version),
		attribute.String("service.component", "scanner"),
	)
}

// OnEvent turns events into spans.
func (h *OTelHook) OnEvent(ctx context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	switch e := event.(type) {
	case *events.StartEvent:
		h.handleStart(ctx, e)
	case *events.ResultEvent:
		h.handleResult(e)
	case *events.CompleteEvent:
		h.handleComplete(e)
	}
	return nil
}

func (h *OTelHook) handleStart(ctx context.Context, start *events.StartEvent) {
	spanCtx, span := h.tracer.Start(ctx, defaults.ToolName+".scan",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(start.Timestamp()),
		trace.WithAttributes(
			attribute.String("scan_id", start.ScanID()),
			attribute.String("protocol", start.Target.Protocol),
			attribute.String("url", start.Target.URL),
			attribute.String("method", start.Target.Method),
			attribute.StringSlice("tests", start.Tests),
			attribute.Int("resolved_tests", start.Resolved),
		),
	)
	h.scans[start.ScanID()] = &scanSpan{ctx: spanCtx, span: span}
}

func (h *OTelHook) handleResult(result *events.ResultEvent) {
	root, ok := h.scans[result.ScanID()]
	if !ok {
		return
	}

	end := result.Timestamp()
	_, span := h.tracer.Start(root.ctx, defaults.ToolName+".probe",
		trace.WithTimestamp(end.Add(-result.Duration())),
		trace.WithAttributes(
			attribute.String("scan_id", result.ScanID()),
			attribute.String("test", result.Test),
			attribute.String("name", result.Result.TestName),
			attribute.Bool("vulnerable", result.Result.Vulnerable),
			attribute.Float64("confidence", result.Result.Confidence),
			attribute.String("severity", string(result.Severity)),
		),
	)
	switch {
	case result.Failed:
		span.SetStatus(codes.Error, result.Result.Description)
	case result.Result.Vulnerable:
		span.SetStatus(codes.Error, "vulnerability detected")
	default:
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}

func (h *OTelHook) handleComplete(complete *events.CompleteEvent) {
	root, ok := h.scans[complete.ScanID()]
	if !ok {
		return
	}
	delete(h.scans, complete.ScanID())

	root.span.SetAttributes(
		attribute.Int("results", complete.Results),
		attribute.Int("vulnerable", complete.Vulnerable),
		attribute.Float64("duration_sec", complete.DurationSec),
		attribute.Bool("cancelled", complete.Cancelled),
	)
	switch {
	case complete.Cancelled:
		root.span.SetStatus(codes.Error, "scan cancelled")
	case complete.Vulnerable > 0:
		root.span.SetStatus(codes.Error, "vulnerabilities detected")
	default:
		root.span.SetStatus(codes.Ok, "scan completed")
	}
	root.span.End(trace.WithTimestamp(complete.Timestamp()))
}

// EventTypes returns the event types this hook handles.
func (h *OTelHook) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventTypeStart,
		events.EventTypeResult,
		events.EventTypeComplete,
	}
}

// Close ends any open scan span and flushes the provider.
func (h *OTelHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	for id, s := range h.scans {
		s.span.End()
		delete(h.scans, id)
	}

	if h.tracerProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.ShutdownTimeout)
	defer cancel()
	if err := h.tracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("otel: shutdown tracer provider: %w", err)
	}
	return nil
}

// Endpoint returns the OTLP endpoint being used.
func (h *OTelHook) Endpoint() string {
	return h.opts.Endpoint
}

// ServiceName returns the service name being used.
func (h *OTelHook) ServiceName() string {
	return h.opts.ServiceName
}

package monitoring

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Rheinmir/qr-generator-module/logging"
)

var (
	// OpenTelemetry metrics
	CodesGenerated     metric.Int64Counter
	GenerationFailures metric.Int64Counter
	BatchSize          metric.Int64Histogram
	RenderDuration     metric.Float64Histogram
	ArchiveBytes       metric.Int64Histogram
	HTTPServerDuration metric.Float64Histogram
)

func init() {
	// Instruments are usable before InitMeter runs, e.g. in tests.
	_ = initInstruments(noop.NewMeterProvider().Meter("qr-service"))
}

// InitTracer initializes OpenTelemetry tracing
func InitTracer(serviceName, endpoint string) (*sdktrace.TracerProvider, trace.Tracer, error) {
	ctx := context.Background()

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	tracer := tp.Tracer(serviceName)

	logging.Info("Tracing initialized", zap.String("service_name", serviceName))

	return tp, tracer, nil
}

// InitMeter initializes OpenTelemetry metrics. Metrics are pushed over OTLP
// and also exposed for Prometheus scraping through the default registry.
func InitMeter(serviceName, endpoint string) (*sdkmetric.MeterProvider, metric.Meter, error) {
	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	// Create OTLP metric exporter
	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, nil, err
	}

	promExporter, err := otelprom.New()
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithReader(promExporter),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)
	meter := mp.Meter(serviceName)

	if err := initInstruments(meter); err != nil {
		return nil, nil, err
	}

	logging.Info("Metrics initialized with OTLP and Prometheus exporters", zap.String("endpoint", endpoint))

	return mp, meter, nil
}

// RegisterWorkerGauge reports running() as the number of live render workers.
func RegisterWorkerGauge(meter metric.Meter, running func() int) error {
	_, err := meter.Int64ObservableGauge(
		"qr_render_workers",
		metric.WithDescription("Number of live render worker goroutines"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(running()))
			return nil
		}),
	)
	return err
}

func initInstruments(meter metric.Meter) error {
	var err error

	CodesGenerated, err = meter.Int64Counter(
		"qr_codes_generated_total",
		metric.WithDescription("Total number of QR codes and barcodes generated"),
	)
	if err != nil {
		return err
	}

	GenerationFailures, err = meter.Int64Counter(
		"qr_generation_failures_total",
		metric.WithDescription("Total number of rejected or failed generation requests"),
	)
	if err != nil {
		return err
	}

	BatchSize, err = meter.Int64Histogram(
		"qr_batch_items",
		metric.WithDescription("Number of items per batch request"),
	)
	if err != nil {
		return err
	}

	RenderDuration, err = meter.Float64Histogram(
		"qr_render_duration_milliseconds",
		metric.WithDescription("Duration of image rendering per request"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	ArchiveBytes, err = meter.Int64Histogram(
		"qr_archive_size_bytes",
		metric.WithDescription("Size of generated zip and xlsx archives"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return err
	}

	HTTPServerDuration, err = meter.Float64Histogram(
		"http_server_duration_milliseconds",
		metric.WithDescription("HTTP server request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	return err
}

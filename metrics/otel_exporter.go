package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/marcelsud/webhook-outbox/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "webhook-outbox"

// OTelExporter provides OpenTelemetry metrics export following OTel standards
// It also implements webhook.MetricsSink
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *prometheus.Registry
	collector     Collector

	// OTel meters and instruments
	meter              metric.Meter
	attempts           metric.Int64Counter
	attemptDuration    metric.Float64Histogram
	queueLengthGauge   metric.Int64ObservableGauge
	dueRetriesGauge    metric.Int64ObservableGauge
	activePollersGauge metric.Int64ObservableGauge
}

var _ webhook.MetricsSink = (*OTelExporter)(nil)

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format
// collector may be nil, in which case only delivery counters are exported
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprometheus.New(otelprometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	oe, err := newExporter(collector, sdkmetric.WithReader(exporter))
	if err != nil {
		return nil, err
	}
	oe.registry = registry
	otel.SetMeterProvider(oe.meterProvider)

	return oe, nil
}

// NewOTelExporterWithReader builds an exporter on a custom reader, without Prometheus
func NewOTelExporterWithReader(collector Collector, reader sdkmetric.Reader) (*OTelExporter, error) {
	return newExporter(collector, sdkmetric.WithReader(reader))
}

func newExporter(collector Collector, opts ...sdkmetric.Option) (*OTelExporter, error) {
	meterProvider := sdkmetric.NewMeterProvider(opts...)

	meter := meterProvider.Meter(
		meterName,
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		collector:     collector,
		meter:         meter,
	}

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// registerInstruments creates and registers all OpenTelemetry metric instruments
func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.attempts, err = oe.meter.Int64Counter(
		"webhook.delivery.attempts",
		metric.WithDescription("Number of delivery attempts per subscriber and outcome"),
		metric.WithUnit("{attempts}"),
	)
	if err != nil {
		return fmt.Errorf("creating attempts counter: %w", err)
	}

	oe.attemptDuration, err = oe.meter.Float64Histogram(
		"webhook.delivery.duration",
		metric.WithDescription("Duration of delivery attempts"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("creating duration histogram: %w", err)
	}

	if oe.collector == nil {
		return nil
	}

	oe.queueLengthGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.retry.queue.length",
		metric.WithDescription("Number of retry jobs waiting in the queue"),
		metric.WithUnit("{jobs}"),
		metric.WithInt64Callback(oe.observeQueueLength),
	)
	if err != nil {
		return fmt.Errorf("creating queue length gauge: %w", err)
	}

	oe.dueRetriesGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.retry.due",
		metric.WithDescription("Number of retry jobs whose run-at has passed"),
		metric.WithUnit("{jobs}"),
		metric.WithInt64Callback(oe.observeDueRetries),
	)
	if err != nil {
		return fmt.Errorf("creating due retries gauge: %w", err)
	}

	oe.activePollersGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.pollers.active",
		metric.WithDescription("Number of retry pollers with a live heartbeat, by status"),
		metric.WithUnit("{pollers}"),
		metric.WithInt64Callback(oe.observeActivePollers),
	)
	if err != nil {
		return fmt.Errorf("creating active pollers gauge: %w", err)
	}

	return nil
}

// RecordAttempt counts one delivery attempt
func (oe *OTelExporter) RecordAttempt(ctx context.Context, subscriberID string, outcome webhook.Outcome, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("subscriber.id", subscriberID),
		attribute.String("outcome", outcome.String()),
	)
	oe.attempts.Add(ctx, 1, attrs)
	oe.attemptDuration.Record(ctx, duration.Seconds(), attrs)
}

func (oe *OTelExporter) observeQueueLength(ctx context.Context, observer metric.Int64Observer) error {
	length, err := oe.collector.GetRetryQueueLength(ctx)
	if err != nil {
		return err
	}
	observer.Observe(length)
	return nil
}

func (oe *OTelExporter) observeDueRetries(ctx context.Context, observer metric.Int64Observer) error {
	due, err := oe.collector.GetDueRetries(ctx)
	if err != nil {
		return err
	}
	observer.Observe(due)
	return nil
}

// observeActivePollers reports poller counts grouped by status
func (oe *OTelExporter) observeActivePollers(ctx context.Context, observer metric.Int64Observer) error {
	pollers, err := oe.collector.GetActivePollers(ctx)
	if err != nil {
		return err
	}

	byStatus := make(map[string]int64)
	for _, p := range pollers {
		byStatus[p.Status]++
	}

	for status, count := range byStatus {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("poller.status", status),
		))
	}

	return nil
}

// ServeHTTP serves Prometheus-formatted metrics
func (oe *OTelExporter) ServeHTTP() http.Handler {
	if oe.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	prometheusotel "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"setsearch/internal/index"
)

type telemetry struct {
	enabled bool
	logger  *slog.Logger

	registry       *prometheus.Registry
	metricsHandler http.Handler

	httpRequests  metric.Int64Counter
	httpErrors    metric.Int64Counter
	httpLatency   metric.Float64Histogram
	buildDocs     metric.Int64Counter
	buildLatency  metric.Float64Histogram
	searchOps     metric.Int64Counter
	searchHits    metric.Int64Histogram
	searchLatency metric.Float64Histogram

	docsGauge  *prometheus.GaugeVec
	termsGauge *prometheus.GaugeVec
}

func newTelemetry(ctx context.Context, logger *slog.Logger, enabled bool) *telemetry {
	t := &telemetry{enabled: enabled, logger: logger}
	if !enabled {
		return t
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	exporter, err := prometheusotel.New(prometheusotel.WithRegisterer(registry))
	if err != nil {
		logger.Error("failed to initialize prometheus exporter", "error", err)
		t.enabled = false
		return t
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter("setsearch")

	t.httpRequests, _ = meter.Int64Counter("http_requests_total", metric.WithDescription("Total HTTP requests"))
	t.httpErrors, _ = meter.Int64Counter("http_errors_total", metric.WithDescription("HTTP requests that returned an error status"))
	t.httpLatency, _ = meter.Float64Histogram("http_request_duration_ms", metric.WithDescription("Latency of HTTP requests in milliseconds"), metric.WithUnit("ms"))
	t.buildDocs, _ = meter.Int64Counter("index_documents_total", metric.WithDescription("Documents processed while building indexes"))
	t.buildLatency, _ = meter.Float64Histogram("index_build_ms", metric.WithDescription("Time spent building an index"), metric.WithUnit("ms"))
	t.searchOps, _ = meter.Int64Counter("search_requests_total", metric.WithDescription("Queries evaluated"))
	t.searchHits, _ = meter.Int64Histogram("search_hits", metric.WithDescription("Documents matched per query"))
	t.searchLatency, _ = meter.Float64Histogram("search_latency_ms", metric.WithDescription("Latency of query evaluation"), metric.WithUnit("ms"))

	t.docsGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "setsearch", Name: "documents", Help: "Documents processed per index"}, []string{"index"})
	t.termsGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "setsearch", Name: "terms", Help: "Distinct terms per index"}, []string{"index"})
	registry.MustRegister(t.docsGauge, t.termsGauge)

	t.registry = registry
	t.metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	logger.Info("telemetry initialized", "prometheus", true)
	t.httpRequests.Add(ctx, 0) // create the series eagerly
	return t
}

func (t *telemetry) recordRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	if t == nil || !t.enabled {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)
	t.httpRequests.Add(ctx, 1, attrs)
	t.httpLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	if status >= http.StatusBadRequest {
		t.httpErrors.Add(ctx, 1, attrs)
	}
}

func (t *telemetry) recordBuild(ctx context.Context, stats index.Stats) {
	if t == nil || !t.enabled {
		return
	}

	attrs := metric.WithAttributes(attribute.String("index", stats.Name))
	t.buildDocs.Add(ctx, int64(stats.Documents), attrs)
	t.buildLatency.Record(ctx, float64(stats.BuildTime), attrs)
	t.docsGauge.WithLabelValues(stats.Name).Set(float64(stats.Documents))
	t.termsGauge.WithLabelValues(stats.Name).Set(float64(stats.Terms))
}

func (t *telemetry) recordSearch(ctx context.Context, indexName string, hits int, duration time.Duration) {
	if t == nil || !t.enabled {
		return
	}

	attrs := metric.WithAttributes(attribute.String("index", indexName))
	t.searchOps.Add(ctx, 1, attrs)
	t.searchHits.Record(ctx, int64(hits), attrs)
	t.searchLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

func (t *telemetry) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if t == nil || !t.enabled || t.registry == nil {
		respond(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}

	t.metricsHandler.ServeHTTP(w, r)
}

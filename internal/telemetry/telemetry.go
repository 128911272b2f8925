// Package telemetry exposes Prometheus metrics and an OpenTelemetry tracer for
// the market classifier.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
)

const (
	serviceName     = "market-classifier"
	metricNamespace = "market_classifier"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	Classifications  *prometheus.CounterVec
	ClassifyDuration prometheus.Histogram
	BatchSize        prometheus.Histogram
	ActiveWorkers    prometheus.Gauge

	WorkbookRows  *prometheus.CounterVec
	ArticleFetch  *prometheus.CounterVec
	NewsItems     *prometheus.CounterVec
	NewsAPICalls  *prometheus.CounterVec
	ReportsServed prometheus.Counter
}

// Provider bundles the tracer and metrics. Each Provider owns its registry so
// several can coexist in tests.
type Provider struct {
	Tracer   trace.Tracer
	Metrics  *Metrics
	registry *prometheus.Registry
}

// NewProvider registers all collectors on a fresh registry alongside the Go
// and process collectors.
func NewProvider() *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Provider{
		Tracer:   otel.Tracer(serviceName),
		Metrics:  initMetrics(promauto.With(reg)),
		registry: reg,
	}
}

func initMetrics(f promauto.Factory) *Metrics {
	return &Metrics{
		Classifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "classifications_total",
			Help:      "Classifications by reason code",
		}, []string{"reason"}),
		ClassifyDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricNamespace,
			Name:      "classify_duration_seconds",
			Help:      "Time spent classifying one text",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		}),
		BatchSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricNamespace,
			Name:      "batch_size",
			Help:      "Items per classification batch",
			Buckets:   []float64{1, 10, 50, 100, 250, 500, 800},
		}),
		ActiveWorkers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Name:      "active_workers",
			Help:      "Batch workers currently classifying",
		}),
		WorkbookRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "workbook_rows_total",
			Help:      "Workbook rows filled by sheet",
		}, []string{"sheet"}),
		ArticleFetch: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "article_fetch_total",
			Help:      "Article body fetches by result",
		}, []string{"result"}),
		NewsItems: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "news_items_total",
			Help:      "News items collected by company",
		}, []string{"company"}),
		NewsAPICalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "news_api_calls_total",
			Help:      "News search API calls by outcome",
		}, []string{"outcome"}),
		ReportsServed: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "reports_served_total",
			Help:      "Report workbooks downloaded",
		}),
	}
}

// Handler serves this provider's registry for the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

// ObserveClassification implements classifier.Observer.
func (p *Provider) ObserveClassification(reason domain.ReasonCode, elapsed time.Duration) {
	p.Metrics.Classifications.WithLabelValues(string(reason)).Inc()
	p.Metrics.ClassifyDuration.Observe(elapsed.Seconds())
}

// RecordBatch records the size of a classification batch.
func (p *Provider) RecordBatch(size int) {
	p.Metrics.BatchSize.Observe(float64(size))
}

// SetActiveWorkers sets the active worker gauge.
func (p *Provider) SetActiveWorkers(n int) {
	p.Metrics.ActiveWorkers.Set(float64(n))
}

// RecordWorkbookRows counts filled rows for a sheet.
func (p *Provider) RecordWorkbookRows(sheet string, n int) {
	p.Metrics.WorkbookRows.WithLabelValues(sheet).Add(float64(n))
}

// RecordArticleFetch counts one article fetch; result is "ok", "empty" or "error".
func (p *Provider) RecordArticleFetch(result string) {
	p.Metrics.ArticleFetch.WithLabelValues(result).Inc()
}

// RecordNewsItems counts collected items for a company.
func (p *Provider) RecordNewsItems(company string, n int) {
	p.Metrics.NewsItems.WithLabelValues(company).Add(float64(n))
}

// RecordNewsAPICall counts one search API call.
func (p *Provider) RecordNewsAPICall(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	p.Metrics.NewsAPICalls.WithLabelValues(outcome).Inc()
}

// RecordReportServed counts one report download.
func (p *Provider) RecordReportServed() {
	p.Metrics.ReportsServed.Inc()
}

// StartSpan starts a span; the caller ends it.
//
//nolint:spancheck // Caller is responsible for ending the span
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Package observe provides application-wide observability primitives for
// Lexiscore: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Lexiscore metrics.
const meterName = "github.com/lexiscore/lexiscore"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// CompareDuration tracks text comparison latency.
	CompareDuration metric.Float64Histogram

	// Comparisons counts comparison runs. Use with attribute:
	//   attribute.String("source", ...) ("api" or "attempt")
	Comparisons metric.Int64Counter

	// Attempts counts scored attempts. Use with attributes:
	//   attribute.String("passage_kind", ...), attribute.String("passage_id", ...)
	Attempts metric.Int64Counter

	// AttemptAccuracy tracks the accuracy percentage of scored attempts.
	AttemptAccuracy metric.Float64Histogram

	// SeedImports counts passages added from seed files at startup.
	SeedImports metric.Int64Counter

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for comparison latencies, which are CPU-bound and usually well under a second.
var latencyBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

// accuracyBuckets defines histogram bucket boundaries for accuracy percentages.
var accuracyBuckets = []float64{
	10, 25, 50, 70, 80, 90, 95, 99, 100,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.CompareDuration, err = m.Float64Histogram("lexiscore.compare.duration",
		metric.WithDescription("Latency of a single text comparison."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Comparisons, err = m.Int64Counter("lexiscore.comparisons",
		metric.WithDescription("Total text comparisons by source."),
	); err != nil {
		return nil, err
	}
	if met.Attempts, err = m.Int64Counter("lexiscore.attempts",
		metric.WithDescription("Total scored attempts by passage kind and ID."),
	); err != nil {
		return nil, err
	}
	if met.AttemptAccuracy, err = m.Float64Histogram("lexiscore.attempt.accuracy",
		metric.WithDescription("Accuracy percentage of scored attempts."),
		metric.WithUnit("%"),
		metric.WithExplicitBucketBoundaries(accuracyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SeedImports, err = m.Int64Counter("lexiscore.seed.imports",
		metric.WithDescription("Passages added from seed files at startup."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("lexiscore.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordComparison is a convenience method that records one comparison run
// and its duration in seconds.
func (m *Metrics) RecordComparison(ctx context.Context, source string, seconds float64) {
	m.Comparisons.Add(ctx, 1,
		metric.WithAttributes(attribute.String("source", source)),
	)
	m.CompareDuration.Record(ctx, seconds)
}

// RecordAttempt is a convenience method that records a scored attempt with
// the standard attribute set.
func (m *Metrics) RecordAttempt(ctx context.Context, passageKind, passageID string, accuracy float64) {
	m.Attempts.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("passage_kind", passageKind),
			attribute.String("passage_id", passageID),
		),
	)
	m.AttemptAccuracy.Record(ctx, accuracy)
}

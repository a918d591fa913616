// Package observe holds the OpenTelemetry instruments recorded by the
// correction engine and the HTTP layer. A Prometheus exporter bridge is
// installed by [InitProvider] so the instruments can be scraped on /metrics.
//
// Tests should build instruments with [NewMetrics] over their own
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/hazyhaar/entitycorrect"

// Metrics holds the metric instruments. All fields are safe for concurrent use.
type Metrics struct {
	// RunDuration tracks Engine.Run latency. Attribute: dict.
	RunDuration metric.Float64Histogram

	// Runs counts Engine.Run calls. Attributes: dict, status.
	Runs metric.Int64Counter

	// Corrections counts substituted spans. Attribute: dict.
	Corrections metric.Int64Counter

	// DictionaryOverwrites counts match keys re-pointed by a later record
	// while building a dictionary. Attribute: dict.
	DictionaryOverwrites metric.Int64Counter

	// HTTPRequestDuration tracks API latency. Attributes: method, path, status.
	HTTPRequestDuration metric.Float64Histogram
}

var latencyBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5,
}

// NewMetrics creates every instrument on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.RunDuration, err = m.Float64Histogram("entitycorrect.run.duration",
		metric.WithDescription("Latency of a single correction run."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Runs, err = m.Int64Counter("entitycorrect.runs",
		metric.WithDescription("Correction runs by dictionary and status."),
	); err != nil {
		return nil, err
	}
	if met.Corrections, err = m.Int64Counter("entitycorrect.corrections",
		metric.WithDescription("Substituted entity mentions by dictionary."),
	); err != nil {
		return nil, err
	}
	if met.DictionaryOverwrites, err = m.Int64Counter("entitycorrect.dictionary.overwrites",
		metric.WithDescription("Match keys overwritten by a later synonym record."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("entitycorrect.http.request.duration",
		metric.WithDescription("HTTP request latency by method, path and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns instruments bound to the global MeterProvider.
// Panics if instrument creation fails (should not happen with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordRun records one correction run.
func (m *Metrics) RecordRun(ctx context.Context, dict string, elapsed time.Duration, corrections int, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	d := attribute.String("dict", dict)
	m.RunDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(d))
	m.Runs.Add(ctx, 1, metric.WithAttributes(d, attribute.String("status", status)))
	if corrections > 0 {
		m.Corrections.Add(ctx, int64(corrections), metric.WithAttributes(d))
	}
}

// RecordOverwrites records dictionary key overwrites detected at build time.
func (m *Metrics) RecordOverwrites(ctx context.Context, dict string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.DictionaryOverwrites.Add(ctx, int64(n), metric.WithAttributes(attribute.String("dict", dict)))
}

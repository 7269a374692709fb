// Package observe provides the service's observability primitives:
// OpenTelemetry metrics, tracing, trace-aware logging, and the HTTP
// middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and scraped
// through the Prometheus exporter set up by [InitProvider]. [DefaultMetrics]
// returns a package-level instance bound to the global provider; tests should
// call [NewMetrics] with their own [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrWong99/linguaccess/pkg/provider/asr"
)

// meterName is the instrumentation scope for every instrument in [Metrics].
const meterName = "github.com/MrWong99/linguaccess"

// Provider kinds used as the "kind" attribute on provider counters.
const (
	KindASR   = "asr"
	KindCache = "cache"
)

// Metrics holds the service's OpenTelemetry instruments. The underlying OTel
// types are safe for concurrent use.
type Metrics struct {
	// ASRDuration tracks how long a transcription took, placeholder or not.
	// Attributes: provider, status.
	ASRDuration metric.Float64Histogram

	// EvaluationDuration tracks the full evaluate request, upload to verdict.
	EvaluationDuration metric.Float64Histogram

	// OverallScore records the distribution of overall scores (0-100).
	// Attribute: language.
	OverallScore metric.Float64Histogram

	// ProviderRequests counts backend calls.
	// Attributes: provider, kind, status.
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts backend failures.
	// Attributes: provider, kind.
	ProviderErrors metric.Int64Counter

	// ASRPlaceholder counts transcripts replaced with the placeholder.
	// Attribute: reason (unavailable, error, timeout).
	ASRPlaceholder metric.Int64Counter

	// CircuitTransitions counts breaker state changes.
	// Attributes: provider, to.
	CircuitTransitions metric.Int64Counter

	// HTTPRequestDuration tracks request handling time.
	// Attributes: method, path, status.
	HTTPRequestDuration metric.Float64Histogram
}

var _ asr.Observer = (*Metrics)(nil)

// latencyBuckets are histogram boundaries in seconds, sized for batch
// transcription of short learner recordings.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30,
}

// scoreBuckets cover the 0-100 score range and line up with the feedback
// tiers.
var scoreBuckets = []float64{
	10, 20, 30, 40, 50, 60, 70, 75, 80, 85, 90, 95, 100,
}

// NewMetrics creates every instrument on mp. Returns the joined creation
// errors, if any.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{}
	var errs []error

	histogram := func(name, desc, unit string, buckets []float64) metric.Float64Histogram {
		h, err := m.Float64Histogram(name,
			metric.WithDescription(desc),
			metric.WithUnit(unit),
			metric.WithExplicitBucketBoundaries(buckets...),
		)
		errs = append(errs, err)
		return h
	}
	counter := func(name, desc string) metric.Int64Counter {
		c, err := m.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}

	// Histograms.
	met.ASRDuration = histogram("linguaccess.asr.duration",
		"Latency of speech recognition per upload.", "s", latencyBuckets)
	met.EvaluationDuration = histogram("linguaccess.evaluation.duration",
		"Latency of a full pronunciation evaluation.", "s", latencyBuckets)
	met.OverallScore = histogram("linguaccess.evaluation.overall_score",
		"Distribution of overall pronunciation scores.", "1", scoreBuckets)
	met.HTTPRequestDuration = histogram("linguaccess.http.request.duration",
		"HTTP request latency by method, path and status.", "s", latencyBuckets)

	// Counters.
	met.ProviderRequests = counter("linguaccess.provider.requests",
		"Backend requests by provider, kind and status.")
	met.ProviderErrors = counter("linguaccess.provider.errors",
		"Backend errors by provider and kind.")
	met.ASRPlaceholder = counter("linguaccess.asr.placeholder",
		"Transcripts replaced with the placeholder, by reason.")
	met.CircuitTransitions = counter("linguaccess.circuit.transitions",
		"Circuit breaker state changes by provider and target state.")

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics], created on first use
// from [otel.GetMeterProvider]. Panics if instrument creation fails.
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

// Attr is shorthand for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest increments the provider request counter.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1, metric.WithAttributes(
		Attr("provider", provider), Attr("kind", kind), Attr("status", status),
	))
}

// RecordProviderError increments the provider error counter.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1, metric.WithAttributes(
		Attr("provider", provider), Attr("kind", kind),
	))
}

// RecordEvaluation records one finished evaluation.
func (m *Metrics) RecordEvaluation(ctx context.Context, language string, overall float64, elapsed time.Duration) {
	m.EvaluationDuration.Record(ctx, elapsed.Seconds())
	m.OverallScore.Record(ctx, overall, metric.WithAttributes(Attr("language", language)))
}

// RecordCircuitTransition counts a breaker moving to state to.
func (m *Metrics) RecordCircuitTransition(ctx context.Context, provider, to string) {
	m.CircuitTransitions.Add(ctx, 1, metric.WithAttributes(
		Attr("provider", provider), Attr("to", to),
	))
}

// ObserveTranscription implements asr.Observer.
func (m *Metrics) ObserveTranscription(ctx context.Context, provider string, elapsed time.Duration, err error) {
	status := "ok"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = "timeout"
	case err != nil:
		status = "error"
	}
	m.ASRDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		Attr("provider", provider), Attr("status", status),
	))
	m.RecordProviderRequest(ctx, provider, KindASR, status)
	if err != nil {
		m.RecordProviderError(ctx, provider, KindASR)
	}
}

// ObservePlaceholder implements asr.Observer.
func (m *Metrics) ObservePlaceholder(ctx context.Context, reason string) {
	m.ASRPlaceholder.Add(ctx, 1, metric.WithAttributes(Attr("reason", reason)))
}

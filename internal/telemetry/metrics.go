package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	HTTPRequests        metric.Int64Counter
	HTTPDuration        metric.Float64Histogram
	SearchRequests      metric.Int64Counter
	SearchDuration      metric.Float64Histogram
	IgnoredFiltered     metric.Int64Counter
	IndexSyncEvents     metric.Int64Counter
	IndexSyncDuration   metric.Float64Histogram
	CircuitBreakerState metric.Int64Counter
}

// InitMetrics initializes all application metrics against the global meter
// provider. Without a configured provider the instruments are no-ops.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("biodata-platform")

	httpRequests, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	httpDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	searchRequests, err := meter.Int64Counter(
		"search.requests.total",
		metric.WithDescription("Total search requests by outcome"),
	)
	if err != nil {
		return nil, err
	}

	searchDuration, err := meter.Float64Histogram(
		"search.request.duration",
		metric.WithDescription("Search duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	ignoredFiltered, err := meter.Int64Counter(
		"search.ignored.filtered",
		metric.WithDescription("Hits removed by ignore lists"),
	)
	if err != nil {
		return nil, err
	}

	indexSyncEvents, err := meter.Int64Counter(
		"index.sync.events",
		metric.WithDescription("Search index sync outcomes by operation"),
	)
	if err != nil {
		return nil, err
	}

	indexSyncDuration, err := meter.Float64Histogram(
		"index.sync.duration",
		metric.WithDescription("Search index sync duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	circuitBreakerState, err := meter.Int64Counter(
		"circuit_breaker.state_changes",
		metric.WithDescription("Circuit breaker state changes"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		HTTPRequests:        httpRequests,
		HTTPDuration:        httpDuration,
		SearchRequests:      searchRequests,
		SearchDuration:      searchDuration,
		IgnoredFiltered:     ignoredFiltered,
		IndexSyncEvents:     indexSyncEvents,
		IndexSyncDuration:   indexSyncDuration,
		CircuitBreakerState: circuitBreakerState,
	}, nil
}

// RecordSearch records one search request.
func (m *Metrics) RecordSearch(success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.Bool("search.success", success),
	}

	m.SearchRequests.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.SearchDuration.Record(context.Background(), duration.Seconds(), metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordIgnoredFiltered(n int) {
	if n <= 0 {
		return
	}
	m.IgnoredFiltered.Add(context.Background(), int64(n))
}

// RecordIndexSync records the outcome of one index push.
func (m *Metrics) RecordIndexSync(op string, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("index.op", op),
		attribute.Bool("index.success", success),
	}

	m.IndexSyncEvents.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.IndexSyncDuration.Record(context.Background(), duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordCircuitBreakerState records circuit breaker state changes
func (m *Metrics) RecordCircuitBreakerState(service, state string) {
	attrs := []attribute.KeyValue{
		attribute.String("service", service),
		attribute.String("state", state),
	}

	m.CircuitBreakerState.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, route, status string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.String("status", status),
	}

	m.HTTPRequests.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.HTTPDuration.Record(context.Background(), duration.Seconds(), metric.WithAttributes(attrs...))
}

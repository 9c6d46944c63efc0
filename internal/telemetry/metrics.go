package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter      metric.Int64Counter
	RequestDuration     metric.Float64Histogram
	ChatLatency         metric.Float64Histogram
	IngestDuration      metric.Float64Histogram
	ChunksIndexed       metric.Int64Counter
	SessionsEvicted     metric.Int64Counter
	CircuitBreakerState metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("college-helpdesk-backend")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chatLatency, err := meter.Float64Histogram(
		"chat.llm.duration",
		metric.WithDescription("LLM call duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	ingestDuration, err := meter.Float64Histogram(
		"ingest.duration",
		metric.WithDescription("Document ingestion duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chunksIndexed, err := meter.Int64Counter(
		"ingest.chunks.indexed",
		metric.WithDescription("Total chunks added to the vector index"),
	)
	if err != nil {
		return nil, err
	}

	sessionsEvicted, err := meter.Int64Counter(
		"sessions.evicted",
		metric.WithDescription("Sessions removed by the idle sweep"),
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
		RequestCounter:      requestCounter,
		RequestDuration:     requestDuration,
		ChatLatency:         chatLatency,
		IngestDuration:      ingestDuration,
		ChunksIndexed:       chunksIndexed,
		SessionsEvicted:     sessionsEvicted,
		CircuitBreakerState: circuitBreakerState,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordChatLatency records the duration of one LLM invocation
func (m *Metrics) RecordChatLatency(duration float64, model string) {
	m.ChatLatency.Record(context.Background(), duration,
		metric.WithAttributes(attribute.String("gemini.model", model)))
}

// RecordIngest records one ingestion run
func (m *Metrics) RecordIngest(duration float64, chunks int, source string) {
	attrs := []attribute.KeyValue{
		attribute.String("ingest.source", source),
	}
	m.IngestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
	m.ChunksIndexed.Add(context.Background(), int64(chunks), metric.WithAttributes(attrs...))
}

// RecordSessionsEvicted records sessions removed by a sweep
func (m *Metrics) RecordSessionsEvicted(n int) {
	if n > 0 {
		m.SessionsEvicted.Add(context.Background(), int64(n))
	}
}

// RecordCircuitBreakerState records circuit breaker state changes
func (m *Metrics) RecordCircuitBreakerState(service, state string) {
	attrs := []attribute.KeyValue{
		attribute.String("service", service),
		attribute.String("state", state),
	}

	m.CircuitBreakerState.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

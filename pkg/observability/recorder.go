package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	globalMetrics Metrics
	metricsMu     sync.RWMutex
)

type Metrics interface {
	RecordRound(ctx context.Context, duration time.Duration, err error)
	RecordDecision(ctx context.Context, action string, reasonerUsed bool)
	RecordLLMCall(ctx context.Context, model string, duration time.Duration, inputTokens, outputTokens int, err error)
}

type PrometheusMetrics struct {
	roundDuration  metric.Float64Histogram
	roundsTotal    metric.Int64Counter
	roundErrors    metric.Int64Counter
	decisionsTotal metric.Int64Counter

	llmDuration     metric.Float64Histogram
	llmInputTokens  metric.Int64Counter
	llmOutputTokens metric.Int64Counter
	llmErrorsTotal  metric.Int64Counter
}

func NewPrometheusMetrics(
	roundDuration metric.Float64Histogram,
	roundsTotal metric.Int64Counter,
	roundErrors metric.Int64Counter,
	decisionsTotal metric.Int64Counter,
	llmDuration metric.Float64Histogram,
	llmInputTokens metric.Int64Counter,
	llmOutputTokens metric.Int64Counter,
	llmErrorsTotal metric.Int64Counter,
) *PrometheusMetrics {
	return &PrometheusMetrics{
		roundDuration:   roundDuration,
		roundsTotal:     roundsTotal,
		roundErrors:     roundErrors,
		decisionsTotal:  decisionsTotal,
		llmDuration:     llmDuration,
		llmInputTokens:  llmInputTokens,
		llmOutputTokens: llmOutputTokens,
		llmErrorsTotal:  llmErrorsTotal,
	}
}

func (m *PrometheusMetrics) RecordRound(ctx context.Context, duration time.Duration, err error) {
	if m == nil || m.roundDuration == nil || m.roundsTotal == nil {
		return
	}

	m.roundDuration.Record(ctx, duration.Seconds())
	m.roundsTotal.Add(ctx, 1)

	if err != nil && m.roundErrors != nil {
		m.roundErrors.Add(ctx, 1)
	}
}

func (m *PrometheusMetrics) RecordDecision(ctx context.Context, action string, reasonerUsed bool) {
	if m == nil || m.decisionsTotal == nil {
		return
	}

	m.decisionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.Bool("reasoner", reasonerUsed),
	))
}

func (m *PrometheusMetrics) RecordLLMCall(ctx context.Context, model string, duration time.Duration, inputTokens, outputTokens int, err error) {
	if m == nil || m.llmDuration == nil || m.llmInputTokens == nil || m.llmOutputTokens == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("model", model),
	}

	m.llmDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.llmInputTokens.Add(ctx, int64(inputTokens), metric.WithAttributes(attrs...))
	m.llmOutputTokens.Add(ctx, int64(outputTokens), metric.WithAttributes(attrs...))

	if err != nil && m.llmErrorsTotal != nil {
		m.llmErrorsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func SetGlobalMetrics(m Metrics) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	globalMetrics = m
}

func GetGlobalMetrics() Metrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return globalMetrics
}

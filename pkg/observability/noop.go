package observability

import (
	"context"
	"time"
)

// NoopMetrics discards every recording. Useful in tests and as an explicit
// stand-in when metrics are disabled.
type NoopMetrics struct{}

func (NoopMetrics) RecordRound(_ context.Context, _ time.Duration, _ error) {}

func (NoopMetrics) RecordDecision(_ context.Context, _ string, _ bool) {}

func (NoopMetrics) RecordLLMCall(_ context.Context, _ string, _ time.Duration, _, _ int, _ error) {}

var (
	_ Metrics = (*PrometheusMetrics)(nil)
	_ Metrics = NoopMetrics{}
)

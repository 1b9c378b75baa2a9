package simulation

import (
	"context"
	"time"

	"github.com/prism-sim/prism/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func startRoundSpan(ctx context.Context, round, agents int) (context.Context, trace.Span) {
	tracer := observability.GetTracer("prism.simulation")

	return tracer.Start(ctx, observability.SpanRound,
		trace.WithAttributes(
			attribute.Int(observability.AttrRound, round),
			attribute.Int("agents", agents),
		),
	)
}

func startTurnSpan(ctx context.Context, agent Agent, round int) (context.Context, trace.Span) {
	tracer := observability.GetTracer("prism.simulation")

	return tracer.Start(ctx, observability.SpanAgentTurn,
		trace.WithAttributes(
			attribute.String(observability.AttrAgentID, agent.ID()),
			attribute.String(observability.AttrAgentState, string(agent.State())),
			attribute.Int(observability.AttrRound, round),
		),
	)
}

func recordRoundMetrics(ctx context.Context, duration time.Duration, err error) {
	metrics := observability.GetGlobalMetrics()
	if metrics == nil {
		return
	}

	metrics.RecordRound(ctx, duration, err)
}

func recordDecisionMetrics(ctx context.Context, decision *DecisionResult) {
	metrics := observability.GetGlobalMetrics()
	if metrics == nil || decision == nil || decision.Action == nil {
		return
	}

	metrics.RecordDecision(ctx, decision.Action.Action, decision.ReasonerUsed)
}

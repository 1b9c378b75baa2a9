package simulation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prism-sim/prism/pkg/social"
	"go.opentelemetry.io/otel/codes"
)

// RoundExecutor coordinates one agent turn: feed retrieval, decision, an
// optional content synthesis step, state update, and logging.
type RoundExecutor struct {
	feed        FeedSource
	decision    *DecisionExecutor
	update      *StateUpdateExecutor
	logging     *LoggingExecutor
	synthesizer Synthesizer
}

// RoundOption configures optional pipeline stages.
type RoundOption func(*RoundExecutor)

// WithLogging adds a decision logging stage.
func WithLogging(logging *LoggingExecutor) RoundOption {
	return func(e *RoundExecutor) { e.logging = logging }
}

// WithSynthesizer adds content synthesis for compose, reply, and reshare
// turns.
func WithSynthesizer(synthesizer Synthesizer) RoundOption {
	return func(e *RoundExecutor) { e.synthesizer = synthesizer }
}

// NewRoundExecutor wires the pipeline. Feed, decision, and update stages are
// required; logging and synthesis are optional.
func NewRoundExecutor(
	feed FeedSource,
	decision *DecisionExecutor,
	update *StateUpdateExecutor,
	opts ...RoundOption,
) *RoundExecutor {
	e := &RoundExecutor{
		feed:     feed,
		decision: decision,
		update:   update,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the full pipeline for one agent and returns its decision.
func (e *RoundExecutor) Execute(ctx context.Context, agent Agent, state *State) (*DecisionResult, error) {
	ctx, span := startTurnSpan(ctx, agent, state.RoundNumber)
	defer span.End()

	decision, err := e.execute(ctx, agent, state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "success")
	return decision, nil
}

func (e *RoundExecutor) execute(ctx context.Context, agent Agent, state *State) (*DecisionResult, error) {
	feedPosts, err := e.feed.Execute(ctx, agent, state)
	if err != nil {
		return nil, fmt.Errorf("retrieving feed for %s: %w", agent.ID(), err)
	}

	decision := e.decision.Execute(ctx, agent, state, feedPosts)
	recordDecisionMetrics(ctx, decision)

	newPost := e.synthesize(ctx, agent, state, decision)

	if err := e.update.Execute(ctx, state, decision, newPost); err != nil {
		return nil, fmt.Errorf("applying action for %s: %w", agent.ID(), err)
	}

	if e.logging != nil {
		if err := e.logging.Execute(state, decision); err != nil {
			return nil, fmt.Errorf("logging decision for %s: %w", agent.ID(), err)
		}
	}

	return decision, nil
}

// synthesize produces the new post for content-creating actions. Synthesis
// failures degrade to a counter-only action rather than failing the turn.
func (e *RoundExecutor) synthesize(
	ctx context.Context,
	agent Agent,
	state *State,
	decision *DecisionResult,
) *social.Post {
	if e.synthesizer == nil || decision.Action == nil {
		return nil
	}
	action := decision.Action

	switch action.Action {
	case ActionCompose, ActionReply, ActionReshare:
	default:
		return nil
	}

	var target *social.Post
	if action.TargetPostID != "" {
		target = state.GetPostByID(action.TargetPostID)
	}
	if action.Action != ActionCompose && target == nil {
		return nil
	}

	post, err := e.synthesizer.Synthesize(ctx, agent, action, target)
	if err != nil {
		slog.Warn("content synthesis failed, applying counters only",
			"agent", agent.ID(),
			"action", action.Action,
			"error", err)
		return nil
	}
	action.Content = post.Text
	return post
}

package simulation

import (
	"context"
	"log/slog"
	"time"

	"github.com/prism-sim/prism/pkg/social"
	"github.com/prism-sim/prism/pkg/statechart"
)

// DecisionExecutor drives one statechart step per agent turn: tick, trigger,
// transition (with the reasoner breaking ties), then the action derived from
// the state the agent acted from.
type DecisionExecutor struct{}

// NewDecisionExecutor creates a decision executor.
func NewDecisionExecutor() *DecisionExecutor {
	return &DecisionExecutor{}
}

// Execute runs the decision flow for a single agent. It never fails: every
// reasoner or guard problem degrades to a deterministic fallback so one bad
// turn cannot stop the round.
func (e *DecisionExecutor) Execute(
	ctx context.Context,
	agent Agent,
	state *State,
	feedPosts []*social.Post,
) *DecisionResult {
	agent.Tick()

	fromState := agent.State()
	trigger := statechart.DetermineTrigger(agent, len(feedPosts))

	newState := fromState
	reasonerUsed := false

	targets := state.Chart.ValidTargets(fromState, trigger)
	if len(targets) > 1 {
		// Ambiguous trigger. Resolve the target before firing anything so
		// the first transition's action cannot run when the pick differs.
		newState, reasonerUsed = e.resolveAmbiguous(ctx, agent, state, trigger, targets, feedPosts)
	} else {
		fireCtx := statechart.Context{"feed": feedPosts, "state": state}
		if fired, ok := state.Chart.Fire(trigger, fromState, agent, fireCtx); ok {
			newState = fired
		} else if len(targets) == 1 {
			// A guard refusal on a single-target trigger does not strand
			// the agent.
			newState = targets[0]
		}
	}

	if newState != fromState {
		agent.TransitionTo(newState, trigger, statechart.Context{"round": state.RoundNumber})
	}

	return &DecisionResult{
		AgentID:      agent.ID(),
		Trigger:      trigger,
		FromState:    fromState,
		ToState:      newState,
		Action:       actionForState(fromState, feedPosts),
		ReasonerUsed: reasonerUsed,
	}
}

func (e *DecisionExecutor) resolveAmbiguous(
	ctx context.Context,
	agent Agent,
	state *State,
	trigger string,
	targets []statechart.State,
	feedPosts []*social.Post,
) (statechart.State, bool) {
	if state.Reasoner == nil {
		slog.Warn("ambiguous trigger without reasoner, using first target",
			"agent", agent.ID(),
			"trigger", trigger,
			"fallback", targets[0].String())
		return targets[0], false
	}

	extra := map[string]interface{}{
		"feed": social.FormatFeed(feedPosts, time.Now().UTC()),
	}
	picked, err := state.Reasoner.DecideNextState(ctx, agent, agent.State(), trigger, targets, extra)
	if err != nil {
		slog.Warn("reasoner failed, using first target",
			"agent", agent.ID(),
			"trigger", trigger,
			"fallback", targets[0].String(),
			"error", err)
		return targets[0], false
	}
	return picked, true
}

// actionForState maps the state the agent acted from, not the one it moved
// to: an agent leaving engaging_like spent this turn liking.
func actionForState(fromState statechart.State, feedPosts []*social.Post) *ActionResult {
	var targetID string
	if len(feedPosts) > 0 {
		targetID = feedPosts[0].ID
	}

	switch fromState {
	case statechart.StateComposing:
		return &ActionResult{Action: ActionCompose}
	case statechart.StateEngagingLike:
		return &ActionResult{Action: ActionLike, TargetPostID: targetID}
	case statechart.StateEngagingReply:
		return &ActionResult{Action: ActionReply, TargetPostID: targetID}
	case statechart.StateEngagingReshare:
		return &ActionResult{Action: ActionReshare, TargetPostID: targetID}
	default:
		return &ActionResult{Action: ActionScroll}
	}
}

package agent

import (
	"fmt"
	"sort"
	"time"

	"github.com/prism-sim/prism/pkg/statechart"
)

// Behaviour defaults applied when Settings leave a field zero.
const (
	DefaultTimeoutThreshold    = 3
	DefaultEngagementThreshold = 0.5
	DefaultMaxHistoryDepth     = 100
)

// Settings tunes agent behaviour beyond the profile. Zero values select the
// defaults; EngagementThreshold is a pointer so an explicit 0.0 survives.
type Settings struct {
	InitialState        statechart.State
	TimeoutThreshold    int
	EngagementThreshold *float64
	MaxHistoryDepth     int
	Following           []string
}

// BaseAgent carries the behavioural state of one simulated user. It is not
// safe for concurrent use; the round loop touches one agent at a time.
type BaseAgent struct {
	profile             *Profile
	state               statechart.State
	ticksInState        int
	timeoutThreshold    int
	engagementThreshold float64
	maxHistoryDepth     int
	history             []statechart.StateTransition
	following           map[string]struct{}
}

// NewBaseAgent builds an agent from a profile. The profile is validated and
// its defaults applied.
func NewBaseAgent(profile *Profile, settings Settings) (*BaseAgent, error) {
	if profile == nil {
		return nil, fmt.Errorf("profile is required")
	}
	profile.SetDefaults()
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	agent := &BaseAgent{
		profile:             profile,
		state:               statechart.StateIdle,
		timeoutThreshold:    DefaultTimeoutThreshold,
		engagementThreshold: DefaultEngagementThreshold,
		maxHistoryDepth:     DefaultMaxHistoryDepth,
	}

	if settings.InitialState != "" {
		state, err := statechart.ParseState(string(settings.InitialState))
		if err != nil {
			return nil, err
		}
		agent.state = state
	}
	if settings.TimeoutThreshold != 0 {
		if settings.TimeoutThreshold < 0 {
			return nil, fmt.Errorf("timeout threshold must be > 0, got %d", settings.TimeoutThreshold)
		}
		agent.timeoutThreshold = settings.TimeoutThreshold
	}
	if settings.EngagementThreshold != nil {
		threshold := *settings.EngagementThreshold
		if threshold < 0 || threshold > 1 {
			return nil, fmt.Errorf("engagement threshold must be in [0,1], got %v", threshold)
		}
		agent.engagementThreshold = threshold
	}
	if settings.MaxHistoryDepth != 0 {
		if settings.MaxHistoryDepth < 1 {
			return nil, fmt.Errorf("max history depth must be >= 1, got %d", settings.MaxHistoryDepth)
		}
		agent.maxHistoryDepth = settings.MaxHistoryDepth
	}
	if len(settings.Following) > 0 {
		agent.following = make(map[string]struct{}, len(settings.Following))
		for _, id := range settings.Following {
			agent.following[id] = struct{}{}
		}
	}

	return agent, nil
}

// ID returns the agent identifier.
func (a *BaseAgent) ID() string {
	return a.profile.ID
}

// Name returns the display name.
func (a *BaseAgent) Name() string {
	return a.profile.Name
}

// Interests returns the topics the agent cares about.
func (a *BaseAgent) Interests() []string {
	return a.profile.Interests
}

// Personality returns the personality description.
func (a *BaseAgent) Personality() string {
	return a.profile.Personality
}

// Stance returns the agent's positions by topic, or nil.
func (a *BaseAgent) Stance() map[string]string {
	return a.profile.Stance
}

// Profile returns the underlying profile. Callers must treat it as
// read-only.
func (a *BaseAgent) Profile() *Profile {
	return a.profile
}

// State returns the current behavioural state.
func (a *BaseAgent) State() statechart.State {
	return a.state
}

// TicksInState returns the rounds spent in the current state.
func (a *BaseAgent) TicksInState() int {
	return a.ticksInState
}

// TimeoutThreshold returns the tick limit before a timeout fires.
func (a *BaseAgent) TimeoutThreshold() int {
	return a.timeoutThreshold
}

// EngagementThreshold returns the relevance bar for engagement.
func (a *BaseAgent) EngagementThreshold() float64 {
	return a.engagementThreshold
}

// Tick counts one round spent in the current state.
func (a *BaseAgent) Tick() {
	a.ticksInState++
}

// IsTimedOut reports whether the agent has been stuck past its threshold.
// The threshold value itself does not yet trigger.
func (a *BaseAgent) IsTimedOut() bool {
	return a.ticksInState > a.timeoutThreshold
}

// ShouldEngage reports whether relevance clears the engagement bar.
func (a *BaseAgent) ShouldEngage(relevance float64) bool {
	return relevance >= a.engagementThreshold
}

// TransitionTo moves the agent to a new state, recording a history entry and
// resetting the tick counter. A self-transition is a no-op and records
// nothing.
func (a *BaseAgent) TransitionTo(newState statechart.State, trigger string, ctx statechart.Context) {
	if newState == a.state {
		return
	}

	for len(a.history) >= a.maxHistoryDepth {
		a.history = a.history[1:]
	}
	a.history = append(a.history, statechart.StateTransition{
		FromState: a.state,
		ToState:   newState,
		Trigger:   trigger,
		Timestamp: time.Now().UTC(),
		Context:   ctx,
	})

	a.state = newState
	a.ticksInState = 0
}

// History returns a copy of the transition history, oldest first.
func (a *BaseAgent) History() []statechart.StateTransition {
	history := make([]statechart.StateTransition, len(a.history))
	copy(history, a.history)
	return history
}

// IsFollowing reports whether the agent follows the other agent.
func (a *BaseAgent) IsFollowing(agentID string) bool {
	_, ok := a.following[agentID]
	return ok
}

// FollowingIDs returns the followed agent ids, sorted.
func (a *BaseAgent) FollowingIDs() []string {
	ids := make([]string, 0, len(a.following))
	for id := range a.following {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Restore sets state and tick counter directly, bypassing history. Used when
// rebuilding agents from a checkpoint.
func (a *BaseAgent) Restore(state statechart.State, ticksInState int) error {
	parsed, err := statechart.ParseState(string(state))
	if err != nil {
		return err
	}
	if ticksInState < 0 {
		return fmt.Errorf("ticks_in_state must be >= 0, got %d", ticksInState)
	}

	a.state = parsed
	a.ticksInState = ticksInState
	return nil
}

var _ statechart.Agent = (*BaseAgent)(nil)

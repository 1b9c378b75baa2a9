package statechart

import "time"

// Context carries per-turn data into guards and actions. Keys are
// caller-defined; the executor pipeline populates "feed", "state" and
// "round".
type Context map[string]any

// Agent is the capability surface guards, actions and trigger determination
// may inspect. Both the LLM-backed agent and the checkpoint-reconstructed
// one satisfy it.
type Agent interface {
	ID() string
	State() State
	TicksInState() int
	IsTimedOut() bool
	Interests() []string
	ShouldEngage(relevance float64) bool
}

// GuardFunc decides whether a transition may fire for the given agent. A
// returned error, or a panic, counts as a refusal and evaluation moves on to
// the next transition.
type GuardFunc func(agent Agent, ctx Context) (bool, error)

// ActionFunc runs a side effect after its transition has been chosen.
// Errors and panics are logged and never prevent the transition.
type ActionFunc func(agent Agent, ctx Context) error

// Transition is one (trigger, source → target) edge of a chart, optionally
// guarded. Immutable once handed to a Chart.
type Transition struct {
	Trigger string
	Source  State
	Target  State
	Guard   GuardFunc
	Action  ActionFunc
}

// StateTransition records one applied transition in an agent's history.
type StateTransition struct {
	FromState State
	ToState   State
	Trigger   string
	Timestamp time.Time
	Context   Context
}

// Package statechart implements the guarded state machine that drives agent
// behaviour: a closed set of states, declaration-ordered transitions with
// optional guards and actions, and the trigger vocabulary of the standard
// social-media chart.
package statechart

import (
	"fmt"
	"strings"
)

// State identifies one behavioural state of a simulated agent. The lowercase
// string value is the wire form used in logs and checkpoints.
type State string

const (
	StateIdle            State = "idle"
	StateScrolling       State = "scrolling"
	StateEvaluating      State = "evaluating"
	StateComposing       State = "composing"
	StateEngagingLike    State = "engaging_like"
	StateEngagingReply   State = "engaging_reply"
	StateEngagingReshare State = "engaging_reshare"
	StateResting         State = "resting"
)

// AllStates returns the closed set of agent states in declaration order.
func AllStates() []State {
	return []State{
		StateIdle,
		StateScrolling,
		StateEvaluating,
		StateComposing,
		StateEngagingLike,
		StateEngagingReply,
		StateEngagingReshare,
		StateResting,
	}
}

// ParseState converts a wire value into a State, case-insensitively.
func ParseState(value string) (State, error) {
	candidate := State(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range AllStates() {
		if candidate == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown agent state %q", value)
}

func (s State) String() string {
	return string(s)
}

// IsEngaging reports whether s is one of the engaging_* states.
func (s State) IsEngaging() bool {
	return s == StateEngagingLike || s == StateEngagingReply || s == StateEngagingReshare
}

package statechart

import (
	"fmt"
	"log/slog"
)

// Chart is an immutable guarded state machine. Transitions are evaluated in
// declaration order; the first match wins.
type Chart struct {
	states      map[State]struct{}
	ordered     []State
	transitions []Transition
	initial     State
}

// New validates that the initial state and every transition endpoint belong
// to the declared state set and returns the chart. The chart keeps its own
// copy of the transition table.
func New(states []State, transitions []Transition, initial State) (*Chart, error) {
	set := make(map[State]struct{}, len(states))
	ordered := make([]State, 0, len(states))
	for _, s := range states {
		if _, dup := set[s]; dup {
			continue
		}
		set[s] = struct{}{}
		ordered = append(ordered, s)
	}

	if _, ok := set[initial]; !ok {
		return nil, fmt.Errorf("initial state %q not in state set", initial)
	}
	for i, t := range transitions {
		if _, ok := set[t.Source]; !ok {
			return nil, fmt.Errorf("transition %d: source %q not in state set", i, t.Source)
		}
		if _, ok := set[t.Target]; !ok {
			return nil, fmt.Errorf("transition %d: target %q not in state set", i, t.Target)
		}
	}

	copied := make([]Transition, len(transitions))
	copy(copied, transitions)

	return &Chart{
		states:      set,
		ordered:     ordered,
		transitions: copied,
		initial:     initial,
	}, nil
}

// Initial returns the chart's initial state.
func (c *Chart) Initial() State {
	return c.initial
}

// States returns the declared state set in declaration order.
func (c *Chart) States() []State {
	out := make([]State, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Transitions returns a copy of the transition table in declaration order.
func (c *Chart) Transitions() []Transition {
	out := make([]Transition, len(c.transitions))
	copy(out, c.transitions)
	return out
}

// Contains reports whether s belongs to the declared state set.
func (c *Chart) Contains(s State) bool {
	_, ok := c.states[s]
	return ok
}

// Fire attempts to fire a transition for the given trigger and current
// state. Transitions are scanned in declaration order; the first one whose
// trigger and source match and whose guard (if any) allows it wins. The
// winner's action, if any, runs before Fire returns; action failures never
// prevent the transition. Returns the target state and true, or ("", false)
// when nothing matched.
func (c *Chart) Fire(trigger string, current State, agent Agent, ctx Context) (State, bool) {
	for i := range c.transitions {
		t := &c.transitions[i]
		if t.Trigger != trigger || t.Source != current {
			continue
		}
		if t.Guard != nil && !evalGuard(t.Guard, agent, ctx) {
			continue
		}
		if t.Action != nil {
			runAction(t.Action, agent, ctx)
		}
		return t.Target, true
	}
	return "", false
}

// ValidTargets returns the targets of every transition matching (state,
// trigger) in declaration order, ignoring guards. The result may contain
// duplicates when several transitions share a target.
func (c *Chart) ValidTargets(state State, trigger string) []State {
	var targets []State
	for i := range c.transitions {
		t := &c.transitions[i]
		if t.Source == state && t.Trigger == trigger {
			targets = append(targets, t.Target)
		}
	}
	return targets
}

// ValidTriggers returns the trigger names available from the given state,
// deduplicated, preserving the declaration order of each first occurrence.
func (c *Chart) ValidTriggers(state State) []string {
	seen := make(map[string]struct{})
	var triggers []string
	for i := range c.transitions {
		t := &c.transitions[i]
		if t.Source != state {
			continue
		}
		if _, dup := seen[t.Trigger]; dup {
			continue
		}
		seen[t.Trigger] = struct{}{}
		triggers = append(triggers, t.Trigger)
	}
	return triggers
}

// evalGuard runs a guard fail-safe: an error or a panic counts as a refusal.
func evalGuard(guard GuardFunc, agent Agent, ctx Context) (allowed bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("transition guard panicked, treating as refusal", "panic", r)
			allowed = false
		}
	}()
	ok, err := guard(agent, ctx)
	if err != nil {
		return false
	}
	return ok
}

// runAction runs a transition action, swallowing errors and panics.
func runAction(action ActionFunc, agent Agent, ctx Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("transition action panicked", "panic", r)
		}
	}()
	if err := action(agent, ctx); err != nil {
		slog.Warn("transition action failed", "error", err)
	}
}

package simulation

import "github.com/prism-sim/prism/pkg/statechart"

// Action types an agent turn can produce.
const (
	ActionCompose = "compose"
	ActionLike    = "like"
	ActionReply   = "reply"
	ActionReshare = "reshare"
	ActionScroll  = "scroll"
)

// ActionResult describes the action derived from an agent's turn. The
// target is empty for compose and scroll; content stays empty unless the
// synthesis hook filled it in.
type ActionResult struct {
	Action       string `json:"action"`
	TargetPostID string `json:"target_post_id,omitempty"`
	Content      string `json:"content,omitempty"`
}

// DecisionResult records one agent's turn: the trigger, the transition it
// produced, and the derived action.
type DecisionResult struct {
	AgentID      string           `json:"agent_id"`
	Trigger      string           `json:"trigger"`
	FromState    statechart.State `json:"from_state"`
	ToState      statechart.State `json:"to_state"`
	Action       *ActionResult    `json:"action,omitempty"`
	ReasonerUsed bool             `json:"reasoner_used"`
}

// RoundResult collects the decisions of one round in agent order.
type RoundResult struct {
	RoundNumber int               `json:"round_number"`
	Decisions   []*DecisionResult `json:"decisions"`
}

// Result is the outcome of a complete run.
type Result struct {
	TotalRounds  int               `json:"total_rounds"`
	FinalMetrics EngagementMetrics `json:"final_metrics"`
	Rounds       []*RoundResult    `json:"rounds"`
}

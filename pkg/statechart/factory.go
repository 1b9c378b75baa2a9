package statechart

// Trigger names understood by the standard social-media chart.
const (
	TriggerStartBrowsing     = "start_browsing"
	TriggerSeesPost          = "sees_post"
	TriggerFeedEmpty         = "feed_empty"
	TriggerDecides           = "decides"
	TriggerFinishesComposing = "finishes_composing"
	TriggerFinishesEngaging  = "finishes_engaging"
	TriggerRested            = "rested"
	TriggerTimeout           = "timeout"
)

// NewSocialMediaChart builds the standard social-media behaviour chart.
//
// The "decides" trigger is intentionally ambiguous: five transitions leave
// evaluating without guards, so Fire returns the first (composing) while
// ValidTargets exposes all five for the reasoner to pick from. Every
// non-idle state times out back to idle.
func NewSocialMediaChart() *Chart {
	transitions := []Transition{
		{Trigger: TriggerStartBrowsing, Source: StateIdle, Target: StateScrolling},
		{Trigger: TriggerSeesPost, Source: StateScrolling, Target: StateEvaluating},
		{Trigger: TriggerFeedEmpty, Source: StateScrolling, Target: StateResting},

		{Trigger: TriggerDecides, Source: StateEvaluating, Target: StateComposing},
		{Trigger: TriggerDecides, Source: StateEvaluating, Target: StateEngagingLike},
		{Trigger: TriggerDecides, Source: StateEvaluating, Target: StateEngagingReply},
		{Trigger: TriggerDecides, Source: StateEvaluating, Target: StateEngagingReshare},
		{Trigger: TriggerDecides, Source: StateEvaluating, Target: StateScrolling},

		{Trigger: TriggerFinishesComposing, Source: StateComposing, Target: StateScrolling},
		{Trigger: TriggerFinishesEngaging, Source: StateEngagingLike, Target: StateScrolling},
		{Trigger: TriggerFinishesEngaging, Source: StateEngagingReply, Target: StateScrolling},
		{Trigger: TriggerFinishesEngaging, Source: StateEngagingReshare, Target: StateScrolling},

		{Trigger: TriggerRested, Source: StateResting, Target: StateIdle},

		{Trigger: TriggerTimeout, Source: StateScrolling, Target: StateIdle},
		{Trigger: TriggerTimeout, Source: StateEvaluating, Target: StateIdle},
		{Trigger: TriggerTimeout, Source: StateComposing, Target: StateIdle},
		{Trigger: TriggerTimeout, Source: StateEngagingLike, Target: StateIdle},
		{Trigger: TriggerTimeout, Source: StateEngagingReply, Target: StateIdle},
		{Trigger: TriggerTimeout, Source: StateEngagingReshare, Target: StateIdle},
		{Trigger: TriggerTimeout, Source: StateResting, Target: StateIdle},
	}

	chart, err := New(AllStates(), transitions, StateIdle)
	if err != nil {
		// The table above is static; a failure here is a programming error.
		panic("statechart: invalid built-in social media chart: " + err.Error())
	}
	return chart
}

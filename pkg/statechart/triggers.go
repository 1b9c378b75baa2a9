package statechart

// DetermineTrigger maps an agent's current state to the trigger the standard
// chart expects next, using the feed length as secondary input. A timed-out
// agent always yields TriggerTimeout, whatever its state. The result is a
// pure function of (state, feedLen, is-timed-out).
func DetermineTrigger(agent Agent, feedLen int) string {
	if agent.IsTimedOut() {
		return TriggerTimeout
	}

	switch agent.State() {
	case StateIdle:
		return TriggerStartBrowsing
	case StateScrolling:
		if feedLen > 0 {
			return TriggerSeesPost
		}
		return TriggerFeedEmpty
	case StateEvaluating:
		return TriggerDecides
	case StateComposing:
		return TriggerFinishesComposing
	case StateEngagingLike, StateEngagingReply, StateEngagingReshare:
		return TriggerFinishesEngaging
	case StateResting:
		return TriggerRested
	default:
		return TriggerStartBrowsing
	}
}

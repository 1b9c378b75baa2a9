package statechart

import "testing"

func TestDetermineTrigger(t *testing.T) {
	cases := []struct {
		name     string
		state    State
		feedLen  int
		timedOut bool
		want     string
	}{
		{"idle starts browsing", StateIdle, 0, false, TriggerStartBrowsing},
		{"scrolling with posts", StateScrolling, 3, false, TriggerSeesPost},
		{"scrolling with empty feed", StateScrolling, 0, false, TriggerFeedEmpty},
		{"evaluating decides", StateEvaluating, 5, false, TriggerDecides},
		{"composing finishes", StateComposing, 0, false, TriggerFinishesComposing},
		{"like finishes", StateEngagingLike, 0, false, TriggerFinishesEngaging},
		{"reply finishes", StateEngagingReply, 0, false, TriggerFinishesEngaging},
		{"reshare finishes", StateEngagingReshare, 0, false, TriggerFinishesEngaging},
		{"resting wakes up", StateResting, 0, false, TriggerRested},
		{"unknown state falls back to browsing", State("daydreaming"), 0, false, TriggerStartBrowsing},

		{"timeout overrides scrolling", StateScrolling, 3, true, TriggerTimeout},
		{"timeout overrides evaluating", StateEvaluating, 5, true, TriggerTimeout},
		{"timeout overrides composing", StateComposing, 0, true, TriggerTimeout},
		{"timeout overrides resting", StateResting, 0, true, TriggerTimeout},
		{"idle never times out", StateIdle, 0, true, TriggerStartBrowsing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			agent := &stubAgent{state: tc.state, timedOut: tc.timedOut}
			got := DetermineTrigger(agent, tc.feedLen)
			if got != tc.want {
				t.Errorf("DetermineTrigger(%s, feed=%d, timedOut=%v) = %q, want %q",
					tc.state, tc.feedLen, tc.timedOut, got, tc.want)
			}
		})
	}
}

package statechart

// AgentsInState counts the agents currently in state s.
func AgentsInState[A interface{ State() State }](s State, agents []A) int {
	count := 0
	for _, agent := range agents {
		if agent.State() == s {
			count++
		}
	}
	return count
}

// StateDistribution maps every declared state to the number of agents in it.
// States with no agents are included with a zero count.
func StateDistribution[A interface{ State() State }](agents []A) map[State]int {
	distribution := make(map[State]int, len(AllStates()))
	for _, s := range AllStates() {
		distribution[s] = 0
	}
	for _, agent := range agents {
		if _, known := distribution[agent.State()]; known {
			distribution[agent.State()]++
		}
	}
	return distribution
}

package social

import "sort"

// SimpleGraph is a follow graph built from per-agent following sets. It
// answers the network-membership questions the x_algo ranker asks.
type SimpleGraph struct {
	following map[string]map[string]struct{}
	followers map[string]map[string]struct{}
}

// NewSimpleGraph builds a graph from agent id → followed agent ids.
func NewSimpleGraph(following map[string][]string) *SimpleGraph {
	g := &SimpleGraph{
		following: make(map[string]map[string]struct{}, len(following)),
		followers: make(map[string]map[string]struct{}),
	}

	for agentID, followees := range following {
		set := make(map[string]struct{}, len(followees))
		for _, followeeID := range followees {
			set[followeeID] = struct{}{}

			if g.followers[followeeID] == nil {
				g.followers[followeeID] = make(map[string]struct{})
			}
			g.followers[followeeID][agentID] = struct{}{}
		}
		g.following[agentID] = set
	}

	return g
}

// IsFollowing reports whether follower follows followee.
func (g *SimpleGraph) IsFollowing(followerID, followeeID string) bool {
	_, ok := g.following[followerID][followeeID]
	return ok
}

// Following returns the sorted ids the agent follows. Unknown agents yield
// an empty slice.
func (g *SimpleGraph) Following(agentID string) []string {
	return sortedKeys(g.following[agentID])
}

// Followers returns the sorted ids following the agent.
func (g *SimpleGraph) Followers(agentID string) []string {
	return sortedKeys(g.followers[agentID])
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package simulation runs the round loop: per agent turn the executor
// pipeline retrieves a feed, drives the statechart decision, applies the
// resulting action to shared state, and logs it; the controller iterates
// rounds and schedules checkpoints.
package simulation

import (
	"context"
	"fmt"

	"github.com/prism-sim/prism/pkg/reasoner"
	"github.com/prism-sim/prism/pkg/social"
	"github.com/prism-sim/prism/pkg/statechart"
)

// Agent is the capability surface the simulation needs from a simulated
// user. Both the LLM-backed social agent and the checkpoint-reconstructed
// base agent satisfy it.
type Agent interface {
	statechart.Agent

	Name() string
	Personality() string
	EngagementThreshold() float64
	Tick()
	TransitionTo(newState statechart.State, trigger string, ctx statechart.Context)
}

// Reasoner breaks transition ties when a trigger has several targets.
type Reasoner interface {
	DecideNextState(
		ctx context.Context,
		agent reasoner.Agent,
		currentState statechart.State,
		trigger string,
		options []statechart.State,
		extra map[string]interface{},
	) (statechart.State, error)
}

// EngagementMetrics accumulates engagement across the whole simulation.
// Counters only ever go up.
type EngagementMetrics struct {
	TotalLikes    int `json:"total_likes"`
	TotalReshares int `json:"total_reshares"`
	TotalReplies  int `json:"total_replies"`
	PostsCreated  int `json:"posts_created"`
}

func (m *EngagementMetrics) IncrementLike()        { m.TotalLikes++ }
func (m *EngagementMetrics) IncrementReshare()     { m.TotalReshares++ }
func (m *EngagementMetrics) IncrementReply()       { m.TotalReplies++ }
func (m *EngagementMetrics) IncrementPostCreated() { m.PostsCreated++ }

// State is the single source of truth during a run: the post pool, the
// agents, the current round, cumulative metrics, and the shared statechart
// and optional reasoner. It is mutated by one goroutine at a time.
type State struct {
	Posts       []*social.Post
	Agents      []Agent
	RoundNumber int
	Metrics     *EngagementMetrics
	Chart       *statechart.Chart
	Reasoner    Reasoner

	// RawAgents holds undecoded agent snapshots after a checkpoint load
	// without a factory, for deferred reconstruction.
	RawAgents []map[string]interface{}
}

// NewState builds a simulation state. The agents list must not be empty.
func NewState(chart *statechart.Chart, agents []Agent, posts []*social.Post) (*State, error) {
	if chart == nil {
		return nil, fmt.Errorf("statechart is required")
	}
	if len(agents) == 0 {
		return nil, fmt.Errorf("agents list must not be empty")
	}
	return &State{
		Posts:   posts,
		Agents:  agents,
		Metrics: &EngagementMetrics{},
		Chart:   chart,
	}, nil
}

// GetPostByID finds a post by id, or nil.
func (s *State) GetPostByID(postID string) *social.Post {
	for _, post := range s.Posts {
		if post.ID == postID {
			return post
		}
	}
	return nil
}

// AddPost appends a post created during the simulation and counts it.
func (s *State) AddPost(post *social.Post) {
	s.Posts = append(s.Posts, post)
	s.Metrics.IncrementPostCreated()
}

// AdvanceRound moves to the next round.
func (s *State) AdvanceRound() {
	s.RoundNumber++
}

// StateDistribution maps every agent state to the number of agents in it.
func (s *State) StateDistribution() map[statechart.State]int {
	return statechart.StateDistribution(s.Agents)
}

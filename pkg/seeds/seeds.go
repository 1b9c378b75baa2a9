// Package seeds loads the initial simulation population from JSON files
// and SQL databases.
//
// Posts reuse the checkpoint wire shape; agent seeds carry the identity
// profile plus optional behavioural settings. When both a database and
// files are configured the database loads first and file entries replace
// database rows with the same id, so files act as local overrides.
package seeds

import (
	"context"
	"fmt"

	"github.com/prism-sim/prism/pkg/agent"
	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/social"
)

// SeedSet is the merged population from every configured source.
type SeedSet struct {
	Posts  []*social.Post
	Agents []*AgentSeed
}

// AgentSeed is one agent row in a seed source. EngagementThreshold is a
// pointer so an explicit 0 survives; nil means "use the default".
type AgentSeed struct {
	AgentID             string            `json:"agent_id"`
	Name                string            `json:"name"`
	Interests           []string          `json:"interests"`
	Personality         string            `json:"personality"`
	Stance              map[string]string `json:"stance"`
	EngagementThreshold *float64          `json:"engagement_threshold"`
	TimeoutThreshold    int               `json:"timeout_threshold"`
	Following           []string          `json:"following"`
}

// Validate checks the seed against the profile invariants plus the
// behavioural field ranges.
func (s *AgentSeed) Validate() error {
	if err := s.Profile().Validate(); err != nil {
		return err
	}
	if s.EngagementThreshold != nil {
		if t := *s.EngagementThreshold; t < 0 || t > 1 {
			return fmt.Errorf("agent %s: engagement_threshold must be between 0 and 1, got %f", s.AgentID, t)
		}
	}
	if s.TimeoutThreshold < 0 {
		return fmt.Errorf("agent %s: timeout_threshold must be >= 0, got %d", s.AgentID, s.TimeoutThreshold)
	}
	return nil
}

// Profile builds the identity profile. Defaults are left to the agent
// constructor.
func (s *AgentSeed) Profile() *agent.Profile {
	return &agent.Profile{
		ID:          s.AgentID,
		Name:        s.Name,
		Interests:   s.Interests,
		Personality: s.Personality,
		Stance:      s.Stance,
	}
}

// Settings maps the behavioural seed fields. Simulation-level settings
// (initial state, history depth) are filled by the runtime.
func (s *AgentSeed) Settings() agent.Settings {
	return agent.Settings{
		TimeoutThreshold:    s.TimeoutThreshold,
		EngagementThreshold: s.EngagementThreshold,
		Following:           s.Following,
	}
}

// Load gathers the seed population from every configured source. A nil
// config yields an empty set.
func Load(ctx context.Context, cfg *config.SeedsConfig, pool *config.DBPool) (*SeedSet, error) {
	set := &SeedSet{}
	if cfg == nil {
		return set, nil
	}

	if cfg.Database != nil {
		if pool == nil {
			return nil, fmt.Errorf("database seed source configured without a connection pool")
		}
		db, err := pool.Get(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("seed database: %w", err)
		}
		source := NewSQLSource(db, cfg.Database)
		if cfg.Database.PostsQuery != "" {
			posts, err := source.Posts(ctx)
			if err != nil {
				return nil, fmt.Errorf("seed posts query: %w", err)
			}
			set.Posts = posts
		}
		if cfg.Database.AgentsQuery != "" {
			agents, err := source.Agents(ctx)
			if err != nil {
				return nil, fmt.Errorf("seed agents query: %w", err)
			}
			set.Agents = agents
		}
	}

	if cfg.PostsFile != "" {
		posts, err := LoadPostsFile(cfg.PostsFile)
		if err != nil {
			return nil, err
		}
		set.Posts = mergePosts(set.Posts, posts)
	}
	if cfg.AgentsFile != "" {
		agents, err := LoadAgentsFile(cfg.AgentsFile)
		if err != nil {
			return nil, err
		}
		set.Agents = mergeAgents(set.Agents, agents)
	}

	return set, nil
}

// mergePosts overlays override onto base. Overridden ids keep their
// original position; new ids append in override order.
func mergePosts(base, override []*social.Post) []*social.Post {
	index := make(map[string]int, len(base))
	for i, post := range base {
		index[post.ID] = i
	}
	merged := append([]*social.Post(nil), base...)
	for _, post := range override {
		if i, ok := index[post.ID]; ok {
			merged[i] = post
			continue
		}
		index[post.ID] = len(merged)
		merged = append(merged, post)
	}
	return merged
}

func mergeAgents(base, override []*AgentSeed) []*AgentSeed {
	index := make(map[string]int, len(base))
	for i, seed := range base {
		index[seed.AgentID] = i
	}
	merged := append([]*AgentSeed(nil), base...)
	for _, seed := range override {
		if i, ok := index[seed.AgentID]; ok {
			merged[i] = seed
			continue
		}
		index[seed.AgentID] = len(merged)
		merged = append(merged, seed)
	}
	return merged
}

package runtime

import (
	"fmt"

	"github.com/prism-sim/prism/pkg/agent"
	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/llms"
	"github.com/prism-sim/prism/pkg/observability"
	"github.com/prism-sim/prism/pkg/seeds"
	"github.com/prism-sim/prism/pkg/simulation"
	"github.com/prism-sim/prism/pkg/social"
)

// observabilityConfig maps the tracing and metrics config sections onto the
// observability package's own types.
func observabilityConfig(cfg *config.Config) observability.Config {
	return observability.Config{
		Tracing: observability.TracerConfig{
			Enabled:      cfg.Tracing.Enabled,
			Exporter:     cfg.Tracing.Exporter,
			Endpoint:     cfg.Tracing.Endpoint,
			SamplingRate: cfg.Tracing.SamplingRate,
			ServiceName:  cfg.Tracing.ServiceName,
		},
		Metrics: observability.MetricsConfig{
			Enabled: cfg.Metrics.Enabled,
			Port:    cfg.Metrics.Port,
		},
	}
}

// followGraph builds the ranking graph from the seed follow lists.
func followGraph(agents []*seeds.AgentSeed) *social.SimpleGraph {
	following := make(map[string][]string, len(agents))
	for _, seed := range agents {
		if len(seed.Following) > 0 {
			following[seed.AgentID] = seed.Following
		}
	}
	return social.NewSimpleGraph(following)
}

// buildAgents constructs LLM-backed agents for a fresh run, in seed order.
func buildAgents(population *seeds.SeedSet, provider llms.Provider, cfg *config.Config) ([]simulation.Agent, error) {
	agents := make([]simulation.Agent, 0, len(population.Agents))
	for _, seed := range population.Agents {
		settings := seed.Settings()
		settings.MaxHistoryDepth = cfg.Simulation.MaxHistoryDepth

		built, err := agent.NewSocialAgent(seed.Profile(), settings, provider, &cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("building agent %s: %w", seed.AgentID, err)
		}
		agents = append(agents, built)
	}
	return agents, nil
}

// agentFactory rebuilds agents from checkpoint snapshots. Snapshots carry no
// following or timeout settings, so those come from the seed population when
// an agent with the same id is seeded; otherwise the defaults apply.
func (r *Runtime) agentFactory() simulation.AgentFactory {
	seedsByID := make(map[string]*seeds.AgentSeed, len(r.population.Agents))
	for _, seed := range r.population.Agents {
		seedsByID[seed.AgentID] = seed
	}

	return func(snapshot map[string]interface{}) (simulation.Agent, error) {
		settings := agent.Settings{
			MaxHistoryDepth: r.config.Simulation.MaxHistoryDepth,
		}
		if id, ok := snapshot["agent_id"].(string); ok {
			if seed, found := seedsByID[id]; found {
				settings.TimeoutThreshold = seed.TimeoutThreshold
				settings.Following = seed.Following
			}
		}
		return agent.FromSnapshot(snapshot, settings)
	}
}

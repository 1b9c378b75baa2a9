package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/prism-sim/prism/pkg/simulation"
	"github.com/prism-sim/prism/pkg/social"
)

// Run executes a fresh simulation: agents are built from the seed
// population, the post index is rebuilt from the seed posts, and the
// controller runs the configured number of rounds.
func (r *Runtime) Run(ctx context.Context) (*simulation.Result, error) {
	if len(r.population.Agents) == 0 {
		return nil, fmt.Errorf("no agents seeded: configure seeds.agents_file or seeds.database")
	}

	agents, err := buildAgents(r.population, r.provider, r.config)
	if err != nil {
		return nil, err
	}
	if err := r.reindexPosts(ctx, r.population.Posts); err != nil {
		return nil, err
	}

	state, err := simulation.NewState(r.chart, agents, r.population.Posts)
	if err != nil {
		return nil, err
	}
	state.Reasoner = r.reasoner

	return r.controller.RunSimulation(ctx, &r.config.Simulation, state)
}

// Resume loads a checkpoint and runs the remaining rounds. The post index
// is rebuilt from the checkpoint's posts, not from the seed files, so the
// feed matches what the checkpointed agents were seeing.
func (r *Runtime) Resume(ctx context.Context, checkpointPath string) (*simulation.Result, error) {
	if checkpointPath == "" {
		return nil, fmt.Errorf("checkpoint path is required")
	}
	loader, err := simulation.NewCheckpointer(filepath.Dir(checkpointPath))
	if err != nil {
		return nil, err
	}
	state, err := loader.Load(checkpointPath, r.chart, r.reasoner, r.agentFactory())
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}

	if err := r.reindexPosts(ctx, state.Posts); err != nil {
		return nil, err
	}

	slog.Info("resuming simulation",
		"checkpoint", checkpointPath,
		"round", state.RoundNumber,
		"target_rounds", r.config.Simulation.MaxRounds)

	return r.controller.RunSimulation(ctx, &r.config.Simulation, state)
}

// reindexPosts resets the vector index to exactly the given posts. Stale
// documents from a previous run would otherwise leak into feeds.
func (r *Runtime) reindexPosts(ctx context.Context, posts []*social.Post) error {
	if err := r.retriever.Clear(ctx); err != nil {
		return fmt.Errorf("clearing post index: %w", err)
	}
	if len(posts) == 0 {
		return nil
	}
	if err := r.retriever.AddPosts(ctx, posts); err != nil {
		return fmt.Errorf("indexing posts: %w", err)
	}
	return nil
}

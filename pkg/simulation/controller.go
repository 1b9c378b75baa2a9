package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/statechart"
	"go.opentelemetry.io/otel/codes"
)

// Controller iterates rounds over every agent and schedules checkpoints.
type Controller struct {
	round *RoundExecutor
}

// NewController creates a controller around a round executor.
func NewController(round *RoundExecutor) *Controller {
	return &Controller{round: round}
}

// RunSimulation runs cfg.MaxRounds rounds from the given state. When the
// context is cancelled between rounds, the rounds finished so far are
// returned together with the context error.
func (c *Controller) RunSimulation(
	ctx context.Context,
	cfg *config.SimulationConfig,
	state *State,
) (*Result, error) {
	checkpointer, err := buildCheckpointer(cfg)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, cfg, state, checkpointer)
}

// ResumeFromCheckpoint loads a checkpoint and runs the remaining rounds up
// to cfg.MaxRounds. A checkpoint already at or past the target returns
// immediately with zero rounds.
func (c *Controller) ResumeFromCheckpoint(
	ctx context.Context,
	checkpointPath string,
	cfg *config.SimulationConfig,
	chart *statechart.Chart,
	reasoner Reasoner,
	factory AgentFactory,
) (*Result, error) {
	loader, err := NewCheckpointer(filepath.Dir(checkpointPath))
	if err != nil {
		return nil, err
	}
	state, err := loader.Load(checkpointPath, chart, reasoner, factory)
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}

	checkpointer, err := buildCheckpointer(cfg)
	if err != nil {
		return nil, err
	}

	slog.Info("resuming simulation",
		"checkpoint", checkpointPath,
		"round", state.RoundNumber,
		"target_rounds", cfg.MaxRounds)

	return c.run(ctx, cfg, state, checkpointer)
}

// RunRound executes a single round over all agents in declared order.
func (c *Controller) RunRound(ctx context.Context, state *State) (*RoundResult, error) {
	ctx, span := startRoundSpan(ctx, state.RoundNumber, len(state.Agents))
	defer span.End()
	start := time.Now()

	decisions := make([]*DecisionResult, 0, len(state.Agents))
	for _, agent := range state.Agents {
		decision, err := c.round.Execute(ctx, agent, state)
		if err != nil {
			err = fmt.Errorf("round %d: %w", state.RoundNumber, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			recordRoundMetrics(ctx, time.Since(start), err)
			return nil, err
		}
		decisions = append(decisions, decision)
	}

	span.SetStatus(codes.Ok, "success")
	recordRoundMetrics(ctx, time.Since(start), nil)
	return &RoundResult{
		RoundNumber: state.RoundNumber,
		Decisions:   decisions,
	}, nil
}

func (c *Controller) run(
	ctx context.Context,
	cfg *config.SimulationConfig,
	state *State,
	checkpointer *Checkpointer,
) (*Result, error) {
	remaining := cfg.MaxRounds - state.RoundNumber
	if remaining < 0 {
		remaining = 0
	}
	rounds := make([]*RoundResult, 0, remaining)

	for i := 0; i < remaining; i++ {
		if err := ctx.Err(); err != nil {
			return buildResult(cfg, state, rounds), err
		}

		roundResult, err := c.RunRound(ctx, state)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, roundResult)

		state.AdvanceRound()

		if checkpointer != nil && cfg.CheckpointFrequency > 0 &&
			state.RoundNumber%cfg.CheckpointFrequency == 0 {
			path, err := checkpointer.Save(state)
			if err != nil {
				return nil, fmt.Errorf("checkpoint at round %d: %w", state.RoundNumber, err)
			}
			slog.Info("checkpoint saved", "round", state.RoundNumber, "path", path)
		}
	}

	return buildResult(cfg, state, rounds), nil
}

func buildResult(cfg *config.SimulationConfig, state *State, rounds []*RoundResult) *Result {
	return &Result{
		TotalRounds:  cfg.MaxRounds,
		FinalMetrics: *state.Metrics,
		Rounds:       rounds,
	}
}

func buildCheckpointer(cfg *config.SimulationConfig) (*Checkpointer, error) {
	if cfg.CheckpointDir == "" {
		return nil, nil
	}
	return NewCheckpointer(cfg.CheckpointDir)
}

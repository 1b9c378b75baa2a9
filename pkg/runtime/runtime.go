// Package runtime assembles a runnable simulation from configuration: the
// observability stack, LLM provider, embedder, vector store, feed retriever,
// round pipeline, and the seed population. A Runtime owns every component it
// builds and releases them in Close.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/embedders"
	"github.com/prism-sim/prism/pkg/feed"
	"github.com/prism-sim/prism/pkg/llms"
	"github.com/prism-sim/prism/pkg/observability"
	"github.com/prism-sim/prism/pkg/reasoner"
	"github.com/prism-sim/prism/pkg/seeds"
	"github.com/prism-sim/prism/pkg/simulation"
	"github.com/prism-sim/prism/pkg/statechart"
	"github.com/prism-sim/prism/pkg/vector"
)

// shutdownTimeout bounds observability shutdown during Close.
const shutdownTimeout = 5 * time.Second

// Runtime holds the wired components of one simulation process.
type Runtime struct {
	config        *config.Config
	observability *observability.Manager
	provider      llms.Provider
	embedder      embedders.Embedder
	store         vector.Store
	retriever     *feed.Retriever
	reasoner      simulation.Reasoner
	logging       *simulation.LoggingExecutor
	controller    *simulation.Controller
	chart         *statechart.Chart
	pool          *config.DBPool
	population    *seeds.SeedSet
}

// New builds a runtime from a validated configuration. On any failure the
// components built so far are released before returning.
func New(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	r := &Runtime{
		config: cfg,
		chart:  statechart.NewSocialMediaChart(),
	}
	fail := func(err error) (*Runtime, error) {
		if cerr := r.Close(); cerr != nil {
			slog.Warn("cleanup after failed initialization", "error", cerr)
		}
		return nil, err
	}

	obs := observability.NewManager(observabilityConfig(cfg))
	if err := obs.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initializing observability: %w", err)
	}
	r.observability = obs

	provider, err := llms.NewProvider(&cfg.LLM)
	if err != nil {
		return fail(fmt.Errorf("creating llm provider: %w", err))
	}
	r.provider = provider

	embedder, err := embedders.NewEmbedder(&cfg.Embedder)
	if err != nil {
		return fail(fmt.Errorf("creating embedder: %w", err))
	}
	r.embedder = embedder

	store, err := vector.NewStore(&cfg.Vector, embedder)
	if err != nil {
		return fail(fmt.Errorf("creating vector store: %w", err))
	}
	r.store = store

	r.pool = config.NewDBPool()
	population, err := seeds.Load(ctx, &cfg.Seeds, r.pool)
	if err != nil {
		return fail(fmt.Errorf("loading seeds: %w", err))
	}
	r.population = population

	retriever, err := feed.NewRetriever(store, &cfg.RAG,
		feed.WithGraph(followGraph(population.Agents)),
		feed.WithMaxConcurrent(cfg.Seeds.MaxConcurrent),
	)
	if err != nil {
		return fail(fmt.Errorf("creating feed retriever: %w", err))
	}
	r.retriever = retriever

	if config.BoolValue(cfg.Simulation.ReasonerEnabled, true) {
		tiebreaker, err := reasoner.NewStatechartReasoner(provider)
		if err != nil {
			return fail(fmt.Errorf("creating reasoner: %w", err))
		}
		r.reasoner = tiebreaker
	}

	var opts []simulation.RoundOption
	if cfg.Simulation.LogFile != "" {
		logging, err := simulation.NewLoggingExecutor(cfg.Simulation.LogFile)
		if err != nil {
			return fail(fmt.Errorf("opening decision log: %w", err))
		}
		r.logging = logging
		opts = append(opts, simulation.WithLogging(logging))
	}
	if cfg.Simulation.SynthesizeContent {
		synthesizer, err := simulation.NewLLMSynthesizer(provider)
		if err != nil {
			return fail(fmt.Errorf("creating synthesizer: %w", err))
		}
		opts = append(opts, simulation.WithSynthesizer(synthesizer))
	}

	round := simulation.NewRoundExecutor(
		simulation.NewFeedExecutor(retriever),
		simulation.NewDecisionExecutor(),
		simulation.NewStateUpdateExecutor(retriever),
		opts...,
	)
	r.controller = simulation.NewController(round)

	slog.Info("runtime initialized",
		"llm", string(cfg.LLM.Provider),
		"model", provider.GetModelName(),
		"vector", string(cfg.Vector.Provider),
		"agents", len(population.Agents),
		"posts", len(population.Posts))

	return r, nil
}

// Config returns the configuration the runtime was built from.
func (r *Runtime) Config() *config.Config {
	return r.config
}

// Retriever returns the feed retriever.
func (r *Runtime) Retriever() *feed.Retriever {
	return r.retriever
}

// Controller returns the simulation controller.
func (r *Runtime) Controller() *simulation.Controller {
	return r.controller
}

// Population returns the loaded seed set.
func (r *Runtime) Population() *seeds.SeedSet {
	return r.population
}

// Close releases every component the runtime owns. All cleanup steps run;
// the first error is returned.
func (r *Runtime) Close() error {
	var errs []error

	if r.logging != nil {
		if err := r.logging.Close(); err != nil {
			errs = append(errs, fmt.Errorf("decision log: %w", err))
		}
		r.logging = nil
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("vector store: %w", err))
		}
		r.store = nil
	}
	if r.embedder != nil {
		if err := r.embedder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("embedder: %w", err))
		}
		r.embedder = nil
	}
	if r.provider != nil {
		if err := r.provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("llm provider: %w", err))
		}
		r.provider = nil
	}
	if r.pool != nil {
		if err := r.pool.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database pool: %w", err))
		}
		r.pool = nil
	}
	if r.observability != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := r.observability.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("observability: %w", err))
		}
		cancel()
		r.observability = nil
	}

	if len(errs) > 0 {
		for _, err := range errs {
			slog.Warn("runtime cleanup error", "error", err)
		}
		return errs[0]
	}
	return nil
}

// Example programmatic runs a small simulation built entirely in Go code,
// without a YAML configuration.
//
// It demonstrates:
//
//   - Building the LLM provider, embedder, and vector store directly
//   - Indexing seed posts through the feed retriever
//   - Creating statechart-driven agents
//   - Running rounds with the simulation controller
//
// Prerequisites:
//   - Ollama running locally with the mistral and nomic-embed-text models
//
// Run:
//
//	go run ./pkg/examples/programmatic
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/prism-sim/prism/pkg/agent"
	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/embedders"
	"github.com/prism-sim/prism/pkg/feed"
	"github.com/prism-sim/prism/pkg/llms"
	"github.com/prism-sim/prism/pkg/simulation"
	"github.com/prism-sim/prism/pkg/social"
	"github.com/prism-sim/prism/pkg/statechart"
	"github.com/prism-sim/prism/pkg/vector"
)

func main() {
	ctx := context.Background()

	// =========================================================================
	// Step 1: Build the LLM provider and embedder
	// =========================================================================
	fmt.Println("🔧 Building providers...")

	llmConfig := &config.LLMConfig{Provider: config.LLMProviderOllama, ModelID: "mistral"}
	llmConfig.SetDefaults()
	provider, err := llms.NewProvider(llmConfig)
	if err != nil {
		log.Fatalf("Failed to create LLM provider: %v", err)
	}
	defer provider.Close()

	embedderConfig := &config.EmbedderConfig{Provider: config.EmbedderProviderOllama}
	embedderConfig.SetDefaults()
	embedder, err := embedders.NewEmbedder(embedderConfig)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	defer embedder.Close()

	// =========================================================================
	// Step 2: Index seed posts into an in-memory vector store
	// =========================================================================
	fmt.Println("📚 Indexing seed posts...")

	store, err := vector.NewStore(&config.VectorConfig{
		Provider:   config.VectorProviderChromem,
		Collection: "posts",
	}, embedder)
	if err != nil {
		log.Fatalf("Failed to create vector store: %v", err)
	}
	defer store.Close()

	ragConfig := &config.RAGConfig{FeedSize: 3}
	retriever, err := feed.NewRetriever(store, ragConfig)
	if err != nil {
		log.Fatalf("Failed to create retriever: %v", err)
	}

	now := time.Now().UTC()
	posts := []*social.Post{
		{ID: "p1", AuthorID: "robin", Text: "New sourdough recipe: longer cold proof, way better crumb", Timestamp: now.Add(-2 * time.Hour)},
		{ID: "p2", AuthorID: "casey", Text: "The city finally approved protected bike lanes on 5th avenue", Timestamp: now.Add(-1 * time.Hour), Likes: 4},
		{ID: "p3", AuthorID: "robin", Text: "Hot take: espresso at home beats any cafe once you dial it in", Timestamp: now.Add(-30 * time.Minute)},
	}
	if err := retriever.AddPosts(ctx, posts); err != nil {
		log.Fatalf("Failed to index posts: %v", err)
	}

	// =========================================================================
	// Step 3: Create the agents
	// =========================================================================
	fmt.Println("🤖 Creating agents...")

	profiles := []*agent.Profile{
		{ID: "casey", Name: "Casey", Interests: []string{"cycling", "urbanism"}, Personality: "analytical"},
		{ID: "robin", Name: "Robin", Interests: []string{"baking", "coffee"}, Personality: "enthusiastic"},
	}

	agents := make([]simulation.Agent, 0, len(profiles))
	for _, profile := range profiles {
		a, err := agent.NewSocialAgent(profile, agent.Settings{TimeoutThreshold: 2}, provider, llmConfig)
		if err != nil {
			log.Fatalf("Failed to create agent %s: %v", profile.ID, err)
		}
		agents = append(agents, a)
	}

	// =========================================================================
	// Step 4: Run the simulation
	// =========================================================================
	fmt.Println("▶️  Running 3 rounds...")

	chart := statechart.NewSocialMediaChart()
	state, err := simulation.NewState(chart, agents, posts)
	if err != nil {
		log.Fatalf("Failed to build state: %v", err)
	}

	round := simulation.NewRoundExecutor(
		simulation.NewFeedExecutor(retriever),
		simulation.NewDecisionExecutor(),
		simulation.NewStateUpdateExecutor(retriever),
	)
	controller := simulation.NewController(round)

	result, err := controller.RunSimulation(ctx, &config.SimulationConfig{MaxRounds: 3}, state)
	if err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	// =========================================================================
	// Step 5: Inspect the results
	// =========================================================================
	for _, roundResult := range result.Rounds {
		fmt.Printf("\nRound %d:\n", roundResult.RoundNumber+1)
		for _, decision := range roundResult.Decisions {
			action := "-"
			if decision.Action != nil {
				action = decision.Action.Action
				if decision.Action.TargetPostID != "" {
					action += " → " + decision.Action.TargetPostID
				}
			}
			fmt.Printf("  %-8s %s → %s (%s)\n",
				decision.AgentID, decision.FromState, decision.ToState, action)
		}
	}

	fmt.Printf("\n✅ Done: %d posts created, %d likes, %d reshares, %d replies\n",
		result.FinalMetrics.PostsCreated,
		result.FinalMetrics.TotalLikes,
		result.FinalMetrics.TotalReshares,
		result.FinalMetrics.TotalReplies)
}

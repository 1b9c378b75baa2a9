// Package prism simulates a round-based social media network whose users
// are LLM-driven agents.
//
// Each agent owns a persona (interests, personality, stance on topics) and
// moves through a statechart of social media behaviour: scrolling,
// evaluating, liking, replying, resharing, composing, resting. Every round
// each agent receives a personalized feed retrieved from a vector store,
// decides what to do through its statechart (with an optional LLM
// tiebreaker for ambiguous transitions), and mutates the shared simulation
// state. Checkpoints capture the full state on a configured frequency so
// long runs can be stopped and resumed.
//
// # Quick Start
//
// Install the CLI:
//
//	go install github.com/prism-sim/prism/cmd/prism@latest
//
// Create a configuration:
//
//	llm:
//	  provider: ollama
//	  model_id: mistral
//	embedder:
//	  provider: ollama
//	  model: nomic-embed-text
//	seeds:
//	  posts_file: seeds/posts.json
//	  agents_file: seeds/agents.json
//	simulation:
//	  max_rounds: 20
//	  checkpoint_dir: checkpoints
//
// Run it:
//
//	prism run --config sim.yaml
//
// Resume the newest checkpoint after an interruption:
//
//	prism resume --config sim.yaml
//
// # Using as Go Library
//
// The runtime package wires every component from a configuration:
//
//	import (
//	    "github.com/prism-sim/prism/pkg/config"
//	    "github.com/prism-sim/prism/pkg/runtime"
//	)
//
//	cfg, err := config.Load("sim.yaml")
//	rt, err := runtime.New(ctx, cfg)
//	defer rt.Close()
//	result, err := rt.Run(ctx)
//
// Individual packages compose on their own as well: pkg/statechart holds
// the behaviour model, pkg/feed the retrieval and ranking, pkg/simulation
// the round loop and checkpointing.
//
// # Architecture
//
// Control flow per round:
//
//	Controller → Round executor per agent → Feed retriever →
//	Decision executor (statechart + reasoner) → State update → Logging
//
// All LLM and embedding traffic goes through provider interfaces, so local
// Ollama models and OpenAI-compatible endpoints are interchangeable.
package prism

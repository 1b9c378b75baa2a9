// Package embedders provides text embedding providers for semantic feed
// retrieval. Embedders turn documents into fixed-dimension vectors; transient
// failures are retried with exponential backoff before an error is surfaced.
package embedders

import (
	"context"
	"fmt"
	"sync"

	"github.com/prism-sim/prism/pkg/config"
)

// Embedder generates vector embeddings for text documents.
type Embedder interface {
	// Embed generates an embedding for a single document.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for a list of documents. The result
	// has the same length and order as the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// GetDimension returns the dimension of the vectors this embedder produces.
	GetDimension() int

	// GetModelName returns the embedding model name.
	GetModelName() string

	// Close releases provider resources.
	Close() error
}

// NewEmbedder creates an embedder from configuration.
func NewEmbedder(cfg *config.EmbedderConfig) (Embedder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("embedder config is nil")
	}

	var embedder Embedder
	var err error

	switch cfg.Provider {
	case config.EmbedderProviderOpenAI:
		embedder, err = NewOpenAIEmbedder(cfg)
	case config.EmbedderProviderOllama, "":
		embedder, err = NewOllamaEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedder provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s embedder: %w", cfg.Provider, err)
	}
	return embedder, nil
}

// Registry manages named embedder instances.
type Registry struct {
	mu        sync.RWMutex
	embedders map[string]Embedder
}

// NewRegistry creates an empty embedder registry.
func NewRegistry() *Registry {
	return &Registry{
		embedders: make(map[string]Embedder),
	}
}

// Register adds an embedder under a name.
func (r *Registry) Register(name string, embedder Embedder) error {
	if name == "" {
		return fmt.Errorf("embedder name cannot be empty")
	}
	if embedder == nil {
		return fmt.Errorf("embedder cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.embedders[name]; exists {
		return fmt.Errorf("embedder %q already registered", name)
	}
	r.embedders[name] = embedder
	return nil
}

// CreateFromConfig builds an embedder from configuration and registers it.
func (r *Registry) CreateFromConfig(name string, cfg *config.EmbedderConfig) (Embedder, error) {
	embedder, err := NewEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	if err := r.Register(name, embedder); err != nil {
		embedder.Close()
		return nil, err
	}
	return embedder, nil
}

// Get returns a registered embedder by name.
func (r *Registry) Get(name string) (Embedder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	embedder, exists := r.embedders[name]
	if !exists {
		return nil, fmt.Errorf("embedder %q not found", name)
	}
	return embedder, nil
}

// List returns the names of all registered embedders.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.embedders))
	for name := range r.embedders {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered embedders.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.embedders)
}

// Close closes all registered embedders and clears the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for name, embedder := range r.embedders {
		if err := embedder.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close embedder %q: %w", name, err)
		}
	}
	r.embedders = make(map[string]Embedder)
	return firstErr
}

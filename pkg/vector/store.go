// Package vector provides the vector store backing feed retrieval. Posts are
// indexed as documents with typed metadata; retrieval is k-NN over embeddings
// produced by the embedders package. Two backends are supported: chromem
// (embedded, ephemeral or persistent) and qdrant (remote).
package vector

import (
	"context"
	"fmt"

	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/embedders"
)

// Include flags select which fields query and get results carry.
const (
	IncludeDocuments = "documents"
	IncludeMetadatas = "metadatas"
	IncludeDistances = "distances"
)

// QueryResult holds k-NN results, one row per query text. IDs are always
// populated; the remaining fields follow the include flags.
type QueryResult struct {
	IDs       [][]string
	Documents [][]string
	Metadatas [][]map[string]interface{}
	Distances [][]float32
}

// GetResult holds directly fetched documents. IDs are always populated.
type GetResult struct {
	IDs       []string
	Documents []string
	Metadatas []map[string]interface{}
}

// Store is a collection of documents addressable by id and searchable by
// embedding similarity.
type Store interface {
	// Upsert adds or replaces documents. The three slices are parallel;
	// metadatas may be nil.
	Upsert(ctx context.Context, ids []string, documents []string, metadatas []map[string]interface{}) error

	// Query returns up to nResults nearest documents for each query text.
	// Fewer results are returned when the collection is smaller.
	Query(ctx context.Context, queryTexts []string, nResults int, include []string) (*QueryResult, error)

	// Get fetches documents by id. A nil or empty ids slice fetches every
	// document, ordered by id. Unknown ids are skipped.
	Get(ctx context.Context, ids []string, include []string) (*GetResult, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Delete removes documents by id. Unknown ids are ignored.
	Delete(ctx context.Context, ids []string) error

	// Clear removes every document in the collection.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// NewStore creates a vector store from configuration.
func NewStore(cfg *config.VectorConfig, embedder embedders.Embedder) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("vector config is nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	var store Store
	var err error

	switch cfg.Provider {
	case config.VectorProviderQdrant:
		store, err = NewQdrantStore(cfg, embedder)
	case config.VectorProviderChromem, "":
		store, err = NewChromemStore(cfg, embedder)
	default:
		return nil, fmt.Errorf("unsupported vector provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s vector store: %w", cfg.Provider, err)
	}
	return store, nil
}

func includeHas(include []string, field string) bool {
	for _, f := range include {
		if f == field {
			return true
		}
	}
	return false
}

func validateUpsert(ids []string, documents []string, metadatas []map[string]interface{}) error {
	if len(ids) == 0 {
		return fmt.Errorf("upsert requires at least one id")
	}
	if len(documents) != len(ids) {
		return fmt.Errorf("got %d documents for %d ids", len(documents), len(ids))
	}
	if metadatas != nil && len(metadatas) != len(ids) {
		return fmt.Errorf("got %d metadatas for %d ids", len(metadatas), len(ids))
	}
	return nil
}

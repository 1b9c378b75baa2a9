package vector

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/embedders"
)

// Persistent chromem databases are cached per directory. chromem does not
// tolerate two handles over the same directory, and tests reuse directories
// across store instances.
var (
	clientCacheMu sync.Mutex
	clientCache   = make(map[string]*chromem.DB)
)

func persistentDB(dir string) (*chromem.DB, error) {
	clientCacheMu.Lock()
	defer clientCacheMu.Unlock()

	if db, ok := clientCache[dir]; ok {
		return db, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create persist directory: %w", err)
	}
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open persistent database: %w", err)
	}
	clientCache[dir] = db
	return db, nil
}

// ClearClientCache drops all cached persistent database handles. Tests call
// this to get a fresh handle for a reused directory.
func ClearClientCache() {
	clientCacheMu.Lock()
	defer clientCacheMu.Unlock()
	clientCache = make(map[string]*chromem.DB)
}

// CloseClients releases all cached persistent database handles. chromem
// persists synchronously on every write, so dropping the references is
// sufficient.
func CloseClients() error {
	ClearClientCache()
	return nil
}

type storedDoc struct {
	document string
	metadata map[string]interface{}
}

// ChromemStore is an embedded vector store backed by chromem-go. Vectors are
// computed up front through the embedder and handed to chromem pre-embedded.
// chromem only keeps string metadata, so the store carries the typed metadata
// alongside and joins it back into results by id.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embedders.Embedder
	name       string
	persistDir string

	mu   sync.RWMutex
	docs map[string]storedDoc
}

// NewChromemStore creates a chromem-backed store. An empty persist_dir keeps
// the store in memory; otherwise documents are persisted under the directory
// and survive restarts.
func NewChromemStore(cfg *config.VectorConfig, embedder embedders.Embedder) (*ChromemStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	var db *chromem.DB
	if cfg.PersistDir != "" {
		var err error
		db, err = persistentDB(cfg.PersistDir)
		if err != nil {
			return nil, err
		}
		slog.Info("Opened persistent vector database", "dir", cfg.PersistDir)
	} else {
		db = chromem.NewDB()
		slog.Debug("Created in-memory vector database")
	}

	store := &ChromemStore{
		db:         db,
		embedder:   embedder,
		name:       cfg.Collection,
		persistDir: cfg.PersistDir,
		docs:       make(map[string]storedDoc),
	}
	if err := store.openCollection(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *ChromemStore) openCollection() error {
	// Vectors are always pre-computed; chromem must never embed on its own.
	identityEmbed := func(ctx context.Context, text string) ([]float32, error) {
		return nil, fmt.Errorf("embedding function called but vectors are pre-computed")
	}

	col, err := s.db.GetOrCreateCollection(s.name, nil, identityEmbed)
	if err != nil {
		return fmt.Errorf("failed to open collection %q: %w", s.name, err)
	}
	s.collection = col
	return nil
}

// Upsert embeds the documents in one batch and stores them. Existing ids are
// overwritten.
func (s *ChromemStore) Upsert(ctx context.Context, ids []string, documents []string, metadatas []map[string]interface{}) error {
	if err := validateUpsert(ids, documents, metadatas); err != nil {
		return err
	}

	vectors, err := s.embedder.EmbedBatch(ctx, documents)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}

	chromemDocs := make([]chromem.Document, len(ids))
	for i, id := range ids {
		var metadata map[string]interface{}
		if metadatas != nil {
			metadata = metadatas[i]
		}
		chromemDocs[i] = chromem.Document{
			ID:        id,
			Content:   documents[i],
			Metadata:  stringifyMetadata(metadata),
			Embedding: vectors[i],
		}
	}

	if err := s.collection.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to upsert documents: %w", err)
	}

	s.mu.Lock()
	for i, id := range ids {
		var metadata map[string]interface{}
		if metadatas != nil {
			metadata = metadatas[i]
		}
		s.docs[id] = storedDoc{document: documents[i], metadata: metadata}
	}
	s.mu.Unlock()

	return nil
}

// Query embeds each query text and returns its nearest documents.
func (s *ChromemStore) Query(ctx context.Context, queryTexts []string, nResults int, include []string) (*QueryResult, error) {
	if nResults < 1 {
		return nil, fmt.Errorf("n_results must be positive, got %d", nResults)
	}

	result := &QueryResult{
		IDs: make([][]string, len(queryTexts)),
	}
	if includeHas(include, IncludeDocuments) {
		result.Documents = make([][]string, len(queryTexts))
	}
	if includeHas(include, IncludeMetadatas) {
		result.Metadatas = make([][]map[string]interface{}, len(queryTexts))
	}
	if includeHas(include, IncludeDistances) {
		result.Distances = make([][]float32, len(queryTexts))
	}

	count := s.collection.Count()
	k := nResults
	if k > count {
		k = count
	}

	for qi, text := range queryTexts {
		result.IDs[qi] = []string{}
		if result.Documents != nil {
			result.Documents[qi] = []string{}
		}
		if result.Metadatas != nil {
			result.Metadatas[qi] = []map[string]interface{}{}
		}
		if result.Distances != nil {
			result.Distances[qi] = []float32{}
		}
		if k == 0 {
			continue
		}

		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}

		matches, err := s.collection.QueryEmbedding(ctx, vec, k, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("query failed: %w", err)
		}

		for _, m := range matches {
			result.IDs[qi] = append(result.IDs[qi], m.ID)
			if result.Documents != nil {
				result.Documents[qi] = append(result.Documents[qi], m.Content)
			}
			if result.Metadatas != nil {
				result.Metadatas[qi] = append(result.Metadatas[qi], s.typedMetadata(m.ID, m.Metadata))
			}
			if result.Distances != nil {
				result.Distances[qi] = append(result.Distances[qi], 1-m.Similarity)
			}
		}
	}

	return result, nil
}

// typedMetadata returns the typed metadata tracked for id, falling back to
// chromem's string metadata for documents indexed by an earlier process.
func (s *ChromemStore) typedMetadata(id string, raw map[string]string) map[string]interface{} {
	s.mu.RLock()
	doc, ok := s.docs[id]
	s.mu.RUnlock()
	if ok {
		return doc.metadata
	}

	metadata := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		metadata[k] = v
	}
	return metadata
}

// Get fetches documents by id, or every document when ids is empty.
func (s *ChromemStore) Get(ctx context.Context, ids []string, include []string) (*GetResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(ids) == 0 {
		ids = make([]string, 0, len(s.docs))
		for id := range s.docs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
	}

	result := &GetResult{IDs: []string{}}
	if includeHas(include, IncludeDocuments) {
		result.Documents = []string{}
	}
	if includeHas(include, IncludeMetadatas) {
		result.Metadatas = []map[string]interface{}{}
	}

	for _, id := range ids {
		doc, ok := s.docs[id]
		if !ok {
			continue
		}
		result.IDs = append(result.IDs, id)
		if result.Documents != nil {
			result.Documents = append(result.Documents, doc.document)
		}
		if result.Metadatas != nil {
			result.Metadatas = append(result.Metadatas, doc.metadata)
		}
	}

	return result, nil
}

// Count returns the number of stored documents.
func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	return s.collection.Count(), nil
}

// Delete removes documents by id.
func (s *ChromemStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := s.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}

	s.mu.Lock()
	for _, id := range ids {
		delete(s.docs, id)
	}
	s.mu.Unlock()

	return nil
}

// Clear drops the collection and recreates it empty.
func (s *ChromemStore) Clear(ctx context.Context) error {
	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("failed to drop collection %q: %w", s.name, err)
	}
	if err := s.openCollection(); err != nil {
		return err
	}

	s.mu.Lock()
	s.docs = make(map[string]storedDoc)
	s.mu.Unlock()

	return nil
}

// Close is a no-op; persistent databases write through on every mutation.
func (s *ChromemStore) Close() error {
	return nil
}

// stringifyMetadata flattens typed metadata into the string map chromem
// stores.
func stringifyMetadata(metadata map[string]interface{}) map[string]string {
	if len(metadata) == 0 {
		return nil
	}
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		out[k] = fmt.Sprint(v)
	}
	return out
}

var _ Store = (*ChromemStore)(nil)

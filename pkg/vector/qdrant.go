package vector

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/embedders"
)

// Qdrant only accepts UUID or integer point ids. Post ids are arbitrary
// strings, so they are mapped through deterministic UUIDv5 and the original
// id travels in the payload.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("prism://posts"))

// Payload keys reserved by the store. Post metadata keys never start with
// an underscore.
const (
	payloadKeyID       = "__id"
	payloadKeyDocument = "__document"
)

// QdrantStore is a remote vector store backed by a Qdrant server.
type QdrantStore struct {
	client     *qdrant.Client
	embedder   embedders.Embedder
	collection string

	mu    sync.Mutex
	ready bool
}

// NewQdrantStore creates a Qdrant-backed store. The collection is created
// lazily on first use with the embedder's dimension and cosine distance.
func NewQdrantStore(cfg *config.VectorConfig, embedder embedders.Embedder) (*QdrantStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.APIKey != "",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client for %s:%d: %w", host, port, err)
	}

	return &QdrantStore{
		client:     client,
		embedder:   embedder,
		collection: cfg.Collection,
	}, nil
}

// ensureCollection creates the collection on first use.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %q: %w", s.collection, err)
	}
	if !exists {
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(s.embedder.GetDimension()),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("failed to create collection %q: %w", s.collection, err)
		}
	}

	s.ready = true
	return nil
}

// Upsert embeds the documents in one batch and writes them with Wait so a
// following query sees them.
func (s *QdrantStore) Upsert(ctx context.Context, ids []string, documents []string, metadatas []map[string]interface{}) error {
	if err := validateUpsert(ids, documents, metadatas); err != nil {
		return err
	}
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	vectors, err := s.embedder.EmbedBatch(ctx, documents)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}

	points := make([]*qdrant.PointStruct, len(ids))
	for i, id := range ids {
		var metadata map[string]interface{}
		if metadatas != nil {
			metadata = metadatas[i]
		}
		payload, err := metadataToPayload(metadata, id, documents[i])
		if err != nil {
			return err
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(id)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: payload,
		}
	}

	wait := true
	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

// Query embeds each query text and searches the collection.
func (s *QdrantStore) Query(ctx context.Context, queryTexts []string, nResults int, include []string) (*QueryResult, error) {
	if nResults < 1 {
		return nil, fmt.Errorf("n_results must be positive, got %d", nResults)
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
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

		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}

		searchResult, err := s.client.GetPointsClient().Search(ctx, &qdrant.SearchPoints{
			CollectionName: s.collection,
			Vector:         vec,
			Limit:          uint64(nResults),
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}

		for _, point := range searchResult.Result {
			id, document, metadata := decodePayload(point.Payload)
			if id == "" {
				id = pointIDString(point.Id)
			}
			result.IDs[qi] = append(result.IDs[qi], id)
			if result.Documents != nil {
				result.Documents[qi] = append(result.Documents[qi], document)
			}
			if result.Metadatas != nil {
				result.Metadatas[qi] = append(result.Metadatas[qi], metadata)
			}
			if result.Distances != nil {
				result.Distances[qi] = append(result.Distances[qi], 1-point.Score)
			}
		}
	}

	return result, nil
}

// Get fetches documents by id, or scrolls every document when ids is empty.
func (s *QdrantStore) Get(ctx context.Context, ids []string, include []string) (*GetResult, error) {
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}

	var points []*qdrant.RetrievedPoint
	if len(ids) == 0 {
		count, err := s.Count(ctx)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			limit := uint32(count)
			points, err = s.client.Scroll(ctx, &qdrant.ScrollPoints{
				CollectionName: s.collection,
				Limit:          &limit,
				WithPayload:    qdrant.NewWithPayload(true),
			})
			if err != nil {
				return nil, fmt.Errorf("scroll failed: %w", err)
			}
		}
	} else {
		pointIDs := make([]*qdrant.PointId, len(ids))
		for i, id := range ids {
			pointIDs[i] = qdrant.NewID(pointID(id))
		}
		var err error
		points, err = s.client.Get(ctx, &qdrant.GetPoints{
			CollectionName: s.collection,
			Ids:            pointIDs,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("get failed: %w", err)
		}
	}

	type row struct {
		id       string
		document string
		metadata map[string]interface{}
	}
	rows := make([]row, 0, len(points))
	for _, point := range points {
		id, document, metadata := decodePayload(point.Payload)
		if id == "" {
			id = pointIDString(point.Id)
		}
		rows = append(rows, row{id: id, document: document, metadata: metadata})
	}
	if len(ids) == 0 {
		sort.Slice(rows, func(i, j int) bool { return rows[i].id < rows[j].id })
	}

	result := &GetResult{IDs: []string{}}
	if includeHas(include, IncludeDocuments) {
		result.Documents = []string{}
	}
	if includeHas(include, IncludeMetadatas) {
		result.Metadatas = []map[string]interface{}{}
	}
	for _, r := range rows {
		result.IDs = append(result.IDs, r.id)
		if result.Documents != nil {
			result.Documents = append(result.Documents, r.document)
		}
		if result.Metadatas != nil {
			result.Metadatas = append(result.Metadatas, r.metadata)
		}
	}

	return result, nil
}

// Count returns the exact number of stored points.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	if err := s.ensureCollection(ctx); err != nil {
		return 0, err
	}

	exact := true
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return int(count), nil
}

// Delete removes points by id.
func (s *QdrantStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(pointID(id))
	}

	wait := true
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: pointIDs},
			},
		},
		Wait: &wait,
	})
	if err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

// Clear drops the collection. It is recreated on the next operation.
func (s *QdrantStore) Clear(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("failed to drop collection %q: %w", s.collection, err)
	}

	s.mu.Lock()
	s.ready = false
	s.mu.Unlock()

	return nil
}

// Close closes the underlying gRPC client.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// pointID maps a post id to its deterministic Qdrant point id.
func pointID(id string) string {
	return uuid.NewSHA1(pointNamespace, []byte(id)).String()
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	switch v := id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		return v.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", v.Num)
	}
	return ""
}

// metadataToPayload converts typed metadata into a Qdrant payload, adding
// the reserved id and document entries.
func metadataToPayload(metadata map[string]interface{}, id, document string) (map[string]*qdrant.Value, error) {
	payload := make(map[string]*qdrant.Value, len(metadata)+2)
	for key, value := range metadata {
		val, err := qdrant.NewValue(value)
		if err != nil {
			return nil, fmt.Errorf("failed to convert metadata value for key %s: %w", key, err)
		}
		payload[key] = val
	}

	idVal, err := qdrant.NewValue(id)
	if err != nil {
		return nil, fmt.Errorf("failed to convert id: %w", err)
	}
	payload[payloadKeyID] = idVal

	docVal, err := qdrant.NewValue(document)
	if err != nil {
		return nil, fmt.Errorf("failed to convert document: %w", err)
	}
	payload[payloadKeyDocument] = docVal

	return payload, nil
}

// decodePayload splits a Qdrant payload back into the original id, document
// text, and typed metadata.
func decodePayload(payload map[string]*qdrant.Value) (string, string, map[string]interface{}) {
	var id, document string
	metadata := make(map[string]interface{}, len(payload))

	for key, value := range payload {
		switch key {
		case payloadKeyID:
			id = value.GetStringValue()
		case payloadKeyDocument:
			document = value.GetStringValue()
		default:
			metadata[key] = payloadValue(value)
		}
	}
	return id, document, metadata
}

func payloadValue(value *qdrant.Value) interface{} {
	switch v := value.Kind.(type) {
	case *qdrant.Value_StringValue:
		return v.StringValue
	case *qdrant.Value_IntegerValue:
		return v.IntegerValue
	case *qdrant.Value_DoubleValue:
		return v.DoubleValue
	case *qdrant.Value_BoolValue:
		return v.BoolValue
	case *qdrant.Value_ListValue:
		if v.ListValue == nil {
			return nil
		}
		list := make([]interface{}, len(v.ListValue.Values))
		for i, item := range v.ListValue.Values {
			list[i] = payloadValue(item)
		}
		return list
	default:
		return value
	}
}

var _ Store = (*QdrantStore)(nil)

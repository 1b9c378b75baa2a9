package feed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/social"
	"github.com/prism-sim/prism/pkg/vector"
)

type fakeDoc struct {
	text     string
	metadata map[string]interface{}
}

// fakeStore is an in-memory vector.Store. Query results follow the
// preconfigured queryOrder/queryDist instead of real similarity.
type fakeStore struct {
	mu          sync.Mutex
	docs        map[string]fakeDoc
	queryOrder  []string
	queryDist   []float32
	upsertCalls int
	lastQuery   string
	lastN       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]fakeDoc)}
}

func (s *fakeStore) Upsert(ctx context.Context, ids []string, documents []string, metadatas []map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsertCalls++
	for i, id := range ids {
		var metadata map[string]interface{}
		if metadatas != nil {
			metadata = metadatas[i]
		}
		s.docs[id] = fakeDoc{text: documents[i], metadata: metadata}
	}
	return nil
}

func (s *fakeStore) Query(ctx context.Context, queryTexts []string, nResults int, include []string) (*vector.QueryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastQuery = queryTexts[0]
	s.lastN = nResults

	var ids, documents []string
	var metadatas []map[string]interface{}
	var distances []float32
	for i, id := range s.queryOrder {
		if len(ids) >= nResults {
			break
		}
		doc, ok := s.docs[id]
		if !ok {
			continue
		}
		ids = append(ids, id)
		documents = append(documents, doc.text)
		metadatas = append(metadatas, doc.metadata)
		var distance float32
		if i < len(s.queryDist) {
			distance = s.queryDist[i]
		}
		distances = append(distances, distance)
	}

	return &vector.QueryResult{
		IDs:       [][]string{ids},
		Documents: [][]string{documents},
		Metadatas: [][]map[string]interface{}{metadatas},
		Distances: [][]float32{distances},
	}, nil
}

func (s *fakeStore) Get(ctx context.Context, ids []string, include []string) (*vector.GetResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ids) == 0 {
		ids = make([]string, 0, len(s.docs))
		for id := range s.docs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
	}

	result := &vector.GetResult{}
	for _, id := range ids {
		doc, ok := s.docs[id]
		if !ok {
			continue
		}
		result.IDs = append(result.IDs, id)
		result.Documents = append(result.Documents, doc.text)
		result.Metadatas = append(result.Metadatas, doc.metadata)
	}
	return result, nil
}

func (s *fakeStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs), nil
}

func (s *fakeStore) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.docs, id)
	}
	return nil
}

func (s *fakeStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]fakeDoc)
	return nil
}

func (s *fakeStore) Close() error { return nil }

func feedPost(id, author, text string) *social.Post {
	return &social.Post{
		ID:        id,
		AuthorID:  author,
		Text:      text,
		Timestamp: time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

func ragTestConfig(mode string) *config.RAGConfig {
	cfg := &config.RAGConfig{FeedSize: 3, Mode: mode}
	cfg.SetDefaults()
	return cfg
}

func seedRetriever(t *testing.T, retriever *Retriever, posts ...*social.Post) {
	t.Helper()
	for _, post := range posts {
		if err := retriever.AddPost(context.Background(), post); err != nil {
			t.Fatalf("AddPost(%s) error = %v", post.ID, err)
		}
	}
}

func postIDs(posts []*social.Post) []string {
	ids := make([]string, len(posts))
	for i, post := range posts {
		ids[i] = post.ID
	}
	return ids
}

func TestNewRetriever_Validation(t *testing.T) {
	if _, err := NewRetriever(nil, ragTestConfig("")); err == nil {
		t.Error("expected error for nil store")
	}
	if _, err := NewRetriever(newFakeStore(), nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestRetriever_AddPost(t *testing.T) {
	store := newFakeStore()
	retriever, err := NewRetriever(store, ragTestConfig(""))
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}

	seedRetriever(t, retriever, feedPost("p1", "a1", "hello"))

	count, err := retriever.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
	if got := store.docs["p1"].metadata["author_id"]; got != "a1" {
		t.Errorf("indexed author_id = %v, want a1", got)
	}

	if err := retriever.AddPost(context.Background(), nil); err == nil {
		t.Error("AddPost(nil) expected error")
	}
}

func TestRetriever_AddPosts_Chunks(t *testing.T) {
	store := newFakeStore()
	retriever, err := NewRetriever(store, ragTestConfig(""), WithMaxConcurrent(2))
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}

	posts := make([]*social.Post, 70)
	for i := range posts {
		posts[i] = feedPost(fmt.Sprintf("p%03d", i), "a1", "post body")
	}

	if err := retriever.AddPosts(context.Background(), posts); err != nil {
		t.Fatalf("AddPosts() error = %v", err)
	}

	count, _ := retriever.Count(context.Background())
	if count != 70 {
		t.Errorf("Count() = %d, want 70", count)
	}
	if store.upsertCalls != 3 {
		t.Errorf("upsert calls = %d, want 3", store.upsertCalls)
	}

	if err := retriever.AddPosts(context.Background(), nil); err != nil {
		t.Errorf("AddPosts(nil) error = %v", err)
	}
}

func TestRetriever_GetFeed_EmptyCollection(t *testing.T) {
	retriever, err := NewRetriever(newFakeStore(), ragTestConfig(""))
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}
	viewer := &Viewer{ID: "alice", Interests: []string{"tech"}}

	for _, mode := range []string{config.FeedModePreference, config.FeedModeRandom, config.FeedModeXAlgo} {
		if _, err := retriever.GetFeed(context.Background(), viewer, mode); !errors.Is(err, ErrEmptyCollection) {
			t.Errorf("GetFeed(%s) error = %v, want ErrEmptyCollection", mode, err)
		}
	}
}

func TestRetriever_GetFeed_Preference(t *testing.T) {
	store := newFakeStore()
	retriever, err := NewRetriever(store, ragTestConfig(""))
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}
	seedRetriever(t, retriever,
		feedPost("p1", "a1", "kernel scheduling"),
		feedPost("p2", "a2", "ai agents"),
		feedPost("p3", "a3", "gardening"))
	store.queryOrder = []string{"p2", "p1", "p3"}

	viewer := &Viewer{ID: "alice", Interests: []string{"ai", "tech"}}
	posts, err := retriever.GetFeed(context.Background(), viewer, "")
	if err != nil {
		t.Fatalf("GetFeed() error = %v", err)
	}

	if got := postIDs(posts); strings.Join(got, ",") != "p2,p1,p3" {
		t.Errorf("feed order = %v, want [p2 p1 p3]", got)
	}
	if store.lastQuery != "ai tech" {
		t.Errorf("query text = %q, want \"ai tech\"", store.lastQuery)
	}
	if store.lastN != 3 {
		t.Errorf("query n = %d, want feed size 3", store.lastN)
	}
}

func TestRetriever_GetFeed_MissingInterests(t *testing.T) {
	store := newFakeStore()
	retriever, err := NewRetriever(store, ragTestConfig(""))
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}
	seedRetriever(t, retriever, feedPost("p1", "a1", "hello"))

	if _, err := retriever.GetFeed(context.Background(), nil, ""); !errors.Is(err, ErrMissingInterests) {
		t.Errorf("GetFeed(nil viewer) error = %v, want ErrMissingInterests", err)
	}
	viewer := &Viewer{ID: "alice"}
	if _, err := retriever.GetFeed(context.Background(), viewer, config.FeedModePreference); !errors.Is(err, ErrMissingInterests) {
		t.Errorf("GetFeed(no interests) error = %v, want ErrMissingInterests", err)
	}
}

func TestRetriever_GetFeed_Random(t *testing.T) {
	store := newFakeStore()
	retriever, err := NewRetriever(store, ragTestConfig(config.FeedModeRandom))
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}
	retriever.rng = rand.New(rand.NewSource(7))

	seeded := map[string]bool{}
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("p%d", i)
		seeded[id] = true
		seedRetriever(t, retriever, feedPost(id, "a1", "post"))
	}

	posts, err := retriever.GetFeed(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("GetFeed() error = %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("len = %d, want feed size 3", len(posts))
	}

	unique := map[string]bool{}
	for _, post := range posts {
		if !seeded[post.ID] {
			t.Errorf("unexpected post %s", post.ID)
		}
		if unique[post.ID] {
			t.Errorf("duplicate post %s", post.ID)
		}
		unique[post.ID] = true
	}
}

func TestRetriever_GetFeed_RandomSmallCollection(t *testing.T) {
	retriever, err := NewRetriever(newFakeStore(), ragTestConfig(config.FeedModeRandom))
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}
	seedRetriever(t, retriever, feedPost("p1", "a1", "one"), feedPost("p2", "a2", "two"))

	posts, err := retriever.GetFeed(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("GetFeed() error = %v", err)
	}
	if len(posts) != 2 {
		t.Errorf("len = %d, want 2", len(posts))
	}
}

func TestRetriever_GetFeed_UnknownMode(t *testing.T) {
	retriever, err := NewRetriever(newFakeStore(), ragTestConfig(""))
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}
	seedRetriever(t, retriever, feedPost("p1", "a1", "hello"))

	_, err = retriever.GetFeed(context.Background(), nil, "chronological")
	if err == nil || !strings.Contains(err.Error(), "unknown feed mode") {
		t.Errorf("GetFeed(chronological) error = %v", err)
	}
}

func TestRetriever_GetFeed_XAlgo_PrefersNetwork(t *testing.T) {
	store := newFakeStore()
	graph := social.NewSimpleGraph(map[string][]string{"alice": {"a1"}})
	retriever, err := NewRetriever(store, ragTestConfig(config.FeedModeXAlgo), WithGraph(graph))
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}
	seedRetriever(t, retriever,
		feedPost("p1", "a1", "from a friend"),
		feedPost("p2", "b2", "from a stranger"))

	// The store ranks the stranger's post higher; the reranker flips it.
	store.queryOrder = []string{"p2", "p1"}
	store.queryDist = []float32{0.2, 0.2}

	viewer := &Viewer{ID: "alice", Interests: []string{"anything"}}
	posts, err := retriever.GetFeed(context.Background(), viewer, "")
	if err != nil {
		t.Fatalf("GetFeed() error = %v", err)
	}

	if got := postIDs(posts); strings.Join(got, ",") != "p1,p2" {
		t.Errorf("feed order = %v, want [p1 p2]", got)
	}
	if store.lastN != 100 {
		t.Errorf("candidate pool = %d, want 100", store.lastN)
	}
}

func TestRetriever_RankingModeOverridesDefault(t *testing.T) {
	store := newFakeStore()
	cfg := &config.RAGConfig{
		FeedSize: 3,
		Mode:     config.FeedModePreference,
		Ranking:  config.RankingConfig{Mode: config.FeedModeXAlgo},
	}
	retriever, err := NewRetriever(store, cfg)
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}
	seedRetriever(t, retriever, feedPost("p1", "a1", "hello"))

	// Preference mode would fail on a viewer without interests; the x_algo
	// ranking mode takes over as the default path instead.
	posts, err := retriever.GetFeed(context.Background(), &Viewer{ID: "alice"}, "")
	if err != nil {
		t.Fatalf("GetFeed() error = %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "p1" {
		t.Errorf("feed = %v, want [p1]", postIDs(posts))
	}
}

func TestRetriever_GetFeed_XAlgo_NoInterests(t *testing.T) {
	store := newFakeStore()
	graph := social.NewSimpleGraph(map[string][]string{"alice": {"a1"}})
	retriever, err := NewRetriever(store, ragTestConfig(config.FeedModeXAlgo), WithGraph(graph))
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}
	seedRetriever(t, retriever,
		feedPost("p1", "b2", "stranger post"),
		feedPost("p9", "a1", "friend post"))

	viewer := &Viewer{ID: "alice"}
	posts, err := retriever.GetFeed(context.Background(), viewer, "")
	if err != nil {
		t.Fatalf("GetFeed() error = %v", err)
	}

	if got := postIDs(posts); strings.Join(got, ",") != "p9,p1" {
		t.Errorf("feed order = %v, want [p9 p1]", got)
	}
	if store.lastN != 0 {
		t.Error("expected the interest query to be skipped")
	}
}

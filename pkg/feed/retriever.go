// Package feed retrieves and ranks the posts an agent sees each round.
// Retrieval is backed by the vector store: preference mode queries by the
// viewer's interests, random mode samples uniformly, and x_algo reranks a
// candidate pool with network and author-diversity weighting.
package feed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/social"
	"github.com/prism-sim/prism/pkg/vector"
)

var (
	// ErrEmptyCollection is returned when no posts are indexed.
	ErrEmptyCollection = errors.New("post collection is empty")

	// ErrMissingInterests is returned by preference retrieval when the
	// viewer has no interests to query by.
	ErrMissingInterests = errors.New("interests required for preference mode")
)

// bulkChunkSize is the number of posts indexed per bulk worker batch.
const bulkChunkSize = 32

// Graph resolves follow relationships for network-aware ranking.
type Graph interface {
	IsFollowing(follower, followee string) bool
}

// Viewer identifies the agent a feed is retrieved for.
type Viewer struct {
	ID        string
	Interests []string
}

// Retriever indexes posts and serves per-agent feeds from the vector store.
type Retriever struct {
	store         vector.Store
	graph         Graph
	ranker        *XAlgoRanker
	feedSize      int
	mode          string
	maxConcurrent int

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithGraph supplies the follow graph used by x_algo ranking.
func WithGraph(graph Graph) Option {
	return func(r *Retriever) {
		r.graph = graph
	}
}

// WithMaxConcurrent bounds the workers used by AddPosts.
func WithMaxConcurrent(n int) Option {
	return func(r *Retriever) {
		if n > 0 {
			r.maxConcurrent = n
		}
	}
}

// NewRetriever creates a feed retriever over the given store.
func NewRetriever(store vector.Store, cfg *config.RAGConfig, opts ...Option) (*Retriever, error) {
	if store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("rag config is nil")
	}

	retriever := &Retriever{
		store:         store,
		feedSize:      cfg.FeedSize,
		mode:          cfg.Mode,
		maxConcurrent: 4,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if retriever.feedSize == 0 {
		retriever.feedSize = 5
	}
	// ranking.mode selects the reranking pipeline; x_algo there overrides
	// the plain retrieval mode as the default feed path.
	if cfg.Ranking.Mode == config.FeedModeXAlgo {
		retriever.mode = config.FeedModeXAlgo
	}
	if retriever.mode == "" {
		retriever.mode = config.FeedModePreference
	}

	for _, opt := range opts {
		opt(retriever)
	}

	retriever.ranker = NewXAlgoRanker(&cfg.Ranking, retriever.graph)
	return retriever, nil
}

// AddPost indexes a single post.
func (r *Retriever) AddPost(ctx context.Context, post *social.Post) error {
	if post == nil {
		return fmt.Errorf("post is nil")
	}

	err := r.store.Upsert(ctx,
		[]string{post.ID},
		[]string{post.Text},
		[]map[string]interface{}{post.ToMetadata()})
	if err != nil {
		return fmt.Errorf("failed to index post %s: %w", post.ID, err)
	}
	return nil
}

// AddPosts bulk-indexes posts in chunks with bounded concurrency.
func (r *Retriever) AddPosts(ctx context.Context, posts []*social.Post) error {
	if len(posts) == 0 {
		return nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.maxConcurrent)

	for start := 0; start < len(posts); start += bulkChunkSize {
		end := start + bulkChunkSize
		if end > len(posts) {
			end = len(posts)
		}
		chunk := posts[start:end]

		group.Go(func() error {
			ids := make([]string, len(chunk))
			documents := make([]string, len(chunk))
			metadatas := make([]map[string]interface{}, len(chunk))
			for i, post := range chunk {
				ids[i] = post.ID
				documents[i] = post.Text
				metadatas[i] = post.ToMetadata()
			}
			if err := r.store.Upsert(groupCtx, ids, documents, metadatas); err != nil {
				return fmt.Errorf("failed to index posts %d-%d: %w", start, end-1, err)
			}
			return nil
		})
	}

	return group.Wait()
}

// GetFeed retrieves a feed for the viewer. An empty mode falls back to the
// configured default. Every mode fails with ErrEmptyCollection when nothing
// is indexed.
func (r *Retriever) GetFeed(ctx context.Context, viewer *Viewer, mode string) ([]*social.Post, error) {
	if mode == "" {
		mode = r.mode
	}

	count, err := r.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}
	if count == 0 {
		return nil, ErrEmptyCollection
	}

	switch mode {
	case config.FeedModePreference:
		return r.preferenceFeed(ctx, viewer)
	case config.FeedModeRandom:
		return r.randomFeed(ctx)
	case config.FeedModeXAlgo:
		return r.xAlgoFeed(ctx, viewer)
	default:
		return nil, fmt.Errorf("unknown feed mode %q", mode)
	}
}

// Count returns the number of indexed posts.
func (r *Retriever) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}

// Clear removes every indexed post.
func (r *Retriever) Clear(ctx context.Context) error {
	return r.store.Clear(ctx)
}

func (r *Retriever) preferenceFeed(ctx context.Context, viewer *Viewer) ([]*social.Post, error) {
	if viewer == nil || len(viewer.Interests) == 0 {
		return nil, ErrMissingInterests
	}

	queryText := strings.Join(viewer.Interests, " ")
	results, err := r.store.Query(ctx, []string{queryText}, r.feedSize,
		[]string{vector.IncludeDocuments, vector.IncludeMetadatas})
	if err != nil {
		return nil, fmt.Errorf("preference query failed: %w", err)
	}

	return queryRowToPosts(results, 0)
}

func (r *Retriever) randomFeed(ctx context.Context) ([]*social.Post, error) {
	all, err := r.store.Get(ctx, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	ids := all.IDs
	sampleSize := r.feedSize
	if sampleSize > len(ids) {
		sampleSize = len(ids)
	}

	r.mu.Lock()
	order := r.rng.Perm(len(ids))
	r.mu.Unlock()

	sampled := make([]string, 0, sampleSize)
	for _, idx := range order[:sampleSize] {
		sampled = append(sampled, ids[idx])
	}

	results, err := r.store.Get(ctx, sampled,
		[]string{vector.IncludeDocuments, vector.IncludeMetadatas})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sampled posts: %w", err)
	}

	return getResultToPosts(results)
}

func (r *Retriever) xAlgoFeed(ctx context.Context, viewer *Viewer) ([]*social.Post, error) {
	candidates, err := r.candidates(ctx, viewer)
	if err != nil {
		return nil, err
	}

	viewerID := ""
	if viewer != nil {
		viewerID = viewer.ID
	}
	return r.ranker.Rank(viewerID, candidates, r.feedSize), nil
}

// candidates gathers the scored pool for x_algo ranking. With interests
// available the pool is a relevance query sized to the network limits;
// without interests every post is a candidate at neutral relevance.
func (r *Retriever) candidates(ctx context.Context, viewer *Viewer) ([]Candidate, error) {
	if viewer != nil && len(viewer.Interests) > 0 {
		queryText := strings.Join(viewer.Interests, " ")
		results, err := r.store.Query(ctx, []string{queryText}, r.ranker.PoolSize(),
			[]string{vector.IncludeDocuments, vector.IncludeMetadatas, vector.IncludeDistances})
		if err != nil {
			return nil, fmt.Errorf("candidate query failed: %w", err)
		}

		posts, err := queryRowToPosts(results, 0)
		if err != nil {
			return nil, err
		}
		candidates := make([]Candidate, len(posts))
		for i, post := range posts {
			relevance := 1.0
			if len(results.Distances) > 0 && i < len(results.Distances[0]) {
				relevance = 1 - float64(results.Distances[0][i])
			}
			candidates[i] = Candidate{Post: post, Relevance: relevance}
		}
		return candidates, nil
	}

	all, err := r.store.Get(ctx, nil,
		[]string{vector.IncludeDocuments, vector.IncludeMetadatas})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	posts, err := getResultToPosts(all)
	if err != nil {
		return nil, err
	}
	candidates := make([]Candidate, len(posts))
	for i, post := range posts {
		candidates[i] = Candidate{Post: post, Relevance: 1.0}
	}
	return candidates, nil
}

func queryRowToPosts(results *vector.QueryResult, row int) ([]*social.Post, error) {
	if results == nil || row >= len(results.IDs) {
		return nil, nil
	}

	posts := make([]*social.Post, 0, len(results.IDs[row]))
	for i, id := range results.IDs[row] {
		post, err := social.FromStoreResult(id, results.Documents[row][i], results.Metadatas[row][i])
		if err != nil {
			return nil, fmt.Errorf("failed to decode post %s: %w", id, err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func getResultToPosts(results *vector.GetResult) ([]*social.Post, error) {
	if results == nil {
		return nil, nil
	}

	posts := make([]*social.Post, 0, len(results.IDs))
	for i, id := range results.IDs {
		post, err := social.FromStoreResult(id, results.Documents[i], results.Metadatas[i])
		if err != nil {
			return nil, fmt.Errorf("failed to decode post %s: %w", id, err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

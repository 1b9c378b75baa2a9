package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/embedders"
	"github.com/prism-sim/prism/pkg/feed"
	"github.com/prism-sim/prism/pkg/seeds"
	"github.com/prism-sim/prism/pkg/vector"
)

// Indexes a posts seed file into a local Qdrant instance through the real
// embed-and-upsert pipeline, for manually testing the qdrant provider.
// Requires Ollama (for embeddings) and Qdrant running locally.
func main() {
	postsFile := flag.String("posts", "seeds/posts.json", "posts seed file to index")
	collection := flag.String("collection", "posts", "Qdrant collection name")
	host := flag.String("host", "localhost", "Qdrant host")
	port := flag.Int("port", 6334, "Qdrant gRPC port")
	flag.Parse()

	ctx := context.Background()

	posts, err := seeds.LoadPostsFile(*postsFile)
	if err != nil {
		fmt.Printf("Failed to load posts: %v\n", err)
		os.Exit(1)
	}

	embedderConfig := &config.EmbedderConfig{
		Provider:   config.EmbedderProviderOllama,
		Host:       "http://localhost:11434",
		Model:      "nomic-embed-text",
		Timeout:    60,
		MaxRetries: 3,
	}
	embedderConfig.SetDefaults()
	embedder, err := embedders.NewEmbedder(embedderConfig)
	if err != nil {
		fmt.Printf("Failed to create embedder: %v\n", err)
		os.Exit(1)
	}
	defer embedder.Close()

	vectorConfig := &config.VectorConfig{
		Provider:   config.VectorProviderQdrant,
		Collection: *collection,
		Host:       *host,
		Port:       *port,
	}
	store, err := vector.NewStore(vectorConfig, embedder)
	if err != nil {
		fmt.Printf("Failed to create vector store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	retriever, err := feed.NewRetriever(store, &config.RAGConfig{})
	if err != nil {
		fmt.Printf("Failed to create retriever: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("📚 Indexing %d posts into %q...\n", len(posts), *collection)
	if err := retriever.AddPosts(ctx, posts); err != nil {
		fmt.Printf("Error indexing posts: %v\n", err)
		os.Exit(1)
	}

	count, err := store.Count(ctx)
	if err != nil {
		fmt.Printf("Error counting documents: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Collection %q now holds %d documents\n", *collection, count)
}

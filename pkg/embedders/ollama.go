package embedders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/httpclient"
)

// ollamaEmbedMu serializes embedding requests to Ollama. The llama runner
// can crash when it receives concurrent embedding requests, so all calls go
// through this mutex even when callers index in parallel.
var ollamaEmbedMu sync.Mutex

// OllamaEmbedder generates embeddings through a local Ollama server.
type OllamaEmbedder struct {
	config     *config.EmbedderConfig
	httpClient *httpclient.Client
	baseURL    string
}

// OllamaEmbeddingRequest is the request body for the Ollama embeddings API.
type OllamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// OllamaEmbeddingResponse is the response body from the Ollama embeddings API.
type OllamaEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// NewOllamaEmbedder creates an Ollama embedder from configuration.
func NewOllamaEmbedder(cfg *config.EmbedderConfig) (*OllamaEmbedder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	baseURL := cfg.Host
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	client := httpclient.New(
		httpclient.WithTimeout(time.Duration(cfg.Timeout) * time.Second),
		httpclient.WithHeaderParser(httpclient.ParseOllamaHeaders),
	)

	return &OllamaEmbedder{
		config:     cfg,
		httpClient: client,
		baseURL:    baseURL,
	}, nil
}

// Embed generates an embedding for a single document.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ollamaEmbedMu.Lock()
	defer ollamaEmbedMu.Unlock()

	body, err := json.Marshal(OllamaEmbeddingRequest{
		Model:  e.config.Model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < e.maxAttempts(); attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, attempt); err != nil {
				return nil, err
			}
			slog.Debug("Retrying Ollama embedding request",
				"attempt", attempt+1,
				"model", e.config.Model)
		}

		embedding, err := e.makeRequest(ctx, body)
		if err == nil {
			return embedding, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	slog.Error("Ollama embedding request failed",
		"model", e.config.Model,
		"attempts", e.maxAttempts(),
		"error", lastErr)
	return nil, fmt.Errorf("embedding failed after %d attempts: %w", e.maxAttempts(), lastErr)
}

// EmbedBatch generates embeddings one document at a time. The Ollama
// embeddings API accepts a single prompt per call.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed document %d: %w", i, err)
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

func (e *OllamaEmbedder) makeRequest(ctx context.Context, body []byte) ([]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			respBody, readErr := io.ReadAll(resp.Body)
			if readErr == nil {
				var errResp OllamaEmbeddingResponse
				if jsonErr := json.Unmarshal(respBody, &errResp); jsonErr == nil && errResp.Error != "" {
					return nil, fmt.Errorf("ollama API error: %s", errResp.Error)
				}
			}
		}
		return nil, err
	}
	defer resp.Body.Close()

	var result OllamaEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("ollama API error: %s", result.Error)
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding")
	}
	return result.Embedding, nil
}

func (e *OllamaEmbedder) maxAttempts() int {
	if e.config.MaxRetries < 1 {
		return 1
	}
	return e.config.MaxRetries
}

// GetDimension returns the configured embedding dimension.
func (e *OllamaEmbedder) GetDimension() int {
	return e.config.Dimension
}

// GetModelName returns the embedding model name.
func (e *OllamaEmbedder) GetModelName() string {
	return e.config.Model
}

// Close releases resources held by the embedder.
func (e *OllamaEmbedder) Close() error {
	return nil
}

// sleepBackoff waits 2^(attempt-1) seconds before the given retry attempt,
// returning early if the context is cancelled.
func sleepBackoff(ctx context.Context, attempt int) error {
	backoff := time.Duration(1<<(attempt-1)) * time.Second
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(backoff):
		return nil
	}
}

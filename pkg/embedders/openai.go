package embedders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/httpclient"
)

// openaiEmbedBatchSize caps the number of documents sent per embeddings
// request. The API accepts larger batches; this keeps request bodies small.
const openaiEmbedBatchSize = 100

// OpenAIEmbedder generates embeddings through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	config     *config.EmbedderConfig
	httpClient *httpclient.Client
	baseURL    string
}

// OpenAIEmbeddingRequest is the request body for the embeddings endpoint.
type OpenAIEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// OpenAIEmbeddingData is a single embedding in the response.
type OpenAIEmbeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// OpenAIEmbeddingUsage reports token consumption for an embeddings request.
type OpenAIEmbeddingUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// OpenAIEmbeddingResponse is the response body from the embeddings endpoint.
type OpenAIEmbeddingResponse struct {
	Data  []OpenAIEmbeddingData `json:"data"`
	Model string                `json:"model"`
	Usage OpenAIEmbeddingUsage  `json:"usage"`
}

// OpenAIEmbeddingError is the error envelope returned on failed requests.
type OpenAIEmbeddingError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// NewOpenAIEmbedder creates an OpenAI embedder from configuration.
func NewOpenAIEmbedder(cfg *config.EmbedderConfig) (*OpenAIEmbedder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api_key is required for the openai embedder")
	}

	baseURL := cfg.Host
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	client := httpclient.New(
		httpclient.WithTimeout(time.Duration(cfg.Timeout) * time.Second),
		httpclient.WithHeaderParser(httpclient.ParseOpenAIHeaders),
	)

	return &OpenAIEmbedder{
		config:     cfg,
		httpClient: client,
		baseURL:    baseURL,
	}, nil
}

// Embed generates an embedding for a single document.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.embedChunk(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for a list of documents. Large inputs are
// split into chunks; the result preserves input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += openaiEmbedBatchSize {
		end := start + openaiEmbedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk, err := e.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed documents %d-%d: %w", start, end-1, err)
		}
		embeddings = append(embeddings, chunk...)
	}
	return embeddings, nil
}

func (e *OpenAIEmbedder) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(OpenAIEmbeddingRequest{
		Model: e.config.Model,
		Input: texts,
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
			slog.Debug("Retrying OpenAI embedding request",
				"attempt", attempt+1,
				"model", e.config.Model,
				"documents", len(texts))
		}

		embeddings, err := e.makeRequest(ctx, body, len(texts))
		if err == nil {
			return embeddings, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	slog.Error("OpenAI embedding request failed",
		"model", e.config.Model,
		"attempts", e.maxAttempts(),
		"error", lastErr)
	return nil, fmt.Errorf("embedding failed after %d attempts: %w", e.maxAttempts(), lastErr)
}

func (e *OpenAIEmbedder) makeRequest(ctx context.Context, body []byte, expected int) ([][]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.config.APIKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			respBody, readErr := io.ReadAll(resp.Body)
			if readErr == nil {
				var errResp OpenAIEmbeddingError
				if jsonErr := json.Unmarshal(respBody, &errResp); jsonErr == nil && errResp.Error.Message != "" {
					return nil, fmt.Errorf("openai API error: %s (type: %s, code: %s)",
						errResp.Error.Message, errResp.Error.Type, errResp.Error.Code)
				}
			}
		}
		return nil, err
	}
	defer resp.Body.Close()

	var result OpenAIEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(result.Data) != expected {
		return nil, fmt.Errorf("openai returned %d embeddings for %d documents",
			len(result.Data), expected)
	}

	// The API may return entries out of order; index restores input order.
	sort.Slice(result.Data, func(i, j int) bool {
		return result.Data[i].Index < result.Data[j].Index
	})

	embeddings := make([][]float32, len(result.Data))
	for i, data := range result.Data {
		if len(data.Embedding) == 0 {
			return nil, fmt.Errorf("openai returned an empty embedding at index %d", data.Index)
		}
		embeddings[i] = data.Embedding
	}
	return embeddings, nil
}

func (e *OpenAIEmbedder) maxAttempts() int {
	if e.config.MaxRetries < 1 {
		return 1
	}
	return e.config.MaxRetries
}

// GetDimension returns the configured embedding dimension.
func (e *OpenAIEmbedder) GetDimension() int {
	return e.config.Dimension
}

// GetModelName returns the embedding model name.
func (e *OpenAIEmbedder) GetModelName() string {
	return e.config.Model
}

// Close releases resources held by the embedder.
func (e *OpenAIEmbedder) Close() error {
	return nil
}

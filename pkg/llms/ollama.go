package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/httpclient"
	"github.com/prism-sim/prism/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type OllamaProvider struct {
	config     *config.LLMConfig
	httpClient *httpclient.Client
	baseURL    string
}

type OllamaRequest struct {
	Model    string          `json:"model"`
	Messages []OllamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   interface{}     `json:"format,omitempty"` // "json" string or schema object
	Options  *OllamaOptions  `json:"options,omitempty"`
}

type OllamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type OllamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens
	Seed        *int    `json:"seed,omitempty"`
}

type OllamaResponse struct {
	Model           string        `json:"model"`
	CreatedAt       string        `json:"created_at"`
	Message         OllamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
	Error           string        `json:"error,omitempty"`
}

func NewOllamaProvider(cfg *config.LLMConfig) (*OllamaProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	baseURL := cfg.Host
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &OllamaProvider{
		config:     cfg,
		httpClient: createHTTPClient(cfg, httpclient.ParseOllamaHeaders),
		baseURL:    baseURL,
	}, nil
}

func (p *OllamaProvider) Generate(ctx context.Context, instructions, prompt string, opts *GenerateOptions) (*Response, error) {
	startTime := time.Now()

	tracer := observability.GetTracer("prism.llm")
	ctx, span := tracer.Start(ctx, observability.SpanLLMRequest,
		trace.WithAttributes(
			attribute.String(observability.AttrLLMModel, p.config.ModelID),
			attribute.String("provider", "ollama"),
		),
	)
	defer span.End()

	request := p.buildRequest(instructions, prompt, opts)

	response, err := p.makeRequest(ctx, request)
	duration := time.Since(startTime)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		metrics := observability.GetGlobalMetrics()
		if metrics != nil {
			metrics.RecordLLMCall(ctx, p.config.ModelID, duration, 0, 0, err)
		}

		return nil, err
	}

	if response.Error != "" {
		apiErr := fmt.Errorf("ollama API error: %s", response.Error)
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, response.Error)

		metrics := observability.GetGlobalMetrics()
		if metrics != nil {
			metrics.RecordLLMCall(ctx, p.config.ModelID, duration, 0, 0, apiErr)
		}

		return nil, apiErr
	}

	resp := &Response{
		Text:             response.Message.Content,
		PromptTokens:     response.PromptEvalCount,
		CompletionTokens: response.EvalCount,
	}
	attachStructured(resp, opts)

	span.SetAttributes(
		attribute.Int(observability.AttrLLMTokensInput, resp.PromptTokens),
		attribute.Int(observability.AttrLLMTokensOutput, resp.CompletionTokens),
	)
	span.SetStatus(codes.Ok, "success")

	metrics := observability.GetGlobalMetrics()
	if metrics != nil {
		metrics.RecordLLMCall(ctx, p.config.ModelID, duration, resp.PromptTokens, resp.CompletionTokens, nil)
	}

	return resp, nil
}

func (p *OllamaProvider) GetModelName() string {
	return p.config.ModelID
}

func (p *OllamaProvider) GetMaxTokens() int {
	return p.config.MaxTokens
}

func (p *OllamaProvider) GetTemperature() float64 {
	if p.config.Temperature == nil {
		return 0.7
	}
	return *p.config.Temperature
}

func (p *OllamaProvider) Close() error {
	return nil
}

func (p *OllamaProvider) buildRequest(instructions, prompt string, opts *GenerateOptions) OllamaRequest {
	messages := make([]OllamaMessage, 0, 3)

	if instructions != "" {
		messages = append(messages, OllamaMessage{Role: "system", Content: instructions})
	}
	// Models follow an inline schema description far more reliably than the
	// format field alone.
	if opts != nil && opts.Schema != nil {
		if schemaPrompt := buildSchemaInstructions(opts.Schema); schemaPrompt != "" {
			messages = append(messages, OllamaMessage{Role: "system", Content: schemaPrompt})
		}
	}
	messages = append(messages, OllamaMessage{Role: "user", Content: prompt})

	request := OllamaRequest{
		Model:    p.config.ModelID,
		Messages: messages,
		Stream:   false,
	}

	ollamaOpts := &OllamaOptions{
		Temperature: resolveTemperature(p.config, opts),
		NumPredict:  resolveMaxTokens(p.config, opts),
		Seed:        resolveSeed(p.config, opts),
	}
	if ollamaOpts.Temperature > 0 || ollamaOpts.NumPredict > 0 || ollamaOpts.Seed != nil {
		request.Options = ollamaOpts
	}

	if opts != nil && opts.ResponseFormat == FormatJSON {
		if opts.Schema != nil {
			// Ollama accepts both the "json" string and a schema object
			request.Format = opts.Schema
		} else {
			request.Format = "json"
		}
	}

	return request
}

func (p *OllamaProvider) makeRequest(ctx context.Context, request OllamaRequest) (*OllamaResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	// The HTTP client may return both a response and an error for non-2xx
	// status codes, so inspect the body before giving up.
	if resp != nil {
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			body, readErr := io.ReadAll(resp.Body)
			errorBody := string(body)
			if readErr != nil {
				errorBody = fmt.Sprintf("(failed to read error body: %v)", readErr)
			}
			var errorJSON struct {
				Error string `json:"error"`
			}
			if json.Unmarshal(body, &errorJSON) == nil && errorJSON.Error != "" {
				return nil, fmt.Errorf("ollama API error: %s", errorJSON.Error)
			}
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, errorBody)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("failed to make request: no response received")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var response OllamaResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &response, nil
}

func buildSchemaInstructions(schema interface{}) string {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return ""
	}

	return fmt.Sprintf(`You must respond with valid JSON matching this exact schema:

%s

Important:
- Output ONLY valid JSON, no other text
- All required fields must be present
- Follow the exact structure specified
- Use correct data types for each field`, string(schemaJSON))
}

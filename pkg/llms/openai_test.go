package llms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prism-sim/prism/pkg/config"
)

func TestNewOpenAIProvider(t *testing.T) {
	cfg := &config.LLMConfig{
		Provider: config.LLMProviderOpenAI,
		ModelID:  "gpt-4o-mini",
		APIKey:   "sk-test",
		Timeout:  30,
	}

	provider, err := NewOpenAIProvider(cfg)
	if err != nil {
		t.Fatalf("NewOpenAIProvider() error = %v, want nil", err)
	}

	if provider.baseURL != "https://api.openai.com/v1" {
		t.Errorf("baseURL = %v, want default OpenAI endpoint", provider.baseURL)
	}
	if provider.GetModelName() != "gpt-4o-mini" {
		t.Errorf("GetModelName() = %v, want gpt-4o-mini", provider.GetModelName())
	}
	if provider.GetTemperature() != 0.7 {
		t.Errorf("GetTemperature() = %v, want default 0.7", provider.GetTemperature())
	}
}

func TestNewOpenAIProvider_NilConfig(t *testing.T) {
	if _, err := NewOpenAIProvider(nil); err == nil {
		t.Error("NewOpenAIProvider(nil) error = nil, want error")
	}
}

func TestOpenAIProvider_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected /chat/completions, got %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Expected bearer auth, got %q", auth)
		}

		var req OpenAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}

		if req.Model != "gpt-4o-mini" {
			t.Errorf("Expected model gpt-4o-mini, got %s", req.Model)
		}
		if req.Temperature != 0.5 {
			t.Errorf("Expected temperature 0.5, got %v", req.Temperature)
		}
		if req.MaxTokens == nil || *req.MaxTokens != 128 {
			t.Errorf("Expected max_tokens 128, got %v", req.MaxTokens)
		}
		if req.Seed == nil || *req.Seed != 7 {
			t.Errorf("Expected seed 7, got %v", req.Seed)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("Unexpected messages: %+v", req.Messages)
		}

		response := OpenAIResponse{
			Choices: []Choice{
				{
					Message:      OpenAIMessage{Role: "assistant", Content: "A quiet feed today."},
					FinishReason: "stop",
				},
			},
			Usage: Usage{PromptTokens: 20, CompletionTokens: 5, TotalTokens: 25},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	cfg := &config.LLMConfig{
		Provider:    config.LLMProviderOpenAI,
		ModelID:     "gpt-4o-mini",
		Host:        server.URL,
		APIKey:      "sk-test",
		Temperature: config.Float64Ptr(0.5),
		MaxTokens:   128,
		Seed:        config.IntPtr(7),
		Timeout:     30,
	}

	provider, err := NewOpenAIProvider(cfg)
	if err != nil {
		t.Fatalf("NewOpenAIProvider() error = %v", err)
	}

	resp, err := provider.Generate(context.Background(), "You are a social media user.", "Describe the feed.", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v, want nil", err)
	}
	if resp.Text != "A quiet feed today." {
		t.Errorf("Generate() text = %q", resp.Text)
	}
	if resp.PromptTokens != 20 || resp.CompletionTokens != 5 {
		t.Errorf("Generate() tokens = %d/%d, want 20/5", resp.PromptTokens, resp.CompletionTokens)
	}
}

func TestOpenAIProvider_Generate_JSONObjectFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req OpenAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}

		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Errorf("Expected response_format json_object, got %+v", req.ResponseFormat)
		}

		response := OpenAIResponse{
			Choices: []Choice{
				{Message: OpenAIMessage{Role: "assistant", Content: `{"choice": "LIKE", "reason": "relevant", "post_id": "p1"}`}},
			},
			Usage: Usage{PromptTokens: 30, CompletionTokens: 12, TotalTokens: 42},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	cfg := &config.LLMConfig{
		Provider: config.LLMProviderOpenAI,
		ModelID:  "gpt-4o-mini",
		Host:     server.URL,
		APIKey:   "sk-test",
		Timeout:  30,
	}

	provider, _ := NewOpenAIProvider(cfg)

	resp, err := provider.Generate(context.Background(), "", "Decide.", &GenerateOptions{ResponseFormat: FormatJSON})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Structured == nil {
		t.Fatal("Structured = nil, want parsed object")
	}
	if resp.Structured["choice"] != "LIKE" {
		t.Errorf("Structured[choice] = %v, want LIKE", resp.Structured["choice"])
	}
}

func TestOpenAIProvider_Generate_JSONSchemaFormat(t *testing.T) {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"choice": map[string]interface{}{"type": "string"},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req OpenAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}

		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_schema" {
			t.Fatalf("Expected response_format json_schema, got %+v", req.ResponseFormat)
		}
		if req.ResponseFormat.JSONSchema == nil || req.ResponseFormat.JSONSchema.Name != "response" {
			t.Errorf("Expected schema name response, got %+v", req.ResponseFormat.JSONSchema)
		}
		if !req.ResponseFormat.JSONSchema.Strict {
			t.Error("Expected strict schema")
		}

		response := OpenAIResponse{
			Choices: []Choice{
				{Message: OpenAIMessage{Role: "assistant", Content: `{"choice": "IGNORE"}`}},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	cfg := &config.LLMConfig{
		Provider: config.LLMProviderOpenAI,
		ModelID:  "gpt-4o-mini",
		Host:     server.URL,
		APIKey:   "sk-test",
		Timeout:  30,
	}

	provider, _ := NewOpenAIProvider(cfg)

	resp, err := provider.Generate(context.Background(), "", "Decide.", &GenerateOptions{
		ResponseFormat: FormatJSON,
		Schema:         schema,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Structured == nil || resp.Structured["choice"] != "IGNORE" {
		t.Errorf("Structured = %v, want choice=IGNORE", resp.Structured)
	}
}

func TestOpenAIProvider_Generate_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Invalid API key", "type": "invalid_request_error", "code": "invalid_api_key"}}`))
	}))
	defer server.Close()

	cfg := &config.LLMConfig{
		Provider: config.LLMProviderOpenAI,
		ModelID:  "gpt-4o-mini",
		Host:     server.URL,
		APIKey:   "sk-bad",
		Timeout:  30,
	}

	provider, _ := NewOpenAIProvider(cfg)

	_, err := provider.Generate(context.Background(), "", "Hello", nil)
	if err == nil {
		t.Fatal("Generate() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "Invalid API key") {
		t.Errorf("Generate() error = %v, want Invalid API key", err)
	}
	if !strings.Contains(err.Error(), "invalid_api_key") {
		t.Errorf("Generate() error = %v, want error code included", err)
	}
}

func TestOpenAIProvider_Generate_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := OpenAIResponse{
			Usage: Usage{PromptTokens: 5, TotalTokens: 5},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	cfg := &config.LLMConfig{
		Provider: config.LLMProviderOpenAI,
		ModelID:  "gpt-4o-mini",
		Host:     server.URL,
		APIKey:   "sk-test",
		Timeout:  30,
	}

	provider, _ := NewOpenAIProvider(cfg)

	_, err := provider.Generate(context.Background(), "", "Hello", nil)
	if err == nil {
		t.Fatal("Generate() error = nil, want no choices error")
	}
	if !strings.Contains(err.Error(), "no response choices") {
		t.Errorf("Generate() error = %v, want no response choices", err)
	}
}

// Package llms provides the chat-completion providers behind social agents
// and the reasoner. Providers share a retrying HTTP client and surface a
// uniform request contract: instructions + prompt + option bag in, text plus
// an optional parsed JSON object out.
package llms

import (
	"context"

	"github.com/prism-sim/prism/pkg/config"
)

// FormatJSON requests a JSON-only response from the provider.
const FormatJSON = "json"

// GenerateOptions is the per-call option bag. Nil or zero fields fall back
// to the provider configuration.
type GenerateOptions struct {
	Temperature    *float64
	MaxTokens      int
	ResponseFormat string
	Schema         interface{}
	Seed           *int
}

// Response carries the model text plus token accounting. Structured holds
// the parsed JSON object when FormatJSON was requested and the text could be
// parsed; callers must handle a nil Structured.
type Response struct {
	Text             string
	Structured       map[string]interface{}
	PromptTokens     int
	CompletionTokens int
}

func (r *Response) TotalTokens() int {
	return r.PromptTokens + r.CompletionTokens
}

// Provider is implemented by chat-completion backends.
type Provider interface {
	Generate(ctx context.Context, instructions, prompt string, opts *GenerateOptions) (*Response, error)

	GetModelName() string

	GetMaxTokens() int

	GetTemperature() float64

	Close() error
}

func resolveTemperature(cfg *config.LLMConfig, opts *GenerateOptions) float64 {
	if opts != nil && opts.Temperature != nil {
		return *opts.Temperature
	}
	if cfg.Temperature != nil {
		return *cfg.Temperature
	}
	return 0.7
}

func resolveMaxTokens(cfg *config.LLMConfig, opts *GenerateOptions) int {
	if opts != nil && opts.MaxTokens > 0 {
		return opts.MaxTokens
	}
	return cfg.MaxTokens
}

func resolveSeed(cfg *config.LLMConfig, opts *GenerateOptions) *int {
	if opts != nil && opts.Seed != nil {
		return opts.Seed
	}
	return cfg.Seed
}

// attachStructured parses the response text into Structured when a JSON
// response was requested. Parse failures leave Structured nil; the caller
// decides whether that is an error.
func attachStructured(resp *Response, opts *GenerateOptions) {
	if resp == nil || opts == nil || opts.ResponseFormat != FormatJSON {
		return
	}
	if parsed, err := ExtractJSON(resp.Text); err == nil {
		resp.Structured = parsed
	}
}

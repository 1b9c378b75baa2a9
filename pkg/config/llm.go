package config

import "fmt"

// LLMProvider identifies the LLM provider type.
type LLMProvider string

const (
	LLMProviderOllama LLMProvider = "ollama"
	LLMProviderOpenAI LLMProvider = "openai"
)

// LLMConfig configures the chat LLM behind agents and the reasoner.
type LLMConfig struct {
	// Provider type (ollama, openai).
	Provider LLMProvider `yaml:"provider,omitempty" json:"provider,omitempty" jsonschema:"title=Provider,description=LLM provider,enum=ollama,enum=openai,default=ollama"`

	// Host is the API endpoint.
	Host string `yaml:"host,omitempty" json:"host,omitempty" jsonschema:"title=Host,description=API endpoint URL"`

	// ModelID is the model identifier.
	ModelID string `yaml:"model_id,omitempty" json:"model_id,omitempty" jsonschema:"title=Model,description=Model identifier"`

	// Temperature for sampling.
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty" jsonschema:"title=Temperature,description=Sampling temperature,minimum=0,maximum=2,default=0.7"`

	// MaxTokens limits response length.
	MaxTokens int `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty" jsonschema:"title=Max Tokens,description=Maximum tokens to generate,minimum=1,default=512"`

	// Timeout is the per-call deadline in seconds.
	Timeout int `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"title=Timeout,description=Request timeout in seconds,minimum=1,default=30"`

	// Seed makes sampling deterministic when the backend supports it.
	Seed *int `yaml:"seed,omitempty" json:"seed,omitempty" jsonschema:"title=Seed,description=Deterministic sampling seed"`

	// APIKey for authentication. Supports ${VAR} expansion.
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty" jsonschema:"title=API Key,description=API key (use ${ENV_VAR})"`

	// MaxPromptTokens truncates feed blocks to fit this budget. 0 disables.
	MaxPromptTokens int `yaml:"max_prompt_tokens,omitempty" json:"max_prompt_tokens,omitempty" jsonschema:"title=Max Prompt Tokens,description=Prompt token budget (0 disables),minimum=0,default=0"`
}

// SetDefaults applies default values.
func (c *LLMConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = LLMProviderOllama
	}
	if c.Host == "" {
		switch c.Provider {
		case LLMProviderOllama:
			c.Host = "http://localhost:11434"
		case LLMProviderOpenAI:
			c.Host = "https://api.openai.com/v1"
		}
	}
	if c.ModelID == "" {
		switch c.Provider {
		case LLMProviderOllama:
			c.ModelID = "mistral"
		case LLMProviderOpenAI:
			c.ModelID = "gpt-4o-mini"
		}
	}
	if c.Temperature == nil {
		c.Temperature = Float64Ptr(0.7)
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 512
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
}

// Validate checks the LLM configuration.
func (c *LLMConfig) Validate() error {
	switch c.Provider {
	case LLMProviderOllama, LLMProviderOpenAI:
	default:
		return fmt.Errorf("invalid provider %q (valid: ollama, openai)", c.Provider)
	}

	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.ModelID == "" {
		return fmt.Errorf("model_id is required")
	}
	if c.Provider == LLMProviderOpenAI && c.APIKey == "" {
		return fmt.Errorf("api_key is required for provider %q", c.Provider)
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", *c.Temperature)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be >= 1, got %d", c.MaxTokens)
	}
	if c.Timeout < 1 {
		return fmt.Errorf("timeout must be >= 1, got %d", c.Timeout)
	}
	if c.MaxPromptTokens < 0 {
		return fmt.Errorf("max_prompt_tokens must be non-negative, got %d", c.MaxPromptTokens)
	}
	return nil
}

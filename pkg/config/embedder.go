package config

import "fmt"

// EmbedderProvider identifies the embedding provider type.
type EmbedderProvider string

const (
	EmbedderProviderOllama EmbedderProvider = "ollama"
	EmbedderProviderOpenAI EmbedderProvider = "openai"
)

// EmbedderConfig configures the embedding model used to index posts and
// run preference queries.
type EmbedderConfig struct {
	// Provider type (ollama, openai).
	Provider EmbedderProvider `yaml:"provider,omitempty" json:"provider,omitempty" jsonschema:"title=Provider,description=Embedding provider,enum=ollama,enum=openai,default=ollama"`

	// Model name.
	Model string `yaml:"model,omitempty" json:"model,omitempty" jsonschema:"title=Model,description=Embedding model name"`

	// Host is the API endpoint.
	Host string `yaml:"host,omitempty" json:"host,omitempty" jsonschema:"title=Host,description=API endpoint URL"`

	// Dimension of produced vectors.
	Dimension int `yaml:"dimension,omitempty" json:"dimension,omitempty" jsonschema:"title=Dimension,description=Embedding vector dimension,minimum=1,default=768"`

	// Timeout is the per-call deadline in seconds.
	Timeout int `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"title=Timeout,description=Request timeout in seconds,minimum=1,default=30"`

	// MaxRetries bounds the exponential backoff on transient failures.
	MaxRetries int `yaml:"max_retries,omitempty" json:"max_retries,omitempty" jsonschema:"title=Max Retries,description=Retry attempts for transient failures,minimum=0,default=3"`

	// APIKey for authentication. Supports ${VAR} expansion.
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty" jsonschema:"title=API Key,description=API key (use ${ENV_VAR})"`
}

// SetDefaults applies default values.
func (c *EmbedderConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = EmbedderProviderOllama
	}
	if c.Model == "" {
		switch c.Provider {
		case EmbedderProviderOllama:
			c.Model = "nomic-embed-text"
		case EmbedderProviderOpenAI:
			c.Model = "text-embedding-3-small"
		}
	}
	if c.Host == "" {
		switch c.Provider {
		case EmbedderProviderOllama:
			c.Host = "http://localhost:11434"
		case EmbedderProviderOpenAI:
			c.Host = "https://api.openai.com/v1"
		}
	}
	if c.Dimension == 0 {
		switch c.Provider {
		case EmbedderProviderOpenAI:
			c.Dimension = 1536
		default:
			c.Dimension = 768
		}
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// Validate checks the embedder configuration.
func (c *EmbedderConfig) Validate() error {
	switch c.Provider {
	case EmbedderProviderOllama, EmbedderProviderOpenAI:
	default:
		return fmt.Errorf("invalid provider %q (valid: ollama, openai)", c.Provider)
	}

	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Provider == EmbedderProviderOpenAI && c.APIKey == "" {
		return fmt.Errorf("api_key is required for provider %q", c.Provider)
	}
	if c.Dimension < 1 {
		return fmt.Errorf("dimension must be >= 1, got %d", c.Dimension)
	}
	if c.Timeout < 1 {
		return fmt.Errorf("timeout must be >= 1, got %d", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative, got %d", c.MaxRetries)
	}
	return nil
}

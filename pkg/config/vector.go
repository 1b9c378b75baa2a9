package config

import "fmt"

// VectorProvider identifies the vector store backend.
type VectorProvider string

const (
	VectorProviderChromem VectorProvider = "chromem"
	VectorProviderQdrant  VectorProvider = "qdrant"
)

// VectorConfig configures the vector store that backs feed retrieval.
type VectorConfig struct {
	// Provider type (chromem, qdrant).
	Provider VectorProvider `yaml:"provider,omitempty" json:"provider,omitempty" jsonschema:"title=Provider,description=Vector store backend,enum=chromem,enum=qdrant,default=chromem"`

	// PersistDir makes the chromem store durable. Empty keeps it in memory.
	PersistDir string `yaml:"persist_dir,omitempty" json:"persist_dir,omitempty" jsonschema:"title=Persist Directory,description=Persistence directory for chromem (empty = ephemeral)"`

	// Collection is the collection name posts are indexed under.
	Collection string `yaml:"collection,omitempty" json:"collection,omitempty" jsonschema:"title=Collection,description=Collection name,default=posts"`

	// Host is the qdrant server hostname.
	Host string `yaml:"host,omitempty" json:"host,omitempty" jsonschema:"title=Host,description=Qdrant server hostname,default=localhost"`

	// Port is the qdrant gRPC port.
	Port int `yaml:"port,omitempty" json:"port,omitempty" jsonschema:"title=Port,description=Qdrant gRPC port,default=6334"`

	// APIKey authenticates against managed qdrant.
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty" jsonschema:"title=API Key,description=Qdrant API key (use ${ENV_VAR})"`
}

// SetDefaults applies default values.
func (c *VectorConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = VectorProviderChromem
	}
	if c.Collection == "" {
		c.Collection = "posts"
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
}

// Validate checks the vector store configuration.
func (c *VectorConfig) Validate() error {
	switch c.Provider {
	case VectorProviderChromem, VectorProviderQdrant:
	default:
		return fmt.Errorf("invalid provider %q (valid: chromem, qdrant)", c.Provider)
	}

	if c.Collection == "" {
		return fmt.Errorf("collection is required")
	}
	if c.Provider == VectorProviderQdrant {
		if c.Host == "" {
			return fmt.Errorf("host is required for qdrant")
		}
		if c.Port < 1 || c.Port > 65535 {
			return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
		}
	}
	return nil
}

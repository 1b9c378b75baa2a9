// Package config defines the PRISM configuration surface: YAML sections with
// per-section defaults and validation, environment expansion, PRISM_*
// overrides, and the shared SQL pool for seed sources.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is the root PRISM configuration.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation,omitempty" json:"simulation,omitempty"`
	RAG        RAGConfig        `yaml:"rag,omitempty" json:"rag,omitempty"`
	LLM        LLMConfig        `yaml:"llm,omitempty" json:"llm,omitempty"`
	Embedder   EmbedderConfig   `yaml:"embedder,omitempty" json:"embedder,omitempty"`
	Vector     VectorConfig     `yaml:"vector,omitempty" json:"vector,omitempty"`
	Seeds      SeedsConfig      `yaml:"seeds,omitempty" json:"seeds,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty" json:"logging,omitempty"`
	Metrics    MetricsConfig    `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	Tracing    TracingConfig    `yaml:"tracing,omitempty" json:"tracing,omitempty"`
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.Simulation.SetDefaults()
	c.RAG.SetDefaults()
	c.LLM.SetDefaults()
	c.Embedder.SetDefaults()
	c.Vector.SetDefaults()
	c.Seeds.SetDefaults()
	c.Logging.SetDefaults()
	c.Metrics.SetDefaults()
	c.Tracing.SetDefaults()
}

// Validate checks every section, wrapping errors with the section name.
func (c *Config) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if err := c.RAG.Validate(); err != nil {
		return fmt.Errorf("rag: %w", err)
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Embedder.Validate(); err != nil {
		return fmt.Errorf("embedder: %w", err)
	}
	if err := c.Vector.Validate(); err != nil {
		return fmt.Errorf("vector: %w", err)
	}
	if err := c.Seeds.Validate(); err != nil {
		return fmt.Errorf("seeds: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := c.Tracing.Validate(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	return nil
}

// Default returns a fully-defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// Load reads, expands, decodes, defaults, and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from raw YAML (or JSON) bytes.
func Parse(data []byte) (*Config, error) {
	rawMap, err := parseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	expanded, _ := ExpandEnvVarsInData(rawMap).(map[string]any)

	cfg := &Config{}
	if err := decodeConfig(expanded, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ApplyEnvOverrides applies PRISM_* environment variables on top of file
// values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PRISM_LLM_ENDPOINT"); v != "" {
		c.LLM.Host = v
	}
	if v := os.Getenv("PRISM_LLM_MODEL"); v != "" {
		c.LLM.ModelID = v
	}
	if v := os.Getenv("PRISM_LLM_TIMEOUT"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			c.LLM.Timeout = seconds
		}
	}
	if v := os.Getenv("PRISM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// parseBytes parses raw bytes into a map. YAML is primary; JSON is accepted
// because it is a YAML subset that some tooling emits.
func parseBytes(data []byte) (map[string]any, error) {
	var result map[string]any

	if err := yaml.Unmarshal(data, &result); err == nil {
		return result, nil
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse as YAML or JSON: %w", err)
	}

	return result, nil
}

// decodeConfig decodes a map into a Config struct using mapstructure.
func decodeConfig(input map[string]any, output *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("failed to decode: %w", err)
	}

	return nil
}

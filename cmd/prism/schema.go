package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/prism-sim/prism/pkg/config"
)

// SchemaCmd generates JSON Schema from the configuration structs, for
// editor completion and config linting. Output goes to stdout so it can be
// redirected.
type SchemaCmd struct {
	// Compact enables compact JSON output (no indentation)
	Compact bool `short:"c" help:"Compact JSON output (no indentation)."`
}

// Run executes the schema generation command.
func (c *SchemaCmd) Run(cli *CLI) error {
	reflector := &jsonschema.Reflector{
		// Disallow additional properties for strict validation
		AllowAdditionalProperties: false,
		// Inline all definitions (no $ref)
		DoNotReference: true,
	}

	schema := reflector.Reflect(&config.Config{})

	schema.ID = "https://prism-sim.github.io/schemas/config.json"
	schema.Title = "PRISM Configuration Schema"
	schema.Description = "Complete configuration schema for PRISM simulations"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	schema.Examples = []interface{}{
		map[string]interface{}{
			"simulation": map[string]interface{}{
				"max_rounds":     20,
				"checkpoint_dir": "checkpoints",
			},
			"llm": map[string]interface{}{
				"provider": "ollama",
				"model_id": "mistral",
			},
			"embedder": map[string]interface{}{
				"provider": "ollama",
				"model":    "nomic-embed-text",
			},
			"vector": map[string]interface{}{
				"provider":    "chromem",
				"persist_dir": ".prism/vectors",
			},
			"seeds": map[string]interface{}{
				"posts_file":  "seeds/posts.json",
				"agents_file": "seeds/agents.json",
			},
		},
	}

	encoder := json.NewEncoder(os.Stdout)
	if !c.Compact {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(schema); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}

	return nil
}

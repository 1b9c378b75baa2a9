package config

import "fmt"

// SimulationConfig controls the round loop, checkpointing, and decision
// logging.
type SimulationConfig struct {
	// MaxRounds is the total number of rounds to run. Resumed runs count
	// toward the same absolute limit.
	MaxRounds int `yaml:"max_rounds,omitempty" json:"max_rounds,omitempty" jsonschema:"title=Max Rounds,description=Number of simulation rounds to run,minimum=1,default=10"`

	// CheckpointFrequency saves a checkpoint every N rounds.
	CheckpointFrequency int `yaml:"checkpoint_frequency,omitempty" json:"checkpoint_frequency,omitempty" jsonschema:"title=Checkpoint Frequency,description=Save a checkpoint every N rounds,minimum=1,default=5"`

	// CheckpointDir is the checkpoint output directory. Empty disables
	// checkpointing.
	CheckpointDir string `yaml:"checkpoint_dir,omitempty" json:"checkpoint_dir,omitempty" jsonschema:"title=Checkpoint Directory,description=Directory for checkpoint files (empty disables)"`

	// LogFile is the decision log JSONL path. Empty disables the file sink.
	LogFile string `yaml:"log_file,omitempty" json:"log_file,omitempty" jsonschema:"title=Decision Log File,description=JSON lines decision log path (empty disables)"`

	// ReasonerEnabled toggles the LLM tiebreaker for ambiguous transitions.
	ReasonerEnabled *bool `yaml:"reasoner_enabled,omitempty" json:"reasoner_enabled,omitempty" jsonschema:"title=Reasoner Enabled,description=Use the LLM reasoner for ambiguous transitions,default=true"`

	// SynthesizeContent toggles LLM post synthesis on compose/reply/reshare
	// turns.
	SynthesizeContent bool `yaml:"synthesize_content,omitempty" json:"synthesize_content,omitempty" jsonschema:"title=Synthesize Content,description=Generate post content for compose/reply/reshare turns,default=false"`

	// MaxHistoryDepth bounds each agent's transition history.
	MaxHistoryDepth int `yaml:"max_history_depth,omitempty" json:"max_history_depth,omitempty" jsonschema:"title=Max History Depth,description=Transition history entries kept per agent,minimum=1,default=100"`
}

// SetDefaults applies default values.
func (c *SimulationConfig) SetDefaults() {
	if c.MaxRounds == 0 {
		c.MaxRounds = 10
	}
	if c.CheckpointFrequency == 0 {
		c.CheckpointFrequency = 5
	}
	if c.ReasonerEnabled == nil {
		c.ReasonerEnabled = BoolPtr(true)
	}
	if c.MaxHistoryDepth == 0 {
		c.MaxHistoryDepth = 100
	}
}

// Validate checks the simulation configuration.
func (c *SimulationConfig) Validate() error {
	if c.MaxRounds < 1 {
		return fmt.Errorf("max_rounds must be >= 1, got %d", c.MaxRounds)
	}
	if c.CheckpointFrequency < 1 {
		return fmt.Errorf("checkpoint_frequency must be >= 1, got %d", c.CheckpointFrequency)
	}
	if c.MaxHistoryDepth < 1 {
		return fmt.Errorf("max_history_depth must be >= 1, got %d", c.MaxHistoryDepth)
	}
	return nil
}

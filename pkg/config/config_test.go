package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Simulation.MaxRounds != 10 {
		t.Errorf("MaxRounds = %d, want 10", cfg.Simulation.MaxRounds)
	}
	if cfg.Simulation.CheckpointFrequency != 5 {
		t.Errorf("CheckpointFrequency = %d, want 5", cfg.Simulation.CheckpointFrequency)
	}
	if !BoolValue(cfg.Simulation.ReasonerEnabled, false) {
		t.Error("ReasonerEnabled should default to true")
	}
	if cfg.Simulation.MaxHistoryDepth != 100 {
		t.Errorf("MaxHistoryDepth = %d, want 100", cfg.Simulation.MaxHistoryDepth)
	}
	if cfg.RAG.FeedSize != 5 {
		t.Errorf("FeedSize = %d, want 5", cfg.RAG.FeedSize)
	}
	if cfg.RAG.Mode != FeedModePreference {
		t.Errorf("Mode = %q, want preference", cfg.RAG.Mode)
	}
	if cfg.LLM.Provider != LLMProviderOllama {
		t.Errorf("LLM provider = %q, want ollama", cfg.LLM.Provider)
	}
	if cfg.LLM.Timeout != 30 {
		t.Errorf("LLM timeout = %d, want 30", cfg.LLM.Timeout)
	}
	if cfg.LLM.MaxTokens != 512 {
		t.Errorf("LLM max_tokens = %d, want 512", cfg.LLM.MaxTokens)
	}
	if *cfg.LLM.Temperature != 0.7 {
		t.Errorf("LLM temperature = %v, want 0.7", *cfg.LLM.Temperature)
	}
	if cfg.Embedder.MaxRetries != 3 {
		t.Errorf("Embedder max_retries = %d, want 3", cfg.Embedder.MaxRetries)
	}
	if cfg.Vector.Provider != VectorProviderChromem {
		t.Errorf("Vector provider = %q, want chromem", cfg.Vector.Provider)
	}
	if cfg.Seeds.MaxConcurrent != 4 {
		t.Errorf("Seeds max_concurrent = %d, want 4", cfg.Seeds.MaxConcurrent)
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Metrics port = %d, want 9090", cfg.Metrics.Port)
	}
	if cfg.Tracing.Exporter != "otlp" {
		t.Errorf("Tracing exporter = %q, want otlp", cfg.Tracing.Exporter)
	}
	if cfg.Tracing.SamplingRate != 1.0 {
		t.Errorf("Tracing sampling_rate = %v, want 1.0", cfg.Tracing.SamplingRate)
	}
}

func TestParse_YAML(t *testing.T) {
	yamlData := `
simulation:
  max_rounds: 20
  checkpoint_frequency: 2
  checkpoint_dir: /tmp/checkpoints
rag:
  feed_size: 10
  mode: random
  ranking:
    mode: x_algo
    out_of_network_scale: 0.5
llm:
  provider: ollama
  model_id: llama3.2
  temperature: 1.2
  seed: 42
`
	cfg, err := Parse([]byte(yamlData))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Simulation.MaxRounds != 20 {
		t.Errorf("MaxRounds = %d, want 20", cfg.Simulation.MaxRounds)
	}
	if cfg.Simulation.CheckpointDir != "/tmp/checkpoints" {
		t.Errorf("CheckpointDir = %q", cfg.Simulation.CheckpointDir)
	}
	if cfg.RAG.FeedSize != 10 {
		t.Errorf("FeedSize = %d, want 10", cfg.RAG.FeedSize)
	}
	if cfg.RAG.Mode != FeedModeRandom {
		t.Errorf("Mode = %q, want random", cfg.RAG.Mode)
	}
	if cfg.RAG.Ranking.Mode != FeedModeXAlgo {
		t.Errorf("Ranking mode = %q, want x_algo", cfg.RAG.Ranking.Mode)
	}
	if *cfg.RAG.Ranking.OutOfNetworkScale != 0.5 {
		t.Errorf("OutOfNetworkScale = %v, want 0.5", *cfg.RAG.Ranking.OutOfNetworkScale)
	}
	// Untouched ranking fields still get defaults.
	if *cfg.RAG.Ranking.ReplyScale != 0.75 {
		t.Errorf("ReplyScale = %v, want default 0.75", *cfg.RAG.Ranking.ReplyScale)
	}
	if cfg.LLM.ModelID != "llama3.2" {
		t.Errorf("ModelID = %q, want llama3.2", cfg.LLM.ModelID)
	}
	if cfg.LLM.Seed == nil || *cfg.LLM.Seed != 42 {
		t.Errorf("Seed = %v, want 42", cfg.LLM.Seed)
	}
}

func TestParse_ExplicitZeroScaleSurvives(t *testing.T) {
	cfg, err := Parse([]byte(`
rag:
  ranking:
    mode: x_algo
    out_of_network_scale: 0.0
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if *cfg.RAG.Ranking.OutOfNetworkScale != 0 {
		t.Errorf("explicit 0.0 was overwritten to %v", *cfg.RAG.Ranking.OutOfNetworkScale)
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("PRISM_TEST_MODEL", "custom-model")

	cfg, err := Parse([]byte("llm:\n  model_id: ${PRISM_TEST_MODEL}\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.LLM.ModelID != "custom-model" {
		t.Errorf("ModelID = %q, want custom-model", cfg.LLM.ModelID)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PRISM_LLM_ENDPOINT", "http://gpu-box:11434")
	t.Setenv("PRISM_LLM_MODEL", "qwen2.5")
	t.Setenv("PRISM_LLM_TIMEOUT", "90")
	t.Setenv("PRISM_LOG_LEVEL", "debug")

	cfg, err := Parse([]byte("llm:\n  model_id: from-file\n  timeout: 10\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.LLM.Host != "http://gpu-box:11434" {
		t.Errorf("Host = %q, want env override", cfg.LLM.Host)
	}
	if cfg.LLM.ModelID != "qwen2.5" {
		t.Errorf("ModelID = %q, want qwen2.5", cfg.LLM.ModelID)
	}
	if cfg.LLM.Timeout != 90 {
		t.Errorf("Timeout = %d, want 90", cfg.LLM.Timeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() should fail for a missing file")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism.yaml")
	if err := os.WriteFile(path, []byte("simulation:\n  max_rounds: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Simulation.MaxRounds != 3 {
		t.Errorf("MaxRounds = %d, want 3", cfg.Simulation.MaxRounds)
	}
}

func TestValidation_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "max_rounds_zero",
			mutate:  func(c *Config) { c.Simulation.MaxRounds = -1 },
			wantErr: "max_rounds",
		},
		{
			name:    "feed_size_too_large",
			mutate:  func(c *Config) { c.RAG.FeedSize = 21 },
			wantErr: "feed_size",
		},
		{
			name:    "feed_size_too_small",
			mutate:  func(c *Config) { c.RAG.FeedSize = -2 },
			wantErr: "feed_size",
		},
		{
			name:    "bad_rag_mode",
			mutate:  func(c *Config) { c.RAG.Mode = "trending" },
			wantErr: "invalid mode",
		},
		{
			name:    "floor_above_decay",
			mutate:  func(c *Config) { c.RAG.Ranking.AuthorDiversityFloor = Float64Ptr(0.9) },
			wantErr: "author_diversity_floor",
		},
		{
			name:    "scale_above_one",
			mutate:  func(c *Config) { c.RAG.Ranking.ReplyScale = Float64Ptr(1.5) },
			wantErr: "reply_scale",
		},
		{
			name:    "bad_llm_provider",
			mutate:  func(c *Config) { c.LLM.Provider = "anthropic" },
			wantErr: "invalid provider",
		},
		{
			name:    "temperature_out_of_range",
			mutate:  func(c *Config) { c.LLM.Temperature = Float64Ptr(2.5) },
			wantErr: "temperature",
		},
		{
			name:    "openai_without_key",
			mutate:  func(c *Config) { c.LLM.Provider = LLMProviderOpenAI },
			wantErr: "api_key",
		},
		{
			name:    "bad_vector_provider",
			mutate:  func(c *Config) { c.Vector.Provider = "pinecone" },
			wantErr: "invalid provider",
		},
		{
			name: "seed_db_without_queries",
			mutate: func(c *Config) {
				c.Seeds.Database = &DatabaseConfig{Driver: "sqlite", DSN: "seed.db"}
			},
			wantErr: "posts_query",
		},
		{
			name:    "bad_log_level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "log level",
		},
		{
			name: "bad_trace_exporter",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "zipkin"
			},
			wantErr: "exporter",
		},
		{
			name: "trace_sampling_out_of_range",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.SamplingRate = 1.2
			},
			wantErr: "sampling_rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestRankingConfig_FloorEqualsDecayAccepted(t *testing.T) {
	cfg := Default()
	cfg.RAG.Ranking.AuthorDiversityDecay = Float64Ptr(0.4)
	cfg.RAG.Ranking.AuthorDiversityFloor = Float64Ptr(0.4)

	if err := cfg.Validate(); err != nil {
		t.Errorf("floor == decay should be accepted: %v", err)
	}
}

func TestDatabaseConfig_DriverName(t *testing.T) {
	tests := []struct {
		driver string
		want   string
	}{
		{"sqlite", "sqlite3"},
		{"sqlite3", "sqlite3"},
		{"postgres", "postgres"},
		{"mysql", "mysql"},
	}

	for _, tt := range tests {
		cfg := DatabaseConfig{Driver: tt.driver}
		if got := cfg.DriverName(); got != tt.want {
			t.Errorf("DriverName(%q) = %q, want %q", tt.driver, got, tt.want)
		}
	}
}

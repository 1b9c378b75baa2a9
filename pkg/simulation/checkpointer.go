package simulation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prism-sim/prism/pkg/social"
	"github.com/prism-sim/prism/pkg/statechart"
)

const checkpointVersion = "1.0"

// UnsupportedVersionError reports a checkpoint written by an incompatible
// format version.
type UnsupportedVersionError struct {
	Version string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported checkpoint version: %s", e.Version)
}

// AgentFactory reconstructs a live agent from its checkpoint snapshot.
type AgentFactory func(snapshot map[string]interface{}) (Agent, error)

// CheckpointData is the JSON shape of a checkpoint file. The statechart and
// reasoner are not serialized; callers supply them again on load.
type CheckpointData struct {
	Version           string                   `json:"version"`
	RoundNumber       int                      `json:"round_number"`
	Posts             []*social.Post           `json:"posts"`
	Agents            []map[string]interface{} `json:"agents"`
	Metrics           EngagementMetrics        `json:"metrics"`
	StateDistribution map[string]int           `json:"state_distribution"`
	Timestamp         string                   `json:"timestamp"`
}

// Checkpointer saves and loads simulation snapshots as JSON files in a
// single directory. Writes go through a temp file and rename so an
// interrupted save cannot leave a torn checkpoint behind.
type Checkpointer struct {
	dir string
}

// NewCheckpointer creates a checkpointer, making the directory if needed.
func NewCheckpointer(dir string) (*Checkpointer, error) {
	if dir == "" {
		return nil, fmt.Errorf("checkpoint directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating checkpoint directory: %w", err)
	}
	return &Checkpointer{dir: dir}, nil
}

// Dir returns the checkpoint directory.
func (c *Checkpointer) Dir() string {
	return c.dir
}

// Save writes a snapshot of the state and returns the checkpoint path.
func (c *Checkpointer) Save(state *State) (string, error) {
	distribution := make(map[string]int)
	for s, count := range state.StateDistribution() {
		distribution[s.String()] = count
	}

	agents := make([]map[string]interface{}, 0, len(state.Agents))
	for _, agent := range state.Agents {
		agents = append(agents, map[string]interface{}{
			"agent_id":             agent.ID(),
			"name":                 agent.Name(),
			"interests":            agent.Interests(),
			"personality":          agent.Personality(),
			"state":                agent.State().String(),
			"ticks_in_state":       agent.TicksInState(),
			"engagement_threshold": agent.EngagementThreshold(),
		})
	}

	data := CheckpointData{
		Version:           checkpointVersion,
		RoundNumber:       state.RoundNumber,
		Posts:             state.Posts,
		Agents:            agents,
		Metrics:           *state.Metrics,
		StateDistribution: distribution,
		Timestamp:         time.Now().UTC().Format(time.RFC3339Nano),
	}

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding checkpoint: %w", err)
	}

	path := filepath.Join(c.dir, checkpointFilename(state.RoundNumber))
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, encoded, 0o644); err != nil {
		return "", fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return "", fmt.Errorf("finalizing checkpoint: %w", err)
	}
	return path, nil
}

// Load rebuilds a simulation state from a checkpoint file. The chart and
// reasoner are injected by the caller. With a nil factory the agent
// snapshots stay raw in State.RawAgents for deferred reconstruction.
func (c *Checkpointer) Load(
	path string,
	chart *statechart.Chart,
	reasoner Reasoner,
	factory AgentFactory,
) (*State, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}

	var data CheckpointData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decoding checkpoint %s: %w", path, err)
	}

	version := data.Version
	if version == "" {
		version = "unknown"
	}
	if version != checkpointVersion {
		return nil, &UnsupportedVersionError{Version: version}
	}

	metrics := data.Metrics
	state := &State{
		Posts:       data.Posts,
		RoundNumber: data.RoundNumber,
		Metrics:     &metrics,
		Chart:       chart,
		Reasoner:    reasoner,
	}

	if factory == nil {
		state.RawAgents = data.Agents
		return state, nil
	}

	agents := make([]Agent, 0, len(data.Agents))
	for _, snapshot := range data.Agents {
		agent, err := factory(snapshot)
		if err != nil {
			return nil, fmt.Errorf("reconstructing agent: %w", err)
		}
		agents = append(agents, agent)
	}
	state.Agents = agents
	return state, nil
}

// LatestCheckpoint returns the newest checkpoint path, or "" when the
// directory holds none. Round numbers are compared numerically so runs
// past round 9999 still resolve correctly.
func (c *Checkpointer) LatestCheckpoint() (string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return "", fmt.Errorf("listing checkpoints: %w", err)
	}

	best := ""
	bestRound := -1
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		round, ok := parseCheckpointRound(entry.Name())
		if !ok {
			continue
		}
		if round > bestRound {
			bestRound = round
			best = filepath.Join(c.dir, entry.Name())
		}
	}
	return best, nil
}

// CheckpointForRound returns the checkpoint path for an exact round, or ""
// when none exists.
func (c *Checkpointer) CheckpointForRound(round int) string {
	path := filepath.Join(c.dir, checkpointFilename(round))
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func checkpointFilename(round int) string {
	return fmt.Sprintf("checkpoint_round_%04d.json", round)
}

func parseCheckpointRound(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "checkpoint_round_")
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, ".json")
	if !ok {
		return 0, false
	}
	round, err := strconv.Atoi(rest)
	if err != nil || round < 0 {
		return 0, false
	}
	return round, true
}

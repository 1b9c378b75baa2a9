package agent

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/statechart"
)

// Snapshot is the restorable slice of an agent carried in checkpoint files.
type Snapshot struct {
	AgentID             string   `json:"agent_id"`
	Name                string   `json:"name"`
	Interests           []string `json:"interests"`
	Personality         string   `json:"personality"`
	State               string   `json:"state"`
	TicksInState        int      `json:"ticks_in_state"`
	EngagementThreshold float64  `json:"engagement_threshold"`
}

// DecodeSnapshot converts a raw checkpoint map into a typed snapshot.
// Weak typing absorbs JSON numbers arriving as float64.
func DecodeSnapshot(raw map[string]interface{}) (*Snapshot, error) {
	var snapshot Snapshot
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &snapshot,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating snapshot decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decoding agent snapshot: %w", err)
	}
	return &snapshot, nil
}

// Profile rebuilds the identity profile from the snapshot.
func (s *Snapshot) Profile() *Profile {
	return &Profile{
		ID:          s.AgentID,
		Name:        s.Name,
		Interests:   s.Interests,
		Personality: s.Personality,
	}
}

// FromSnapshot reconstructs a base agent from a raw checkpoint snapshot.
// Snapshot values win over the corresponding settings fields; the remaining
// settings (timeout threshold, history depth, following) apply as usual.
func FromSnapshot(raw map[string]interface{}, settings Settings) (*BaseAgent, error) {
	snapshot, err := DecodeSnapshot(raw)
	if err != nil {
		return nil, err
	}

	settings.InitialState = ""
	settings.EngagementThreshold = config.Float64Ptr(snapshot.EngagementThreshold)

	restored, err := NewBaseAgent(snapshot.Profile(), settings)
	if err != nil {
		return nil, fmt.Errorf("rebuilding agent %s: %w", snapshot.AgentID, err)
	}
	if err := restored.Restore(statechart.State(snapshot.State), snapshot.TicksInState); err != nil {
		return nil, fmt.Errorf("restoring agent %s: %w", snapshot.AgentID, err)
	}
	return restored, nil
}

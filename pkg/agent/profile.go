// Package agent implements the simulated social-media users: their identity
// profile, behavioural state and transition history, and the LLM-backed
// decision about how to engage with a feed.
package agent

import "fmt"

// Profile is the identity of a simulated user. The JSON form matches the
// agent seed files.
type Profile struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Interests   []string          `json:"interests"`
	Personality string            `json:"personality,omitempty"`
	Stance      map[string]string `json:"stance,omitempty"`
}

// SetDefaults fills optional fields.
func (p *Profile) SetDefaults() {
	if p.Personality == "" {
		p.Personality = "neutral"
	}
}

// Validate checks the profile invariants.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("agent id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("agent name is required")
	}
	if len(p.Interests) == 0 {
		return fmt.Errorf("agent %s needs at least one interest", p.ID)
	}
	return nil
}

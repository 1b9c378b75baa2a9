package agent

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prism-sim/prism/pkg/llms"
)

// Choice is an engagement option an agent can pick for a post.
type Choice string

const (
	ChoiceIgnore  Choice = "IGNORE"
	ChoiceLike    Choice = "LIKE"
	ChoiceReply   Choice = "REPLY"
	ChoiceReshare Choice = "RESHARE"
)

// ParseChoice normalizes raw model output into a Choice.
func ParseChoice(raw string) (Choice, error) {
	choice := Choice(strings.ToUpper(strings.TrimSpace(raw)))
	switch choice {
	case ChoiceIgnore, ChoiceLike, ChoiceReply, ChoiceReshare:
		return choice, nil
	default:
		return "", fmt.Errorf("unknown choice: %s", raw)
	}
}

// Decision is one agent's verdict on one post.
type Decision struct {
	Choice    Choice    `json:"choice"`
	Reason    string    `json:"reason"`
	PostID    string    `json:"post_id"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks internal consistency. Content only makes sense on choices
// that produce a post.
func (d *Decision) Validate() error {
	switch d.Choice {
	case ChoiceIgnore, ChoiceLike, ChoiceReply, ChoiceReshare:
	default:
		return fmt.Errorf("unknown choice: %s", d.Choice)
	}
	if strings.TrimSpace(d.Reason) == "" {
		return fmt.Errorf("decision reason cannot be empty")
	}
	switch d.Choice {
	case ChoiceIgnore, ChoiceLike:
		if d.Content != "" {
			return fmt.Errorf("content cannot be set for %s decisions", d.Choice)
		}
	case ChoiceReply, ChoiceReshare:
		if strings.TrimSpace(d.Content) == "" {
			return fmt.Errorf("content is required for %s decisions", d.Choice)
		}
	}
	return nil
}

// ParseDecisionResponse recovers a Decision from raw model output. A JSON
// object is preferred; a keyword scan covers models that answer in prose.
// fallbackPostID fills in when the response omits post_id.
func ParseDecisionResponse(response, fallbackPostID string) (*Decision, error) {
	obj, err := llms.ExtractJSON(response)
	if err != nil {
		if errors.Is(err, llms.ErrNoJSON) {
			return decisionFromKeywords(response, fallbackPostID)
		}
		return nil, err
	}

	rawChoice, ok := obj["choice"].(string)
	if !ok || strings.TrimSpace(rawChoice) == "" {
		return nil, fmt.Errorf("response missing choice field")
	}
	choice, err := ParseChoice(rawChoice)
	if err != nil {
		return nil, err
	}

	reason := "No reason provided"
	if r, ok := obj["reason"].(string); ok && strings.TrimSpace(r) != "" {
		reason = r
	}

	content := ""
	if c, ok := obj["content"].(string); ok {
		content = c
	}

	postID := fallbackPostID
	if p, ok := obj["post_id"].(string); ok && strings.TrimSpace(p) != "" {
		postID = p
	}
	if postID == "" {
		return nil, fmt.Errorf("response missing post_id field")
	}

	return &Decision{
		Choice:    choice,
		Reason:    reason,
		PostID:    postID,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}, nil
}

// decisionFromKeywords scans prose for a choice keyword. RESHARE and REPLY
// are checked before LIKE so "I'd like to reshare" lands on the action.
func decisionFromKeywords(response, fallbackPostID string) (*Decision, error) {
	upper := strings.ToUpper(response)
	postID := fallbackPostID
	if postID == "" {
		postID = "unknown"
	}

	for _, choice := range []Choice{ChoiceReshare, ChoiceReply, ChoiceLike, ChoiceIgnore} {
		if !strings.Contains(upper, string(choice)) {
			continue
		}
		decision := &Decision{
			Choice:    choice,
			Reason:    "Extracted from unstructured response",
			PostID:    postID,
			Timestamp: time.Now().UTC(),
		}
		if choice == ChoiceReply || choice == ChoiceReshare {
			decision.Content = response
		}
		return decision, nil
	}

	snippet := response
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return nil, fmt.Errorf("could not parse decision from response: %s", snippet)
}

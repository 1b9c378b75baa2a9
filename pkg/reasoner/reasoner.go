// Package reasoner resolves ambiguous statechart transitions. When several
// target states share a trigger the chart cannot pick one on its own; the
// reasoner asks the LLM to choose in character and falls back to the first
// option on any failure.
package reasoner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/prism-sim/prism/pkg/llms"
	"github.com/prism-sim/prism/pkg/statechart"
)

// ErrEmptyOptions is returned when there is nothing to choose from.
var ErrEmptyOptions = errors.New("options cannot be empty")

// StateDescriptions maps each state to the option text shown to the model.
var StateDescriptions = map[statechart.State]string{
	statechart.StateIdle:            "Stop browsing, wait for next round",
	statechart.StateScrolling:       "Continue browsing without engaging",
	statechart.StateEvaluating:      "Look more closely at this post",
	statechart.StateComposing:       "Write a response or original content",
	statechart.StateEngagingLike:    "Like this post",
	statechart.StateEngagingReply:   "Reply to this post",
	statechart.StateEngagingReshare: "Reshare this post",
	statechart.StateResting:         "Take a break from activity",
}

// Agent supplies the identity the prompt speaks as.
type Agent interface {
	Name() string
	Interests() []string
	Personality() string
}

// nextStateResponse is the JSON shape the model is asked for.
type nextStateResponse struct {
	NextState string `json:"next_state" jsonschema:"required,description=Chosen state value"`
}

// StatechartReasoner picks transition targets with the LLM.
type StatechartReasoner struct {
	provider llms.Provider
	schema   *jsonschema.Schema
}

// NewStatechartReasoner creates a reasoner bound to an LLM provider.
func NewStatechartReasoner(provider llms.Provider) (*StatechartReasoner, error) {
	if provider == nil {
		return nil, fmt.Errorf("llm provider is required")
	}

	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}

	return &StatechartReasoner{
		provider: provider,
		schema:   reflector.Reflect(&nextStateResponse{}),
	}, nil
}

// DecideNextState returns the option the model picked. The first option is
// the fallback for every failure except an empty option list.
func (r *StatechartReasoner) DecideNextState(
	ctx context.Context,
	agent Agent,
	currentState statechart.State,
	trigger string,
	options []statechart.State,
	extra map[string]interface{},
) (statechart.State, error) {
	if len(options) == 0 {
		return "", ErrEmptyOptions
	}

	prompt := BuildPrompt(agent, currentState, trigger, options, extra)

	response, err := r.provider.Generate(ctx, "", prompt, &llms.GenerateOptions{
		ResponseFormat: llms.FormatJSON,
		Schema:         r.schema,
	})
	if err != nil {
		slog.Warn("reasoner LLM call failed, using fallback",
			"agent", agent.Name(),
			"fallback", options[0].String(),
			"error", err)
		return options[0], nil
	}

	return r.parseResponse(response.Text, options), nil
}

// BuildPrompt renders the decision prompt. Context entries are sorted by key
// so repeated calls produce identical prompts.
func BuildPrompt(
	agent Agent,
	currentState statechart.State,
	trigger string,
	options []statechart.State,
	extra map[string]interface{},
) string {
	optionLines := make([]string, 0, len(options))
	for _, opt := range options {
		description, ok := StateDescriptions[opt]
		if !ok {
			description = "Unknown state"
		}
		optionLines = append(optionLines, fmt.Sprintf("- %s: %s", opt.String(), description))
	}

	return fmt.Sprintf(`You are %s, a social media user.

Your interests: %s
Your personality: %s

You are in the %q state and received %q event.

%s

Choose your next state from these options:
%s

Respond with JSON only:
{"next_state": "<state_value>"}
`,
		agent.Name(),
		strings.Join(agent.Interests(), ", "),
		agent.Personality(),
		currentState.String(),
		trigger,
		formatContext(extra),
		strings.Join(optionLines, "\n"))
}

func (r *StatechartReasoner) parseResponse(text string, options []statechart.State) statechart.State {
	var parsed nextStateResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		slog.Warn("failed to parse reasoner response, using fallback",
			"fallback", options[0].String(),
			"error", err)
		return options[0]
	}

	value := strings.ToLower(strings.TrimSpace(parsed.NextState))
	for _, opt := range options {
		if opt.String() == value {
			return opt
		}
	}

	slog.Warn("reasoner chose a state outside the options, using fallback",
		"state", value,
		"fallback", options[0].String())
	return options[0]
}

func formatContext(extra map[string]interface{}) string {
	if len(extra) == 0 {
		return ""
	}

	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := []string{"Context:"}
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("  %s: %v", key, extra[key]))
	}
	return strings.Join(lines, "\n")
}

package simulation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prism-sim/prism/pkg/llms"
	"github.com/prism-sim/prism/pkg/social"
)

// Synthesizer produces the actual post text for compose, reply, and reshare
// turns. A nil synthesizer leaves those turns as counter-only actions.
type Synthesizer interface {
	Synthesize(ctx context.Context, agent Agent, action *ActionResult, target *social.Post) (*social.Post, error)
}

// LLMSynthesizer writes posts in the agent's voice through an LLM provider.
type LLMSynthesizer struct {
	provider llms.Provider
}

// NewLLMSynthesizer creates a synthesizer bound to an LLM provider.
func NewLLMSynthesizer(provider llms.Provider) (*LLMSynthesizer, error) {
	if provider == nil {
		return nil, fmt.Errorf("llm provider is required")
	}
	return &LLMSynthesizer{provider: provider}, nil
}

// Synthesize generates one post for the given action. Reply posts carry the
// target as parent; reshares and composes start a new thread.
func (s *LLMSynthesizer) Synthesize(
	ctx context.Context,
	agent Agent,
	action *ActionResult,
	target *social.Post,
) (*social.Post, error) {
	prompt, err := synthesisPrompt(agent, action, target)
	if err != nil {
		return nil, err
	}

	instructions := fmt.Sprintf(
		"You are %s, a social media user.\n\nYour interests: %s\nYour personality: %s\n\nWrite in your own voice. Output only the post text, no quotes or preamble.",
		agent.Name(),
		strings.Join(agent.Interests(), ", "),
		agent.Personality())

	response, err := s.provider.Generate(ctx, instructions, prompt, &llms.GenerateOptions{})
	if err != nil {
		return nil, fmt.Errorf("synthesizing %s content: %w", action.Action, err)
	}

	text := strings.TrimSpace(response.Text)
	if text == "" {
		return nil, fmt.Errorf("synthesizing %s content: empty response", action.Action)
	}

	post := &social.Post{
		ID:        uuid.NewString(),
		AuthorID:  agent.ID(),
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	if action.Action == ActionReply && target != nil {
		post.ParentID = target.ID
	}
	return post, nil
}

func synthesisPrompt(agent Agent, action *ActionResult, target *social.Post) (string, error) {
	switch action.Action {
	case ActionCompose:
		return fmt.Sprintf(
			"Write a short social media post (1-3 sentences) about one of your interests: %s.",
			strings.Join(agent.Interests(), ", ")), nil
	case ActionReply:
		if target == nil {
			return "", fmt.Errorf("reply synthesis requires a target post")
		}
		return fmt.Sprintf(
			"You are replying to this post by %s:\n\n%q\n\nWrite a short conversational reply (1-2 sentences).",
			target.AuthorID, target.Text), nil
	case ActionReshare:
		if target == nil {
			return "", fmt.Errorf("reshare synthesis requires a target post")
		}
		return fmt.Sprintf(
			"You are resharing this post by %s:\n\n%q\n\nWrite a short comment (1 sentence) adding your own perspective.",
			target.AuthorID, target.Text), nil
	default:
		return "", fmt.Errorf("no synthesis for action %q", action.Action)
	}
}

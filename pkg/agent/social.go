package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/llms"
	"github.com/prism-sim/prism/pkg/social"
)

// SocialAgent is a BaseAgent that can look at a feed and pick an engagement
// through an LLM. Decide never fails: any provider or parse trouble degrades
// to an IGNORE decision carrying the error text as its reason.
type SocialAgent struct {
	*BaseAgent

	provider        llms.Provider
	systemPrompt    string
	maxPromptTokens int
	tokens          *llms.TokenCounter
}

// NewSocialAgent wires a profile to an LLM provider. The system prompt is
// rendered once; llmCfg may be nil when no token budget applies.
func NewSocialAgent(profile *Profile, settings Settings, provider llms.Provider, llmCfg *config.LLMConfig) (*SocialAgent, error) {
	base, err := NewBaseAgent(profile, settings)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("llm provider is required")
	}

	agent := &SocialAgent{
		BaseAgent:    base,
		provider:     provider,
		systemPrompt: BuildSystemPrompt(base.Profile()),
	}

	if llmCfg != nil && llmCfg.MaxPromptTokens > 0 {
		agent.maxPromptTokens = llmCfg.MaxPromptTokens
		counter, err := llms.NewTokenCounter(provider.GetModelName())
		if err != nil {
			slog.Warn("token counter unavailable, estimating token counts",
				"agent", base.ID(), "model", provider.GetModelName(), "error", err)
		} else {
			agent.tokens = counter
		}
	}

	return agent, nil
}

// SystemPrompt returns the rendered system prompt.
func (a *SocialAgent) SystemPrompt() string {
	return a.systemPrompt
}

// Decide evaluates the feed and returns the agent's engagement decision.
// The feed may be empty; the decision then targets post id "none".
func (a *SocialAgent) Decide(ctx context.Context, feed []*social.Post) *Decision {
	now := time.Now().UTC()
	feed = a.truncateFeed(feed, now)
	userPrompt := BuildUserPrompt(feed, a.Profile(), now)

	fallbackPostID := "none"
	if len(feed) > 0 {
		fallbackPostID = feed[0].ID
	}

	resp, err := a.provider.Generate(ctx, a.systemPrompt, userPrompt, &llms.GenerateOptions{
		ResponseFormat: llms.FormatJSON,
	})
	if err != nil {
		slog.Warn("llm call failed, agent falls back to ignore",
			"agent", a.ID(), "error", err)
		return a.fallbackDecision(fmt.Sprintf("Decision error: %v", err), fallbackPostID)
	}

	decision, err := ParseDecisionResponse(resp.Text, fallbackPostID)
	if err != nil {
		slog.Warn("agent response could not be parsed, falling back to ignore",
			"agent", a.ID(), "error", err)
		return a.fallbackDecision(fmt.Sprintf("Parse error: %v", err), fallbackPostID)
	}

	if err := decision.Validate(); err != nil {
		slog.Warn("agent decision failed validation, falling back to ignore",
			"agent", a.ID(), "choice", decision.Choice, "error", err)
		return a.fallbackDecision(fmt.Sprintf("Validation error: %v", err), fallbackPostID)
	}

	return decision
}

func (a *SocialAgent) fallbackDecision(reason, postID string) *Decision {
	if postID == "" {
		postID = "none"
	}
	return &Decision{
		Choice:    ChoiceIgnore,
		Reason:    reason,
		PostID:    postID,
		Timestamp: time.Now().UTC(),
	}
}

// truncateFeed drops posts from the tail until the rendered prompt fits the
// token budget. At least one post always survives.
func (a *SocialAgent) truncateFeed(feed []*social.Post, now time.Time) []*social.Post {
	if a.maxPromptTokens <= 0 || len(feed) == 0 {
		return feed
	}

	budget := a.maxPromptTokens - a.countTokens(a.systemPrompt)
	original := len(feed)

	for len(feed) > 1 {
		prompt := BuildUserPrompt(feed, a.Profile(), now)
		if a.countTokens(prompt) <= budget {
			break
		}
		feed = feed[:len(feed)-1]
	}

	if len(feed) < original {
		slog.Debug("feed truncated to fit prompt budget",
			"agent", a.ID(), "posts", len(feed), "dropped", original-len(feed))
	}
	return feed
}

func (a *SocialAgent) countTokens(text string) int {
	if a.tokens != nil {
		return a.tokens.Count(text)
	}
	return llms.EstimateTokens(text)
}

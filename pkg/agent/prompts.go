package agent

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prism-sim/prism/pkg/social"
)

// EmptyFeedPrompt is sent when there is nothing to evaluate. The model is
// told exactly what to answer so the parse stays well-formed.
const EmptyFeedPrompt = "Your feed is empty. Respond with IGNORE and post_id of 'none'."

const systemPromptTemplate = `You are %s, a social media user.

Your interests: %s
Your personality: %s

When shown a feed of posts, you must decide how to engage with ONE post.

Your options are:
- IGNORE: Skip the post (not interesting or relevant)
- LIKE: Show appreciation (agree or find it interesting)
- REPLY: Write a response (want to engage in conversation)
- RESHARE: Share with your followers (valuable content worth amplifying)

You MUST respond in this exact JSON format:
{
    "choice": "IGNORE" | "LIKE" | "REPLY" | "RESHARE",
    "reason": "Brief explanation of why you made this choice",
    "content": "Your reply/reshare comment (null for IGNORE/LIKE)",
    "post_id": "ID of the post you're responding to"
}

Guidelines:
- Be authentic to your personality and interests
- Engage naturally, like a real person would
- For REPLY: Write conversational, engaging responses
- For RESHARE: Add your own perspective or comment
- Only engage with posts relevant to your interests
- You may IGNORE posts that don't interest you
`

// BuildSystemPrompt renders the agent's identity, options, and response
// contract. Stance topics are sorted so the prompt is stable across runs.
func BuildSystemPrompt(profile *Profile) string {
	prompt := fmt.Sprintf(systemPromptTemplate,
		profile.Name,
		strings.Join(profile.Interests, ", "),
		profile.Personality,
	)

	if len(profile.Stance) > 0 {
		topics := make([]string, 0, len(profile.Stance))
		for topic := range profile.Stance {
			topics = append(topics, topic)
		}
		sort.Strings(topics)

		lines := make([]string, 0, len(topics))
		for _, topic := range topics {
			lines = append(lines, fmt.Sprintf("- %s: %s", topic, profile.Stance[topic]))
		}
		prompt += fmt.Sprintf("\nYour positions on topics:\n%s\n", strings.Join(lines, "\n"))
	}

	return prompt
}

// BuildUserPrompt renders the feed for one decision. Posts are numbered from
// one and carry their id so the model can reference them.
func BuildUserPrompt(feed []*social.Post, profile *Profile, now time.Time) string {
	if len(feed) == 0 {
		return EmptyFeedPrompt
	}

	lines := []string{
		fmt.Sprintf("Here is your feed, %s. Choose ONE post to engage with:\n", profile.Name),
	}

	for i, post := range feed {
		lines = append(lines, fmt.Sprintf("--- Post #%d (ID: %s) ---", i+1, post.ID))
		lines = append(lines, post.FormatForPrompt(now))
		lines = append(lines, "")
	}

	lines = append(lines, "Respond with your decision in JSON format.")

	return strings.Join(lines, "\n")
}

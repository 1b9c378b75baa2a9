package simulation

import (
	"context"

	"github.com/prism-sim/prism/pkg/feed"
	"github.com/prism-sim/prism/pkg/social"
)

// FeedSource supplies the posts an agent sees on its turn.
type FeedSource interface {
	Execute(ctx context.Context, agent Agent, state *State) ([]*social.Post, error)
}

// FeedExecutor retrieves an agent's feed through the retriever, using the
// agent's interests and follow graph position.
type FeedExecutor struct {
	retriever *feed.Retriever
}

func NewFeedExecutor(retriever *feed.Retriever) *FeedExecutor {
	return &FeedExecutor{retriever: retriever}
}

func (e *FeedExecutor) Execute(ctx context.Context, agent Agent, _ *State) ([]*social.Post, error) {
	viewer := &feed.Viewer{
		ID:        agent.ID(),
		Interests: agent.Interests(),
	}
	return e.retriever.GetFeed(ctx, viewer, "")
}

var _ FeedSource = (*FeedExecutor)(nil)

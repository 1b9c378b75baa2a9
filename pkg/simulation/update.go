package simulation

import (
	"context"
	"fmt"

	"github.com/prism-sim/prism/pkg/social"
)

// PostIndexer receives posts created during the simulation so later feed
// queries can see them. *feed.Retriever satisfies it.
type PostIndexer interface {
	AddPost(ctx context.Context, post *social.Post) error
}

// StateUpdateExecutor applies a decided action to the shared state: bumps
// engagement counters on target posts and registers newly created posts
// with both the state and the feed index.
type StateUpdateExecutor struct {
	indexer PostIndexer
}

// NewStateUpdateExecutor creates a state update executor that indexes new
// posts through the given indexer.
func NewStateUpdateExecutor(indexer PostIndexer) *StateUpdateExecutor {
	return &StateUpdateExecutor{indexer: indexer}
}

// Execute mutates state according to the decision. A missing target post is
// a no-op; a failed index write is returned because the feed and the state
// would otherwise disagree about which posts exist.
func (e *StateUpdateExecutor) Execute(
	ctx context.Context,
	state *State,
	decision *DecisionResult,
	newPost *social.Post,
) error {
	action := decision.Action
	if action == nil {
		return nil
	}

	switch action.Action {
	case ActionLike:
		e.applyLike(state, action.TargetPostID)
		return nil
	case ActionReply:
		e.bumpReplies(state, action.TargetPostID)
		return e.addPost(ctx, state, newPost)
	case ActionReshare:
		e.bumpReshares(state, action.TargetPostID)
		return e.addPost(ctx, state, newPost)
	case ActionCompose:
		return e.addPost(ctx, state, newPost)
	default:
		return nil
	}
}

func (e *StateUpdateExecutor) applyLike(state *State, targetID string) {
	if targetID == "" {
		return
	}
	if post := state.GetPostByID(targetID); post != nil {
		post.Likes++
		state.Metrics.IncrementLike()
	}
}

func (e *StateUpdateExecutor) bumpReplies(state *State, targetID string) {
	if targetID == "" {
		return
	}
	if post := state.GetPostByID(targetID); post != nil {
		post.Replies++
		state.Metrics.IncrementReply()
	}
}

func (e *StateUpdateExecutor) bumpReshares(state *State, targetID string) {
	if targetID == "" {
		return
	}
	if post := state.GetPostByID(targetID); post != nil {
		post.Reshares++
		state.Metrics.IncrementReshare()
	}
}

func (e *StateUpdateExecutor) addPost(ctx context.Context, state *State, newPost *social.Post) error {
	if newPost == nil {
		return nil
	}
	state.AddPost(newPost)
	if err := e.indexer.AddPost(ctx, newPost); err != nil {
		return fmt.Errorf("indexing post %s: %w", newPost.ID, err)
	}
	return nil
}

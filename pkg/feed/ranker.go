package feed

import (
	"math"
	"sort"

	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/social"
)

// Candidate pairs a post with its retrieval relevance.
type Candidate struct {
	Post      *social.Post
	Relevance float64
}

// XAlgoRanker reorders feed candidates the way timeline mixers do: partition
// by network, scale out-of-network and reply scores down, then decay repeated
// authors so one voice cannot fill the feed.
type XAlgoRanker struct {
	graph             Graph
	outOfNetworkScale float64
	replyScale        float64
	diversityDecay    float64
	diversityFloor    float64
	inNetworkLimit    int
	outOfNetworkLimit int
}

// NewXAlgoRanker creates a ranker. A nil config or nil fields fall back to
// the documented defaults; a nil graph treats every candidate as
// out-of-network.
func NewXAlgoRanker(cfg *config.RankingConfig, graph Graph) *XAlgoRanker {
	ranker := &XAlgoRanker{
		graph:             graph,
		outOfNetworkScale: 0.75,
		replyScale:        0.75,
		diversityDecay:    0.5,
		diversityFloor:    0.25,
		inNetworkLimit:    50,
		outOfNetworkLimit: 50,
	}
	if cfg == nil {
		return ranker
	}

	if cfg.OutOfNetworkScale != nil {
		ranker.outOfNetworkScale = *cfg.OutOfNetworkScale
	}
	if cfg.ReplyScale != nil {
		ranker.replyScale = *cfg.ReplyScale
	}
	if cfg.AuthorDiversityDecay != nil {
		ranker.diversityDecay = *cfg.AuthorDiversityDecay
	}
	if cfg.AuthorDiversityFloor != nil {
		ranker.diversityFloor = *cfg.AuthorDiversityFloor
	}
	if cfg.InNetworkLimit > 0 {
		ranker.inNetworkLimit = cfg.InNetworkLimit
	}
	if cfg.OutOfNetworkLimit > 0 {
		ranker.outOfNetworkLimit = cfg.OutOfNetworkLimit
	}
	return ranker
}

// PoolSize is the number of candidates worth retrieving before ranking.
func (x *XAlgoRanker) PoolSize() int {
	return x.inNetworkLimit + x.outOfNetworkLimit
}

type scoredPost struct {
	post  *social.Post
	score float64
}

// Rank scores the candidates and returns the top posts, at most limit.
// Candidate order is preserved on score ties.
func (x *XAlgoRanker) Rank(viewerID string, candidates []Candidate, limit int) []*social.Post {
	if len(candidates) == 0 || limit < 1 {
		return nil
	}

	var inNetwork, outOfNetwork []scoredPost
	for _, candidate := range candidates {
		if candidate.Post == nil {
			continue
		}
		if x.isInNetwork(viewerID, candidate.Post.AuthorID) {
			if len(inNetwork) < x.inNetworkLimit {
				inNetwork = append(inNetwork, scoredPost{
					post:  candidate.Post,
					score: candidate.Relevance,
				})
			}
			continue
		}
		if len(outOfNetwork) < x.outOfNetworkLimit {
			outOfNetwork = append(outOfNetwork, scoredPost{
				post:  candidate.Post,
				score: candidate.Relevance * x.outOfNetworkScale,
			})
		}
	}

	ranked := make([]scoredPost, 0, len(inNetwork)+len(outOfNetwork))
	ranked = append(ranked, inNetwork...)
	ranked = append(ranked, outOfNetwork...)

	for i := range ranked {
		if ranked[i].post.IsReply() {
			ranked[i].score *= x.replyScale
		}
	}

	sortByScore(ranked)

	// The n-th repeat of an author keeps max(decay^n, floor) of its score;
	// the first occurrence is untouched.
	seen := make(map[string]int, len(ranked))
	for i := range ranked {
		author := ranked[i].post.AuthorID
		repeats := seen[author]
		seen[author] = repeats + 1
		if repeats == 0 {
			continue
		}
		multiplier := math.Pow(x.diversityDecay, float64(repeats))
		if multiplier < x.diversityFloor {
			multiplier = x.diversityFloor
		}
		ranked[i].score *= multiplier
	}

	sortByScore(ranked)

	if limit > len(ranked) {
		limit = len(ranked)
	}
	posts := make([]*social.Post, limit)
	for i := 0; i < limit; i++ {
		posts[i] = ranked[i].post
	}
	return posts
}

func (x *XAlgoRanker) isInNetwork(viewerID, authorID string) bool {
	if x.graph == nil || viewerID == "" {
		return false
	}
	return x.graph.IsFollowing(viewerID, authorID)
}

func sortByScore(posts []scoredPost) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].score > posts[j].score
	})
}

package feed

import (
	"strings"
	"testing"

	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/social"
)

func rankerConfig() *config.RankingConfig {
	cfg := &config.RankingConfig{}
	cfg.SetDefaults()
	return cfg
}

func rankedIDs(posts []*social.Post) string {
	return strings.Join(postIDs(posts), ",")
}

func TestNewXAlgoRanker_Defaults(t *testing.T) {
	ranker := NewXAlgoRanker(nil, nil)
	if got := ranker.PoolSize(); got != 100 {
		t.Errorf("PoolSize() = %d, want 100", got)
	}
}

func TestXAlgoRanker_OutOfNetworkScale(t *testing.T) {
	graph := social.NewSimpleGraph(map[string][]string{"viewer": {"friend"}})
	candidates := []Candidate{
		{Post: feedPost("p2", "stranger", "louder"), Relevance: 0.9},
		{Post: feedPost("p1", "friend", "quieter"), Relevance: 0.8},
	}

	// friend: 0.8, stranger: 0.9 * 0.75 = 0.675.
	ranker := NewXAlgoRanker(rankerConfig(), graph)
	if got := rankedIDs(ranker.Rank("viewer", candidates, 5)); got != "p1,p2" {
		t.Errorf("ranked = %s, want p1,p2", got)
	}

	// Without a graph everything is out-of-network and raw relevance wins.
	ranker = NewXAlgoRanker(rankerConfig(), nil)
	if got := rankedIDs(ranker.Rank("viewer", candidates, 5)); got != "p2,p1" {
		t.Errorf("ranked without graph = %s, want p2,p1", got)
	}
}

func TestXAlgoRanker_ReplyScale(t *testing.T) {
	graph := social.NewSimpleGraph(map[string][]string{"viewer": {"a", "b"}})
	reply := feedPost("p2", "b", "replying")
	reply.ParentID = "p1"
	candidates := []Candidate{
		{Post: reply, Relevance: 1.0},
		{Post: feedPost("p1", "a", "original"), Relevance: 1.0},
	}

	ranker := NewXAlgoRanker(rankerConfig(), graph)
	if got := rankedIDs(ranker.Rank("viewer", candidates, 5)); got != "p1,p2" {
		t.Errorf("ranked = %s, want p1,p2", got)
	}
}

func TestXAlgoRanker_AuthorDiversity(t *testing.T) {
	graph := social.NewSimpleGraph(map[string][]string{"viewer": {"a", "b"}})
	candidates := []Candidate{
		{Post: feedPost("p1", "a", "first"), Relevance: 1.0},
		{Post: feedPost("p2", "a", "second"), Relevance: 1.0},
		{Post: feedPost("p3", "a", "third"), Relevance: 1.0},
		{Post: feedPost("p4", "b", "other voice"), Relevance: 0.55},
	}

	// a: 1.0, 0.5, 0.25; b keeps 0.55 and overtakes a's repeats.
	ranker := NewXAlgoRanker(rankerConfig(), graph)
	if got := rankedIDs(ranker.Rank("viewer", candidates, 5)); got != "p1,p4,p2,p3" {
		t.Errorf("ranked = %s, want p1,p4,p2,p3", got)
	}
}

func TestXAlgoRanker_DiversityFloor(t *testing.T) {
	cfg := rankerConfig()
	cfg.AuthorDiversityFloor = config.Float64Ptr(0.4)
	graph := social.NewSimpleGraph(map[string][]string{"viewer": {"a", "b"}})
	candidates := []Candidate{
		{Post: feedPost("p1", "a", "first"), Relevance: 1.0},
		{Post: feedPost("p2", "a", "second"), Relevance: 1.0},
		{Post: feedPost("p3", "a", "third"), Relevance: 1.0},
		{Post: feedPost("p4", "b", "other"), Relevance: 0.35},
	}

	// The third a-post would decay to 0.25 but the floor holds it at 0.4,
	// above b's 0.35.
	ranker := NewXAlgoRanker(cfg, graph)
	if got := rankedIDs(ranker.Rank("viewer", candidates, 5)); got != "p1,p2,p3,p4" {
		t.Errorf("ranked = %s, want p1,p2,p3,p4", got)
	}
}

func TestXAlgoRanker_NetworkLimits(t *testing.T) {
	cfg := rankerConfig()
	cfg.InNetworkLimit = 1
	cfg.OutOfNetworkLimit = 1
	graph := social.NewSimpleGraph(map[string][]string{"viewer": {"friend"}})
	candidates := []Candidate{
		{Post: feedPost("p1", "friend", "kept"), Relevance: 0.9},
		{Post: feedPost("p2", "friend", "over limit"), Relevance: 0.8},
		{Post: feedPost("p3", "stranger", "kept"), Relevance: 0.7},
		{Post: feedPost("p4", "stranger", "over limit"), Relevance: 0.6},
	}

	ranker := NewXAlgoRanker(cfg, graph)
	if got := rankedIDs(ranker.Rank("viewer", candidates, 10)); got != "p1,p3" {
		t.Errorf("ranked = %s, want p1,p3", got)
	}
}

func TestXAlgoRanker_TruncatesToLimit(t *testing.T) {
	candidates := []Candidate{
		{Post: feedPost("p1", "a", "one"), Relevance: 0.9},
		{Post: feedPost("p2", "b", "two"), Relevance: 0.8},
		{Post: feedPost("p3", "c", "three"), Relevance: 0.7},
		{Post: feedPost("p4", "d", "four"), Relevance: 0.6},
	}

	ranker := NewXAlgoRanker(rankerConfig(), nil)
	if got := rankedIDs(ranker.Rank("viewer", candidates, 2)); got != "p1,p2" {
		t.Errorf("ranked = %s, want p1,p2", got)
	}
}

func TestXAlgoRanker_TieKeepsCandidateOrder(t *testing.T) {
	candidates := []Candidate{
		{Post: feedPost("p1", "x", "first in"), Relevance: 0.8},
		{Post: feedPost("p2", "y", "second in"), Relevance: 0.8},
	}

	ranker := NewXAlgoRanker(rankerConfig(), nil)
	if got := rankedIDs(ranker.Rank("viewer", candidates, 5)); got != "p1,p2" {
		t.Errorf("ranked = %s, want p1,p2", got)
	}
}

func TestXAlgoRanker_Empty(t *testing.T) {
	ranker := NewXAlgoRanker(rankerConfig(), nil)
	if got := ranker.Rank("viewer", nil, 5); got != nil {
		t.Errorf("Rank(nil) = %v, want nil", got)
	}
	candidates := []Candidate{{Post: feedPost("p1", "a", "one"), Relevance: 1.0}}
	if got := ranker.Rank("viewer", candidates, 0); got != nil {
		t.Errorf("Rank(limit 0) = %v, want nil", got)
	}
}

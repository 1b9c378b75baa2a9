package social

import (
	"reflect"
	"testing"
)

func newTestGraph() *SimpleGraph {
	return NewSimpleGraph(map[string][]string{
		"alice": {"bob", "carol"},
		"bob":   {"alice"},
		"carol": {},
	})
}

func TestSimpleGraph_IsFollowing(t *testing.T) {
	graph := newTestGraph()

	if !graph.IsFollowing("alice", "bob") {
		t.Error("alice should follow bob")
	}
	if graph.IsFollowing("bob", "carol") {
		t.Error("bob should not follow carol")
	}
	if graph.IsFollowing("unknown", "bob") {
		t.Error("unknown agent should follow nobody")
	}
}

func TestSimpleGraph_Following(t *testing.T) {
	graph := newTestGraph()

	got := graph.Following("alice")
	want := []string{"bob", "carol"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Following(alice) = %v, want %v", got, want)
	}

	if got := graph.Following("carol"); len(got) != 0 {
		t.Errorf("Following(carol) = %v, want empty", got)
	}
	if got := graph.Following("unknown"); len(got) != 0 {
		t.Errorf("Following(unknown) = %v, want empty", got)
	}
}

func TestSimpleGraph_Followers(t *testing.T) {
	graph := newTestGraph()

	got := graph.Followers("bob")
	want := []string{"alice"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Followers(bob) = %v, want %v", got, want)
	}

	// carol follows nobody but is followed by alice.
	got = graph.Followers("carol")
	want = []string{"alice"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Followers(carol) = %v, want %v", got, want)
	}

	if got := graph.Followers("unknown"); len(got) != 0 {
		t.Errorf("Followers(unknown) = %v, want empty", got)
	}
}

func TestSimpleGraph_Nil(t *testing.T) {
	graph := NewSimpleGraph(nil)

	if graph.IsFollowing("a", "b") {
		t.Error("empty graph should have no edges")
	}
	if got := graph.Following("a"); len(got) != 0 {
		t.Errorf("Following on empty graph = %v", got)
	}
}

package seeds

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/social"
)

const postsJSON = `[
  {"id": "p1", "author_id": "u1", "text": "Transit strike enters day three", "timestamp": "2026-08-01T10:00:00Z", "likes": 3, "replies": 1, "velocity": 0.5},
  {"id": "p2", "author_id": "u2", "text": "Launch day", "timestamp": "2026-08-01T11:30:00.500", "has_media": true, "media_type": "image", "media_description": "rocket on the pad", "reshares": 2}
]`

const agentsJSON = `[
  {"agent_id": "a1", "name": "Alia", "interests": ["transit", "policy"], "personality": "organizer", "stance": {"transit_funding": "support"}, "engagement_threshold": 0, "timeout_threshold": 5, "following": ["a2"]},
  {"agent_id": "a2", "name": "Ben", "interests": ["sports"]}
]`

func writeSeedFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing seed file: %v", err)
	}
	return path
}

func TestLoadPostsFile(t *testing.T) {
	posts, err := LoadPostsFile(writeSeedFile(t, "posts.json", postsJSON))
	if err != nil {
		t.Fatalf("LoadPostsFile() error = %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}

	p1 := posts[0]
	if p1.ID != "p1" || p1.AuthorID != "u1" || p1.Likes != 3 || p1.Velocity != 0.5 {
		t.Errorf("unexpected first post: %+v", p1)
	}
	want := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	if !p1.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", p1.Timestamp, want)
	}

	p2 := posts[1]
	if !p2.HasMedia || p2.MediaType != social.MediaImage {
		t.Errorf("media fields not decoded: %+v", p2)
	}
	wantZoneless := time.Date(2026, 8, 1, 11, 30, 0, 500000000, time.UTC)
	if !p2.Timestamp.Equal(wantZoneless) {
		t.Errorf("zoneless timestamp = %v, want %v", p2.Timestamp, wantZoneless)
	}
}

func TestLoadPostsFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "not_an_array",
			content: `{"id": "p1"}`,
			wantErr: "array",
		},
		{
			name:    "duplicate_id",
			content: `[{"id": "p1", "timestamp": "2026-08-01T10:00:00Z"}, {"id": "p1", "timestamp": "2026-08-01T10:00:00Z"}]`,
			wantErr: "duplicate",
		},
		{
			name:    "missing_id",
			content: `[{"author_id": "u1", "timestamp": "2026-08-01T10:00:00Z"}]`,
			wantErr: "id is required",
		},
		{
			name:    "bad_timestamp",
			content: `[{"id": "p1", "timestamp": "yesterday"}]`,
			wantErr: "timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPostsFile(writeSeedFile(t, "posts.json", tt.content))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadPostsFileMissing(t *testing.T) {
	if _, err := LoadPostsFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadAgentsFile(t *testing.T) {
	agents, err := LoadAgentsFile(writeSeedFile(t, "agents.json", agentsJSON))
	if err != nil {
		t.Fatalf("LoadAgentsFile() error = %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(agents))
	}

	a1 := agents[0]
	if a1.Name != "Alia" || a1.Personality != "organizer" || a1.TimeoutThreshold != 5 {
		t.Errorf("unexpected first agent: %+v", a1)
	}
	if a1.Stance["transit_funding"] != "support" {
		t.Errorf("stance not decoded: %v", a1.Stance)
	}
	if len(a1.Following) != 1 || a1.Following[0] != "a2" {
		t.Errorf("following not decoded: %v", a1.Following)
	}
	if a1.EngagementThreshold == nil || *a1.EngagementThreshold != 0 {
		t.Errorf("explicit zero threshold lost: %v", a1.EngagementThreshold)
	}

	if agents[1].EngagementThreshold != nil {
		t.Errorf("absent threshold should stay nil, got %v", *agents[1].EngagementThreshold)
	}
}

func TestAgentSeedValidate(t *testing.T) {
	tests := []struct {
		name    string
		seed    AgentSeed
		wantErr string
	}{
		{
			name: "valid_minimal",
			seed: AgentSeed{AgentID: "a1", Name: "Alia", Interests: []string{"tech"}},
		},
		{
			name:    "missing_name",
			seed:    AgentSeed{AgentID: "a1", Interests: []string{"tech"}},
			wantErr: "name is required",
		},
		{
			name:    "no_interests",
			seed:    AgentSeed{AgentID: "a1", Name: "Alia"},
			wantErr: "interest",
		},
		{
			name: "threshold_out_of_range",
			seed: AgentSeed{
				AgentID: "a1", Name: "Alia", Interests: []string{"tech"},
				EngagementThreshold: config.Float64Ptr(1.5),
			},
			wantErr: "engagement_threshold",
		},
		{
			name: "negative_timeout",
			seed: AgentSeed{
				AgentID: "a1", Name: "Alia", Interests: []string{"tech"},
				TimeoutThreshold: -1,
			},
			wantErr: "timeout_threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.seed.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestAgentSeedProfileAndSettings(t *testing.T) {
	seed := &AgentSeed{
		AgentID:             "a1",
		Name:                "Sam",
		Interests:           []string{"tech"},
		Personality:         "skeptic",
		Stance:              map[string]string{"ev_mandate": "oppose"},
		EngagementThreshold: config.Float64Ptr(0.3),
		TimeoutThreshold:    4,
		Following:           []string{"a2", "a3"},
	}

	profile := seed.Profile()
	if profile.ID != "a1" || profile.Name != "Sam" || profile.Personality != "skeptic" {
		t.Errorf("unexpected profile: %+v", profile)
	}
	if profile.Stance["ev_mandate"] != "oppose" {
		t.Errorf("stance not carried: %v", profile.Stance)
	}

	settings := seed.Settings()
	if settings.TimeoutThreshold != 4 {
		t.Errorf("TimeoutThreshold = %d, want 4", settings.TimeoutThreshold)
	}
	if settings.EngagementThreshold == nil || *settings.EngagementThreshold != 0.3 {
		t.Errorf("EngagementThreshold = %v, want 0.3", settings.EngagementThreshold)
	}
	if len(settings.Following) != 2 {
		t.Errorf("Following = %v, want 2 entries", settings.Following)
	}
}

func TestMergePosts(t *testing.T) {
	base := []*social.Post{
		{ID: "p1", Text: "db one"},
		{ID: "p2", Text: "db two"},
	}
	override := []*social.Post{
		{ID: "p1", Text: "file one"},
		{ID: "p3", Text: "file three"},
	}

	merged := mergePosts(base, override)
	if len(merged) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(merged))
	}
	if merged[0].ID != "p1" || merged[0].Text != "file one" {
		t.Errorf("override should replace in place, got %+v", merged[0])
	}
	if merged[1].ID != "p2" || merged[2].ID != "p3" {
		t.Errorf("unexpected order: %s, %s", merged[1].ID, merged[2].ID)
	}
}

func TestLoadNilConfig(t *testing.T) {
	set, err := Load(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(set.Posts) != 0 || len(set.Agents) != 0 {
		t.Errorf("expected empty set, got %d posts, %d agents", len(set.Posts), len(set.Agents))
	}
}

func TestLoadFilesOnly(t *testing.T) {
	cfg := &config.SeedsConfig{
		PostsFile:  writeSeedFile(t, "posts.json", postsJSON),
		AgentsFile: writeSeedFile(t, "agents.json", agentsJSON),
	}

	set, err := Load(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(set.Posts) != 2 || len(set.Agents) != 2 {
		t.Errorf("expected 2 posts and 2 agents, got %d and %d", len(set.Posts), len(set.Agents))
	}
}

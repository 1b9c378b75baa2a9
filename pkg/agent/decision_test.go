package agent

import (
	"strings"
	"testing"
)

func TestParseChoice(t *testing.T) {
	tests := []struct {
		raw     string
		want    Choice
		wantErr bool
	}{
		{raw: "LIKE", want: ChoiceLike},
		{raw: "like", want: ChoiceLike},
		{raw: "  Reshare \n", want: ChoiceReshare},
		{raw: "IGNORE", want: ChoiceIgnore},
		{raw: "REPLY", want: ChoiceReply},
		{raw: "MAYBE", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseChoice(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseChoice(%q) error = nil, want error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseChoice(%q) error = %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseChoice(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestDecisionValidate(t *testing.T) {
	tests := []struct {
		name     string
		decision Decision
		wantErr  string
	}{
		{
			name:     "valid like",
			decision: Decision{Choice: ChoiceLike, Reason: "relevant", PostID: "p1"},
		},
		{
			name:     "valid reply",
			decision: Decision{Choice: ChoiceReply, Reason: "want to chat", PostID: "p1", Content: "great point"},
		},
		{
			name:     "valid ignore",
			decision: Decision{Choice: ChoiceIgnore, Reason: "not my topic", PostID: "p1"},
		},
		{
			name:     "unknown choice",
			decision: Decision{Choice: "SUBSCRIBE", Reason: "x", PostID: "p1"},
			wantErr:  "unknown choice",
		},
		{
			name:     "empty reason",
			decision: Decision{Choice: ChoiceLike, Reason: "  ", PostID: "p1"},
			wantErr:  "reason cannot be empty",
		},
		{
			name:     "content on like",
			decision: Decision{Choice: ChoiceLike, Reason: "x", PostID: "p1", Content: "nice"},
			wantErr:  "content cannot be set",
		},
		{
			name:     "content on ignore",
			decision: Decision{Choice: ChoiceIgnore, Reason: "x", PostID: "p1", Content: "meh"},
			wantErr:  "content cannot be set",
		},
		{
			name:     "reply without content",
			decision: Decision{Choice: ChoiceReply, Reason: "x", PostID: "p1"},
			wantErr:  "content is required",
		},
		{
			name:     "reshare with blank content",
			decision: Decision{Choice: ChoiceReshare, Reason: "x", PostID: "p1", Content: "   "},
			wantErr:  "content is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decision.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseDecisionResponse_JSON(t *testing.T) {
	response := `{"choice": "REPLY", "reason": "hot take", "content": "disagree, here is why", "post_id": "p42"}`

	decision, err := ParseDecisionResponse(response, "p1")
	if err != nil {
		t.Fatalf("ParseDecisionResponse() error = %v", err)
	}
	if decision.Choice != ChoiceReply {
		t.Errorf("Choice = %s, want REPLY", decision.Choice)
	}
	if decision.Reason != "hot take" {
		t.Errorf("Reason = %q, want %q", decision.Reason, "hot take")
	}
	if decision.Content != "disagree, here is why" {
		t.Errorf("Content = %q", decision.Content)
	}
	if decision.PostID != "p42" {
		t.Errorf("PostID = %q, want p42", decision.PostID)
	}
	if decision.Timestamp.IsZero() {
		t.Error("Timestamp is zero")
	}
}

func TestParseDecisionResponse_FencedJSON(t *testing.T) {
	response := "Here is my decision:\n```json\n{\"choice\": \"LIKE\", \"reason\": \"on topic\", \"post_id\": \"p9\"}\n```"

	decision, err := ParseDecisionResponse(response, "p1")
	if err != nil {
		t.Fatalf("ParseDecisionResponse() error = %v", err)
	}
	if decision.Choice != ChoiceLike || decision.PostID != "p9" {
		t.Errorf("got %s/%s, want LIKE/p9", decision.Choice, decision.PostID)
	}
}

func TestParseDecisionResponse_NormalizesChoice(t *testing.T) {
	decision, err := ParseDecisionResponse(`{"choice": "like", "post_id": "p1"}`, "")
	if err != nil {
		t.Fatalf("ParseDecisionResponse() error = %v", err)
	}
	if decision.Choice != ChoiceLike {
		t.Errorf("Choice = %s, want LIKE", decision.Choice)
	}
}

func TestParseDecisionResponse_ReasonDefault(t *testing.T) {
	decision, err := ParseDecisionResponse(`{"choice": "IGNORE", "reason": "", "post_id": "p1"}`, "")
	if err != nil {
		t.Fatalf("ParseDecisionResponse() error = %v", err)
	}
	if decision.Reason != "No reason provided" {
		t.Errorf("Reason = %q, want default", decision.Reason)
	}
}

func TestParseDecisionResponse_NullContent(t *testing.T) {
	decision, err := ParseDecisionResponse(`{"choice": "LIKE", "content": null, "post_id": "p1"}`, "")
	if err != nil {
		t.Fatalf("ParseDecisionResponse() error = %v", err)
	}
	if decision.Content != "" {
		t.Errorf("Content = %q, want empty for null", decision.Content)
	}
}

func TestParseDecisionResponse_PostIDFallback(t *testing.T) {
	decision, err := ParseDecisionResponse(`{"choice": "LIKE", "reason": "x"}`, "p7")
	if err != nil {
		t.Fatalf("ParseDecisionResponse() error = %v", err)
	}
	if decision.PostID != "p7" {
		t.Errorf("PostID = %q, want fallback p7", decision.PostID)
	}

	_, err = ParseDecisionResponse(`{"choice": "LIKE", "reason": "x"}`, "")
	if err == nil || !strings.Contains(err.Error(), "post_id") {
		t.Errorf("error = %v, want missing post_id", err)
	}
}

func TestParseDecisionResponse_MissingChoice(t *testing.T) {
	_, err := ParseDecisionResponse(`{"reason": "x", "post_id": "p1"}`, "p1")
	if err == nil || !strings.Contains(err.Error(), "choice") {
		t.Errorf("error = %v, want missing choice", err)
	}
}

func TestParseDecisionResponse_UnknownChoice(t *testing.T) {
	_, err := ParseDecisionResponse(`{"choice": "SNOOZE", "post_id": "p1"}`, "p1")
	if err == nil || !strings.Contains(err.Error(), "unknown choice") {
		t.Errorf("error = %v, want unknown choice", err)
	}
}

func TestParseDecisionResponse_KeywordScan(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		fallback    string
		wantChoice  Choice
		wantPostID  string
		wantContent bool
	}{
		{
			name:        "reshare in prose",
			response:    "I would definitely reshare this with my followers!",
			fallback:    "p3",
			wantChoice:  ChoiceReshare,
			wantPostID:  "p3",
			wantContent: true,
		},
		{
			name:       "reply beats like",
			response:   "I like it, so I will reply to the author.",
			fallback:   "p3",
			wantChoice: ChoiceReply,
			wantPostID: "p3",
			// content carries the whole response
			wantContent: true,
		},
		{
			name:       "plain like",
			response:   "Just a like from me.",
			fallback:   "p3",
			wantChoice: ChoiceLike,
			wantPostID: "p3",
		},
		{
			name:       "ignore without fallback",
			response:   "Ignore, nothing here for me.",
			wantChoice: ChoiceIgnore,
			wantPostID: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := ParseDecisionResponse(tt.response, tt.fallback)
			if err != nil {
				t.Fatalf("ParseDecisionResponse() error = %v", err)
			}
			if decision.Choice != tt.wantChoice {
				t.Errorf("Choice = %s, want %s", decision.Choice, tt.wantChoice)
			}
			if decision.PostID != tt.wantPostID {
				t.Errorf("PostID = %q, want %q", decision.PostID, tt.wantPostID)
			}
			if decision.Reason != "Extracted from unstructured response" {
				t.Errorf("Reason = %q", decision.Reason)
			}
			if tt.wantContent && decision.Content != tt.response {
				t.Errorf("Content = %q, want full response", decision.Content)
			}
			if !tt.wantContent && decision.Content != "" {
				t.Errorf("Content = %q, want empty", decision.Content)
			}
		})
	}
}

func TestParseDecisionResponse_Unparseable(t *testing.T) {
	response := strings.Repeat("no decision here. ", 20)

	_, err := ParseDecisionResponse(response, "p1")
	if err == nil {
		t.Fatal("ParseDecisionResponse() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "could not parse decision") {
		t.Errorf("error = %v", err)
	}
	if len(err.Error()) > len("could not parse decision from response: ")+200 {
		t.Errorf("error snippet not truncated: %d chars", len(err.Error()))
	}
}

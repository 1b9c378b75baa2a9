package llms

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantKey string
		wantVal interface{}
		wantErr bool
	}{
		{
			name:    "pure object",
			text:    `{"next_state": "scrolling"}`,
			wantKey: "next_state",
			wantVal: "scrolling",
		},
		{
			name:    "surrounding whitespace",
			text:    "  \n {\"choice\": \"LIKE\"} \n ",
			wantKey: "choice",
			wantVal: "LIKE",
		},
		{
			name:    "fenced json block",
			text:    "Here you go:\n```json\n{\"choice\": \"REPLY\"}\n```",
			wantKey: "choice",
			wantVal: "REPLY",
		},
		{
			name:    "fenced block without language",
			text:    "```\n{\"choice\": \"RESHARE\"}\n```",
			wantKey: "choice",
			wantVal: "RESHARE",
		},
		{
			name:    "leading prose",
			text:    `Sure! The answer is {"next_state": "resting"} as requested.`,
			wantKey: "next_state",
			wantVal: "resting",
		},
		{
			name:    "braces inside string value",
			text:    `Result: {"reason": "I love {happy} endings", "choice": "LIKE"}`,
			wantKey: "choice",
			wantVal: "LIKE",
		},
		{
			name:    "escaped quotes inside string",
			text:    `{"reason": "she said \"no\" to me", "choice": "IGNORE"}`,
			wantKey: "choice",
			wantVal: "IGNORE",
		},
		{
			name:    "nested object",
			text:    `prefix {"outer": {"inner": 1}, "choice": "LIKE"} suffix`,
			wantKey: "choice",
			wantVal: "LIKE",
		},
		{
			name:    "empty string",
			text:    "",
			wantErr: true,
		},
		{
			name:    "no json at all",
			text:    "I cannot answer that.",
			wantErr: true,
		},
		{
			name:    "top-level array",
			text:    `["a", "b"]`,
			wantErr: true,
		},
		{
			name:    "bare null",
			text:    "null",
			wantErr: true,
		},
		{
			name:    "unclosed object",
			text:    `{"choice": "LIKE"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.text)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("ExtractJSON() = %v, want error", got)
				}
				if !errors.Is(err, ErrNoJSON) {
					t.Errorf("ExtractJSON() error = %v, want ErrNoJSON", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ExtractJSON() error = %v, want nil", err)
			}
			if got[tt.wantKey] != tt.wantVal {
				t.Errorf("ExtractJSON()[%s] = %v, want %v", tt.wantKey, got[tt.wantKey], tt.wantVal)
			}
		})
	}
}

func TestExtractJSON_NumbersAndBools(t *testing.T) {
	got, err := ExtractJSON(`The post stats: {"likes": 12, "trending": true}`)
	if err != nil {
		t.Fatalf("ExtractJSON() error = %v", err)
	}
	if got["likes"] != float64(12) {
		t.Errorf("likes = %v, want 12", got["likes"])
	}
	if got["trending"] != true {
		t.Errorf("trending = %v, want true", got["trending"])
	}
}

func TestScanBalancedObject(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "plain object",
			text: `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "prose around",
			text: `before {"a": 1} after`,
			want: `{"a": 1}`,
		},
		{
			name: "stops at first balanced span",
			text: `{"a": 1} {"b": 2}`,
			want: `{"a": 1}`,
		},
		{
			name: "brace in string",
			text: `{"a": "}"}`,
			want: `{"a": "}"}`,
		},
		{
			name: "no object",
			text: "nothing here",
			want: "",
		},
		{
			name: "unbalanced",
			text: `{"a": {"b": 1}`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scanBalancedObject(tt.text); got != tt.want {
				t.Errorf("scanBalancedObject() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Package social holds the post model shared by the feed, agents, and the
// simulation, the follow graph used for network-aware ranking, and the feed
// formatting that turns posts into prompt text.
package social

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Media types a post may carry.
const (
	MediaImage = "image"
	MediaVideo = "video"
	MediaGIF   = "gif"
)

// Post is a social media post. Identity fields (id, author, text, timestamp)
// never change after creation; the engagement counters are mutated by the
// state-update executor as agents react.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`

	HasMedia         bool   `json:"has_media"`
	MediaType        string `json:"media_type,omitempty"`
	MediaDescription string `json:"media_description,omitempty"`

	// ParentID links a reply to the post it answers.
	ParentID string `json:"parent_id,omitempty"`

	Likes    int     `json:"likes"`
	Reshares int     `json:"reshares"`
	Replies  int     `json:"replies"`
	Velocity float64 `json:"velocity"`
}

// Validate checks the post invariants.
func (p *Post) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("post id is required")
	}
	if p.MediaType != "" && !p.HasMedia {
		return fmt.Errorf("media_type cannot be set when has_media is false")
	}
	if p.HasMedia {
		switch p.MediaType {
		case MediaImage, MediaVideo, MediaGIF:
		case "":
			return fmt.Errorf("media_type is required when has_media is true")
		default:
			return fmt.Errorf("invalid media_type %q (valid: image, video, gif)", p.MediaType)
		}
	}
	if p.Likes < 0 {
		return fmt.Errorf("likes must be >= 0, got %d", p.Likes)
	}
	if p.Reshares < 0 {
		return fmt.Errorf("reshares must be >= 0, got %d", p.Reshares)
	}
	if p.Replies < 0 {
		return fmt.Errorf("replies must be >= 0, got %d", p.Replies)
	}
	if p.Velocity < 0 {
		return fmt.Errorf("velocity must be >= 0, got %v", p.Velocity)
	}
	return nil
}

// EngagementCount returns the total engagement across all counters.
func (p *Post) EngagementCount() int {
	return p.Likes + p.Reshares + p.Replies
}

// IsReply reports whether the post answers another post.
func (p *Post) IsReply() bool {
	return p.ParentID != ""
}

// ToMetadata converts the post into the metadata stored alongside its text
// in the vector store. Id and text are carried separately by the store.
func (p *Post) ToMetadata() map[string]interface{} {
	return map[string]interface{}{
		"author_id":         p.AuthorID,
		"timestamp":         p.Timestamp.Format(time.RFC3339Nano),
		"has_media":         p.HasMedia,
		"media_type":        p.MediaType,
		"media_description": p.MediaDescription,
		"parent_id":         p.ParentID,
		"likes":             p.Likes,
		"reshares":          p.Reshares,
		"replies":           p.Replies,
		"velocity":          p.Velocity,
	}
}

// FromStoreResult rebuilds a post from a vector store row. Metadata values
// arrive typed from qdrant but as strings after a chromem reload, so every
// field is coerced.
func FromStoreResult(id, document string, metadata map[string]interface{}) (*Post, error) {
	timestamp, err := ParseTimestamp(metaString(metadata, "timestamp"))
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", id, err)
	}

	post := &Post{
		ID:               id,
		AuthorID:         metaString(metadata, "author_id"),
		Text:             document,
		Timestamp:        timestamp,
		HasMedia:         metaBool(metadata, "has_media"),
		MediaType:        metaString(metadata, "media_type"),
		MediaDescription: metaString(metadata, "media_description"),
		ParentID:         metaString(metadata, "parent_id"),
		Likes:            metaInt(metadata, "likes"),
		Reshares:         metaInt(metadata, "reshares"),
		Replies:          metaInt(metadata, "replies"),
		Velocity:         metaFloat(metadata, "velocity"),
	}
	return post, nil
}

// FormatForPrompt renders the post for a direct agent decision prompt, with
// media and engagement lines.
func (p *Post) FormatForPrompt(now time.Time) string {
	lines := []string{`"` + p.Text + `"`}

	if p.HasMedia && p.MediaDescription != "" {
		emoji := mediaEmoji(p.MediaType)
		lines = append(lines, fmt.Sprintf("[%s %s: %s]",
			emoji, strings.ToUpper(p.MediaType), p.MediaDescription))
	}

	lines = append(lines, fmt.Sprintf("❤️ %d | 🔁 %d | 💬 %d | %s",
		p.Likes, p.Reshares, p.Replies, p.timeAgo(now)))

	return strings.Join(lines, "\n")
}

func mediaEmoji(mediaType string) string {
	switch mediaType {
	case MediaImage:
		return "📷"
	case MediaVideo:
		return "🎬"
	case MediaGIF:
		return "🎞️"
	default:
		return "📎"
	}
}

// timeAgo renders coarse relative time for decision prompts. Unlike the feed
// formatter it has no "just now" or week buckets.
func (p *Post) timeAgo(now time.Time) string {
	delta := now.Sub(p.Timestamp)
	hours := delta.Hours()

	if hours < 1 {
		return fmt.Sprintf("%dm ago", int(delta.Minutes()))
	}
	if hours < 24 {
		return fmt.Sprintf("%dh ago", int(hours))
	}
	return fmt.Sprintf("%dd ago", int(hours/24))
}

// Timestamps written by this process are RFC 3339; seed sources may carry
// ISO-8601 without a zone, or SQL DATETIME text.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses a post timestamp in any accepted layout.
func ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("timestamp is missing")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}

func metaString(metadata map[string]interface{}, key string) string {
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}

func metaBool(metadata map[string]interface{}, key string) bool {
	switch v := metadata[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		return err == nil && b
	}
	return false
}

func metaInt(metadata map[string]interface{}, key string) int {
	switch v := metadata[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

func metaFloat(metadata map[string]interface{}, key string) float64 {
	switch v := metadata[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}

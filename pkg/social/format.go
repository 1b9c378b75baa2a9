package social

import (
	"fmt"
	"strings"
	"time"
)

// Media labels used in feed rendering.
var mediaLabels = map[string]string{
	MediaImage: "IMAGE:",
	MediaVideo: "VIDEO:",
	MediaGIF:   "GIF:",
}

// FormatRelativeTime renders a timestamp relative to now, e.g. "5m ago",
// "3h ago", "2d ago".
func FormatRelativeTime(timestamp, now time.Time) string {
	totalSeconds := int(now.Sub(timestamp).Seconds())

	if totalSeconds < 60 {
		return "just now"
	}

	minutes := totalSeconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}

	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}

	days := hours / 24
	if days < 7 {
		return fmt.Sprintf("%dd ago", days)
	}

	weeks := days / 7
	return fmt.Sprintf("%dw ago", weeks)
}

// FormatFeed renders posts for agent prompt consumption: numbered, quoted
// text, media indicator, and an engagement line.
//
// Example output:
//
//	Post #1:
//	"Just mass adoption starting? My local coffee shop now accepts Bitcoin!"
//	[IMAGE: Photo of a coffee shop counter with a Bitcoin payment terminal]
//	89 | 34 | 12 | 3h ago
func FormatFeed(posts []*Post, now time.Time) string {
	if len(posts) == 0 {
		return ""
	}

	formatted := make([]string, 0, len(posts))
	for i, post := range posts {
		lines := []string{
			fmt.Sprintf("Post #%d:", i+1),
			`"` + post.Text + `"`,
		}

		if post.HasMedia && post.MediaType != "" {
			label, ok := mediaLabels[post.MediaType]
			if !ok {
				label = "MEDIA:"
			}
			description := post.MediaDescription
			if description == "" {
				description = "No description"
			}
			lines = append(lines, fmt.Sprintf("[%s %s]", label, description))
		}

		lines = append(lines, fmt.Sprintf("%d | %d | %d | %s",
			post.Likes, post.Reshares, post.Replies,
			FormatRelativeTime(post.Timestamp, now)))

		formatted = append(formatted, strings.Join(lines, "\n"))
	}

	return strings.Join(formatted, "\n\n")
}

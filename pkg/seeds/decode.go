package seeds

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/prism-sim/prism/pkg/social"
)

// timestampHook parses string timestamps in any layout social accepts,
// covering zone-less exports that time.Time's own JSON decoding rejects.
func timestampHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(time.Time{}) || from.Kind() != reflect.String {
		return data, nil
	}
	return social.ParseTimestamp(data.(string))
}

func newSeedDecoder(result interface{}) (*mapstructure.Decoder, error) {
	return mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           result,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			timestampHook,
		),
	})
}

// decodePosts converts raw seed rows into validated posts. Order is
// preserved; a duplicate id within one source is an authoring error.
func decodePosts(rows []map[string]interface{}) ([]*social.Post, error) {
	posts := make([]*social.Post, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i, row := range rows {
		post := &social.Post{}
		decoder, err := newSeedDecoder(post)
		if err != nil {
			return nil, fmt.Errorf("creating post decoder: %w", err)
		}
		if err := decoder.Decode(row); err != nil {
			return nil, fmt.Errorf("post %d: %w", i, err)
		}
		if err := post.Validate(); err != nil {
			return nil, fmt.Errorf("post %d: %w", i, err)
		}
		if _, dup := seen[post.ID]; dup {
			return nil, fmt.Errorf("post %d: duplicate id %q", i, post.ID)
		}
		seen[post.ID] = struct{}{}
		posts = append(posts, post)
	}
	return posts, nil
}

func decodeAgents(rows []map[string]interface{}) ([]*AgentSeed, error) {
	agents := make([]*AgentSeed, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i, row := range rows {
		seed := &AgentSeed{}
		decoder, err := newSeedDecoder(seed)
		if err != nil {
			return nil, fmt.Errorf("creating agent decoder: %w", err)
		}
		if err := decoder.Decode(row); err != nil {
			return nil, fmt.Errorf("agent %d: %w", i, err)
		}
		if err := seed.Validate(); err != nil {
			return nil, fmt.Errorf("agent %d: %w", i, err)
		}
		if _, dup := seen[seed.AgentID]; dup {
			return nil, fmt.Errorf("agent %d: duplicate id %q", i, seed.AgentID)
		}
		seen[seed.AgentID] = struct{}{}
		agents = append(agents, seed)
	}
	return agents, nil
}

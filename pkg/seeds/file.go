package seeds

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/prism-sim/prism/pkg/social"
)

// LoadPostsFile reads a JSON array of posts in the checkpoint wire shape.
func LoadPostsFile(path string) ([]*social.Post, error) {
	rows, err := readJSONArray(path)
	if err != nil {
		return nil, err
	}
	posts, err := decodePosts(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return posts, nil
}

// LoadAgentsFile reads a JSON array of agent seeds.
func LoadAgentsFile(path string) ([]*AgentSeed, error) {
	rows, err := readJSONArray(path)
	if err != nil {
		return nil, err
	}
	agents, err := decodeAgents(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return agents, nil
}

func readJSONArray(path string) ([]map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%s: expected a JSON array of objects: %w", path, err)
	}
	return rows, nil
}

package llms

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when no JSON object can be recovered from a response.
var ErrNoJSON = errors.New("no JSON object found in response")

var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON recovers a JSON object from raw model output. Models wrap JSON
// in prose, code fences, or trailing commentary even when asked not to; the
// layers run strictest first:
//
//  1. the whole trimmed text
//  2. the first fenced code block
//  3. a balanced-brace scan from the first "{" (string-escape aware)
//  4. the span from the first "{" to the last "}"
func ExtractJSON(text string) (map[string]interface{}, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrNoJSON
	}

	if obj, ok := tryParseObject(trimmed); ok {
		return obj, nil
	}

	if m := fencedBlockPattern.FindStringSubmatch(trimmed); m != nil {
		if obj, ok := tryParseObject(strings.TrimSpace(m[1])); ok {
			return obj, nil
		}
	}

	if candidate := scanBalancedObject(trimmed); candidate != "" {
		if obj, ok := tryParseObject(candidate); ok {
			return obj, nil
		}
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		if obj, ok := tryParseObject(trimmed[start : end+1]); ok {
			return obj, nil
		}
	}

	return nil, ErrNoJSON
}

func tryParseObject(s string) (map[string]interface{}, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	// "null" unmarshals without error
	if obj == nil {
		return nil, false
	}
	return obj, true
}

// scanBalancedObject returns the first balanced {...} span. String literals
// are tracked so braces inside values do not skew the depth count.
func scanBalancedObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}

	return ""
}

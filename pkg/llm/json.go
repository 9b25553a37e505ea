package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// reasoningPrefix strips a leading chain-of-thought block some models emit
// before their answer.
var reasoningPrefix = regexp.MustCompile(`(?s)^\s*<think>.*?</think>\s*`)

// ExtractJSON pulls the first JSON object or array out of a model response,
// tolerating surrounding prose, markdown fences, and reasoning prefixes.
func ExtractJSON(response string) (string, error) {
	cleaned := reasoningPrefix.ReplaceAllString(response, "")

	// Try each delimiter in order of appearance; prose like "[1] see
	// below" can precede the real payload.
	for _, start := range delimiterOffsets(cleaned) {
		if candidate, ok := scanBalanced(cleaned[start:]); ok && json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	// The whole response may already be bare JSON (a string or number
	// payload has no bracket to anchor on).
	trimmed := strings.TrimSpace(cleaned)
	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	return "", fmt.Errorf("no valid JSON found in response")
}

// delimiterOffsets returns the positions of the first '{' and first '[',
// earliest first, omitting whichever is absent.
func delimiterOffsets(s string) []int {
	obj := strings.IndexByte(s, '{')
	arr := strings.IndexByte(s, '[')
	switch {
	case obj < 0 && arr < 0:
		return nil
	case obj < 0:
		return []int{arr}
	case arr < 0:
		return []int{obj}
	case obj < arr:
		return []int{obj, arr}
	default:
		return []int{arr, obj}
	}
}

// scanBalanced reads a balanced JSON value from the start of s, tracking
// string literals and escapes so brackets inside strings don't count.
func scanBalanced(s string) (string, bool) {
	open := s[0]
	var closing byte = '}'
	if open == '[' {
		closing = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == closing:
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// ParseJSONResponse extracts the JSON payload from a model response and
// unmarshals it into T.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	payload, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return result, nil
}

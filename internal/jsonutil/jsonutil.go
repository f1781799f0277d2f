// Package jsonutil decodes JSON out of model responses that may be wrapped
// in markdown code fences or surrounded by prose.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripFences removes a leading ```json (or bare ```) fence and its closing
// fence. Text without fences passes through unchanged.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}

	end := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	return strings.Join(lines[1:end], "\n")
}

// extract returns the first JSON object or array embedded in text.
func extract(text string) (string, error) {
	text = strings.TrimSpace(text)

	start := -1
	var closer byte
	for i := 0; i < len(text); i++ {
		if text[i] == '{' {
			start, closer = i, '}'
			break
		}
		if text[i] == '[' {
			start, closer = i, ']'
			break
		}
	}
	if start == -1 {
		return "", fmt.Errorf("no JSON content found")
	}

	end := strings.LastIndexByte(text, closer)
	if end <= start {
		return "", fmt.Errorf("no closing %c found", closer)
	}
	return text[start : end+1], nil
}

// Decode strips fences from a raw model response, extracts the embedded JSON
// object or array, and unmarshals it into T.
func Decode[T any](raw string) (T, error) {
	var zero T

	jsonStr, err := extract(stripFences(raw))
	if err != nil {
		return zero, fmt.Errorf("%w (raw length: %d)", err, len(raw))
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		preview := jsonStr
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return zero, fmt.Errorf("invalid JSON: %w (text: %s)", err, preview)
	}
	return result, nil
}

// Package jsonutil extracts JSON from model responses and renders JSON for
// export. Responses requested with a JSON MIME type are usually bare JSON,
// but some models still wrap them in markdown code fences.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a response contains no JSON object or array.
var ErrNoJSON = errors.New("no JSON content found")

// StripMarkdownFences removes ```json ... ``` or ``` ... ``` wrapping.
// Text without an opening fence is returned trimmed but otherwise as is.
func StripMarkdownFences(text string) string {
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

// ExtractJSON returns the span from the first { or [ to the last matching
// closing delimiter.
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)

	objIdx := strings.Index(text, "{")
	arrIdx := strings.Index(text, "[")
	if objIdx == -1 && arrIdx == -1 {
		return "", ErrNoJSON
	}

	start, closing := objIdx, "}"
	if objIdx == -1 || (arrIdx != -1 && arrIdx < objIdx) {
		start, closing = arrIdx, "]"
	}

	text = text[start:]
	end := strings.LastIndex(text, closing)
	if end == -1 {
		return "", fmt.Errorf("no closing %s found", closing)
	}
	return text[:end+1], nil
}

// Decode strips fences, extracts the JSON payload and unmarshals it into T.
// Trailing data after the payload is rejected.
func Decode[T any](raw string) (T, error) {
	var zero T

	payload, err := ExtractJSON(StripMarkdownFences(raw))
	if err != nil {
		return zero, fmt.Errorf("%w (raw length: %d)", err, len(raw))
	}

	dec := json.NewDecoder(strings.NewReader(payload))
	var out T
	if err := dec.Decode(&out); err != nil {
		return zero, fmt.Errorf("invalid JSON: %w (text: %s)", err, Preview(payload, 200))
	}
	if dec.More() {
		return zero, fmt.Errorf("invalid JSON: trailing data after value (text: %s)", Preview(payload, 200))
	}
	return out, nil
}

// MarshalPretty renders v as two-space indented JSON with a trailing
// newline. HTML characters are left unescaped since the output is a file.
func MarshalPretty(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Preview truncates s to maxLen bytes, appending "..." when truncated.
func Preview(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

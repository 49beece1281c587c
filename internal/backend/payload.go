// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var codeFenceRe = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)\\s*```")

// stripCodeFences removes the first Markdown code fence block, returning its
// inner text. Text without fences passes through unchanged.
func stripCodeFences(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}
	if m := codeFenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// ExtractJSONPayload locates a JSON value inside a noisy model response.
// It strips code fences and a leading BOM, then scans for the first '[' or
// '{' from which one complete JSON value decodes; the first offset that
// parses to completion wins. Trailing prose after the value is ignored.
func ExtractJSONPayload(text string) (string, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(stripCodeFences(text)), "\uFEFF")
	if cleaned == "" {
		return "", fmt.Errorf("%w: empty response text", ErrParse)
	}

	for i := 0; i < len(cleaned); i++ {
		if cleaned[i] != '[' && cleaned[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(cleaned[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			continue
		}
		return cleaned[i : i+int(dec.InputOffset())], nil
	}

	return "", fmt.Errorf("%w: no decodable JSON in response (%s)", ErrParse, summarize(cleaned))
}

// DecodePayload extracts and unmarshals the JSON value in a model response.
func DecodePayload(text string) (any, error) {
	payload, err := ExtractJSONPayload(text)
	if err != nil {
		return nil, err
	}
	var value any
	if err := json.Unmarshal([]byte(payload), &value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return value, nil
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON pulls the first complete JSON object out of raw model
// output.
//
// Description:
//
//	Models frequently wrap structured output in markdown fences or
//	surround it with prose. ExtractJSON strips fences, then scans for
//	the first balanced top-level object, respecting string literals
//	and escape sequences so braces inside strings do not confuse the
//	scan. The extracted candidate must unmarshal as a JSON object.
//
// Inputs:
//
//	raw - Raw text returned by the model.
//
// Outputs:
//
//	string - The extracted JSON object text.
//	error - Non-nil when no parseable JSON object is present.
func ExtractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("empty response")
	}

	text = stripCodeFences(text)

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if !isJSONObject(candidate) {
					return "", fmt.Errorf("extracted text is not valid JSON")
				}
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in response")
}

// stripCodeFences removes a leading ```json or ``` fence and its
// closing fence, if present.
func stripCodeFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	rest := strings.TrimPrefix(text, "```")
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		rest = rest[idx+1:]
	}
	if idx := strings.LastIndex(rest, "```"); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest)
}

func isJSONObject(candidate string) bool {
	var obj map[string]any
	return json.Unmarshal([]byte(candidate), &obj) == nil
}

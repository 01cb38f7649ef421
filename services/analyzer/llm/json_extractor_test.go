// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"encoding/json"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantErr   bool
		wantField string
		wantValue any
	}{
		{
			name:      "clean JSON",
			input:     `{"matched":true,"tagName":"IS_GOD_CLASS"}`,
			wantErr:   false,
			wantField: "matched",
			wantValue: true,
		},
		{
			name:      "JSON with whitespace",
			input:     `   {"matched":false}   `,
			wantErr:   false,
			wantField: "matched",
			wantValue: false,
		},
		{
			name:      "markdown JSON block",
			input:     "```json\n{\"matched\":true}\n```",
			wantErr:   false,
			wantField: "matched",
			wantValue: true,
		},
		{
			name:      "generic code block",
			input:     "```\n{\"matched\":true}\n```",
			wantErr:   false,
			wantField: "matched",
			wantValue: true,
		},
		{
			name:      "JSON with preamble",
			input:     "Here is my analysis:\n{\"matched\":true}",
			wantErr:   false,
			wantField: "matched",
			wantValue: true,
		},
		{
			name:      "JSON with postamble",
			input:     "{\"matched\":true}\nHope this helps!",
			wantErr:   false,
			wantField: "matched",
			wantValue: true,
		},
		{
			name:      "nested braces in string",
			input:     `{"evidence":"method body {with} braces","matched":true}`,
			wantErr:   false,
			wantField: "matched",
			wantValue: true,
		},
		{
			name:      "escaped quotes in string",
			input:     `{"evidence":"calls \"save\" directly","matched":true}`,
			wantErr:   false,
			wantField: "matched",
			wantValue: true,
		},
		{
			name:      "nested object",
			input:     `{"outer":{"inner":1},"matched":true}`,
			wantErr:   false,
			wantField: "matched",
			wantValue: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			input:   "   \t\n  ",
			wantErr: true,
		},
		{
			name:    "no JSON",
			input:   "I could not evaluate the tags.",
			wantErr: true,
		},
		{
			name:    "unbalanced braces",
			input:   `{"matched":true`,
			wantErr: true,
		},
		{
			name:    "not an object",
			input:   `{this is not json}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var parsed map[string]any
			if err := json.Unmarshal([]byte(got), &parsed); err != nil {
				t.Fatalf("extracted text is not JSON: %v", err)
			}
			if tt.wantField != "" {
				if parsed[tt.wantField] != tt.wantValue {
					t.Errorf("field %s = %v, want %v", tt.wantField, parsed[tt.wantField], tt.wantValue)
				}
			}
		})
	}
}

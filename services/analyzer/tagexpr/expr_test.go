// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tagexpr

import (
	"strings"
	"testing"
)

func TestParse_ValidExpressions(t *testing.T) {
	valid := []string{
		"A",
		"IS_CONTROLLER",
		"A && B",
		"A || B",
		"!A",
		"!!A",
		"A && !B",
		"(A)",
		"(A || B) && C",
		"A && (B || !C) && D",
		"  A   &&\tB ",
		"HAS_SQL_CONCATENATION || USES_STRING_FORMAT_SQL",
		"_LEADING_UNDERSCORE && TAG2",
	}
	for _, expr := range valid {
		if _, err := parse(expr); err != nil {
			t.Errorf("parse(%q) unexpected error: %v", expr, err)
		}
	}
}

func TestParse_InvalidExpressions(t *testing.T) {
	tests := []struct {
		expr    string
		wantMsg string
	}{
		{"", "empty expression"},
		{"   ", "empty expression"},
		{"A &&", "unexpected end"},
		{"&& A", "unexpected token"},
		{"A B", "excess tokens"},
		{"(A", "missing closing parenthesis"},
		{"A)", "excess tokens"},
		{"A & B", "expected '&&'"},
		{"A | B", "expected '||'"},
		{"a && B", "unexpected character"},
		{"A && 1B", "unexpected character"},
		{"A # B", "unexpected character"},
		{"!", "unexpected end"},
		{"()", "unexpected token"},
	}
	for _, tt := range tests {
		_, err := parse(tt.expr)
		if err == nil {
			t.Errorf("parse(%q) expected error, got nil", tt.expr)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantMsg) {
			t.Errorf("parse(%q) error %q does not contain %q", tt.expr, err.Error(), tt.wantMsg)
		}
	}
}

func TestParse_ErrorCarriesPosition(t *testing.T) {
	_, err := parse("AB && c")
	if err == nil {
		t.Fatal("expected error")
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Pos != 6 {
		t.Errorf("Pos = %d, want 6", pe.Pos)
	}
}

func TestTagTokens(t *testing.T) {
	tests := []struct {
		expr string
		want []string
	}{
		{"A && B", []string{"A", "B"}},
		{"A && A", []string{"A"}},
		{"!A || (B && C)", []string{"A", "B", "C"}},
		{"", nil},
		{"IS_CONTROLLER && HAS_TX", []string{"IS_CONTROLLER", "HAS_TX"}},
	}
	for _, tt := range tests {
		got := tagTokens(tt.expr)
		if len(got) != len(tt.want) {
			t.Errorf("tagTokens(%q) = %v, want %v", tt.expr, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("tagTokens(%q)[%d] = %q, want %q", tt.expr, i, got[i], tt.want[i])
			}
		}
	}
}

func TestNodeRequiredTags(t *testing.T) {
	tests := []struct {
		expr string
		want []string
	}{
		{"A", []string{"A"}},
		{"A && B", []string{"A", "B"}},
		{"A || B", nil},
		{"A && !B", []string{"A"}},
		{"!(A && B)", nil},
		{"A && (B || C)", []string{"A"}},
		{"(A && B) || (A && C)", []string{"A"}},
		{"(A || B) && (B || A)", nil},
	}
	for _, tt := range tests {
		root, err := parse(tt.expr)
		if err != nil {
			t.Fatalf("parse(%q): %v", tt.expr, err)
		}
		got := root.requiredTags()
		if len(got) != len(tt.want) {
			t.Errorf("requiredTags(%q) = %v, want %v", tt.expr, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("requiredTags(%q)[%d] = %q, want %q", tt.expr, i, got[i], tt.want[i])
			}
		}
	}
}

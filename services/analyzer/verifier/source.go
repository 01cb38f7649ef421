// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package verifier

import "strings"

// lineOffsets returns the byte offset of the start of each 1-based
// line in source.
func lineOffsets(source string) []int {
	offsets := []int{0}
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// offsetOfLine maps a 1-based line number to a byte offset, clamped
// to the source bounds.
func offsetOfLine(offsets []int, line int) int {
	if line < 1 {
		return 0
	}
	if line > len(offsets) {
		return offsets[len(offsets)-1]
	}
	return offsets[line-1]
}

// matchBrace returns the index of the '}' closing the '{' at openIdx,
// skipping string literals, char literals, and both comment forms.
// Returns -1 when the source ends before the brace closes.
func matchBrace(source string, openIdx int) int {
	depth := 0
	i := openIdx
	for i < len(source) {
		c := source[i]
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		case '"':
			i = skipString(source, i, '"')
			continue
		case '\'':
			i = skipString(source, i, '\'')
			continue
		case '/':
			if i+1 < len(source) {
				if source[i+1] == '/' {
					i = skipLineComment(source, i)
					continue
				}
				if source[i+1] == '*' {
					i = skipBlockComment(source, i)
					continue
				}
			}
		}
		i++
	}
	return -1
}

// skipString advances past a quoted literal starting at idx.
func skipString(source string, idx int, quote byte) int {
	i := idx + 1
	for i < len(source) {
		if source[i] == '\\' {
			i += 2
			continue
		}
		if source[i] == quote {
			return i + 1
		}
		i++
	}
	return i
}

func skipLineComment(source string, idx int) int {
	for idx < len(source) && source[idx] != '\n' {
		idx++
	}
	return idx
}

func skipBlockComment(source string, idx int) int {
	end := strings.Index(source[idx+2:], "*/")
	if end < 0 {
		return len(source)
	}
	return idx + 2 + end + 2
}

// stripComments removes line and block comments from a code fragment.
// String literals are preserved.
func stripComments(code string) string {
	var b strings.Builder
	i := 0
	for i < len(code) {
		c := code[i]
		switch c {
		case '/':
			if i+1 < len(code) {
				if code[i+1] == '/' {
					i = skipLineComment(code, i)
					continue
				}
				if code[i+1] == '*' {
					i = skipBlockComment(code, i)
					continue
				}
			}
		case '"', '\'':
			end := skipString(code, i, c)
			b.WriteString(code[i:end])
			i = end
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

// isBlankBody reports whether a brace-delimited body contains only
// whitespace once comments are removed.
func isBlankBody(body string) bool {
	return strings.TrimSpace(stripComments(body)) == ""
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package verifier cross-checks LLM-reported violations against
// AST-observable facts. LLM reports are hypotheses, not ground truth;
// this stage re-derives each structural claim independently and drops
// hypotheses that fail, which is the primary defense against
// hallucinated line numbers and non-existent code patterns.
package verifier

// Verification method labels recorded on surviving violations.
const (
	MethodSkipNonAST        = "skip_non_ast"
	MethodEmptyBlock        = "empty_block_near_line"
	MethodEmptyBlockGlobal  = "empty_block_whole_file"
	MethodMethodLength      = "method_line_count"
	MethodComplexity        = "file_cyclomatic_complexity"
	MethodMissingAnnotation = "missing_annotation"
	MethodNamingPattern     = "naming_pattern_line_scan"
	MethodNamingTrustLLM    = "naming_semantic_trust_llm"
	MethodNoHintTrustLLM    = "no_matching_hint_trust_llm"
	MethodErrorTrustLLM     = "verification_error_trust_llm"
)

// Violation is the final output unit of the analysis pipeline.
//
// Lifecycle: created by parsing an LLM response, possibly dropped by
// AST cross-verification, deduplicated by (line, ruleId, column)
// before being returned to the caller.
type Violation struct {
	RuleID             string `json:"ruleId"`
	Title              string `json:"title"`
	Line               int    `json:"line"`
	Column             int    `json:"column,omitempty"`
	Severity           string `json:"severity"`
	Description        string `json:"description,omitempty"`
	Suggestion         string `json:"suggestion,omitempty"`
	ASTVerified        bool   `json:"astVerified"`
	VerificationMethod string `json:"verificationMethod,omitempty"`
}

// dedupKey identifies a violation for deduplication.
type dedupKey struct {
	line   int
	ruleID string
	column int
}

// Deduplicate collapses violations sharing (line, ruleId, column),
// keeping the first occurrence in arrival order.
func Deduplicate(violations []Violation) []Violation {
	seen := make(map[dedupKey]struct{}, len(violations))
	out := make([]Violation, 0, len(violations))
	for _, v := range violations {
		key := dedupKey{line: v.Line, ruleID: v.RuleID, column: v.Column}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

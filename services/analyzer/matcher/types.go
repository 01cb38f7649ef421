// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package matcher selects the guideline rules applicable to a code
// profile and ranks them by an additive priority score.
package matcher

// Check types a rule may declare.
const (
	CheckTypeLLM        = "llm"
	CheckTypeLLMWithAST = "llm_with_ast"
	CheckTypeAST        = "ast"
)

// ASTHints carries the structural claims a rule makes, used by the
// verification stage to cross-check LLM-reported violations.
type ASTHints struct {
	NodeTypes               []string `json:"nodeTypes,omitempty" yaml:"nodeTypes,omitempty"`
	CheckEmpty              bool     `json:"checkEmpty,omitempty" yaml:"checkEmpty,omitempty"`
	MaxLineCount            int      `json:"maxLineCount,omitempty" yaml:"maxLineCount,omitempty"`
	MaxCyclomaticComplexity int      `json:"maxCyclomaticComplexity,omitempty" yaml:"maxCyclomaticComplexity,omitempty"`
	RequiredAnnotations     []string `json:"requiredAnnotations,omitempty" yaml:"requiredAnnotations,omitempty"`
	NamingPattern           string   `json:"namingPattern,omitempty" yaml:"namingPattern,omitempty"`
}

// IsEmpty reports whether no hint field is set.
func (h ASTHints) IsEmpty() bool {
	return len(h.NodeTypes) == 0 && !h.CheckEmpty && h.MaxLineCount == 0 &&
		h.MaxCyclomaticComplexity == 0 && len(h.RequiredAnnotations) == 0 && h.NamingPattern == ""
}

// HasNodeType reports whether the hint lists the given node type.
func (h ASTHints) HasNodeType(name string) bool {
	for _, nt := range h.NodeTypes {
		if nt == name {
			return true
		}
	}
	return false
}

// Examples holds illustrative snippets attached to a rule.
type Examples struct {
	Good []string `json:"good,omitempty" yaml:"good,omitempty"`
	Bad  []string `json:"bad,omitempty" yaml:"bad,omitempty"`
}

// Rule is one guideline or anti-pattern record. Rules are sourced
// externally and read-only during matching.
//
// An empty TagCondition means the rule carries no condition; whether
// such rules match is controlled by MatchOptions.SkipUntagged.
type Rule struct {
	RuleID       string   `json:"ruleId" yaml:"ruleId"`
	Title        string   `json:"title" yaml:"title"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Severity     string   `json:"severity" yaml:"severity"`
	Category     string   `json:"category" yaml:"category"`
	CheckType    string   `json:"checkType,omitempty" yaml:"checkType,omitempty"`
	TagCondition string   `json:"tagCondition,omitempty" yaml:"tagCondition,omitempty"`
	Keywords     []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	ASTHints     ASTHints `json:"astHints,omitempty" yaml:"astHints,omitempty"`
	Examples     Examples `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// MatchResult is the transient per-rule-per-profile output of
// MatchRules. It is consumed immediately by the verification step and
// never persisted.
type MatchResult struct {
	RuleID        string   `json:"ruleId"`
	Matched       bool     `json:"matched"`
	Expression    string   `json:"expression,omitempty"`
	MatchedTags   []string `json:"matchedTags"`
	UnmatchedTags []string `json:"unmatchedTags"`
	Priority      int      `json:"priority"`
	Rule          Rule     `json:"rule"`
}

// FilteredCounts explains why rules were excluded.
type FilteredCounts struct {
	NoTagCondition int `json:"noTagCondition"`
	NotMatched     int `json:"notMatched"`
	LowPriority    int `json:"lowPriority"`
}

// MatchStats summarizes one matching pass.
type MatchStats struct {
	Evaluated int `json:"evaluated"`
	Matched   int `json:"matched"`
	Truncated bool `json:"truncated"`
}

// MatchReport is the full output of MatchRules.
type MatchReport struct {
	Violations []MatchResult  `json:"violations"`
	Filtered   FilteredCounts `json:"filtered"`
	Stats      MatchStats     `json:"stats"`
}

// MatchOptions controls matching policy.
type MatchOptions struct {
	// SkipUntagged excludes rules with no TagCondition. When false,
	// untagged rules are included unconditionally.
	SkipUntagged bool
	// MinPriority excludes matches scoring below the floor.
	MinPriority int
	// MaxResults caps the returned list after sorting.
	MaxResults int
}

// DefaultMatchOptions returns the standard policy: untagged rules are
// skipped, no priority floor, at most 100 results.
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{
		SkipUntagged: true,
		MinPriority:  0,
		MaxResults:   100,
	}
}

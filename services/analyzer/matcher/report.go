// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package matcher

import (
	"regexp"
	"sort"
)

// GroupByCategory buckets match results by rule category.
func GroupByCategory(results []MatchResult) map[string][]MatchResult {
	groups := make(map[string][]MatchResult)
	for _, r := range results {
		category := r.Rule.Category
		if category == "" {
			category = "uncategorized"
		}
		groups[category] = append(groups[category], r)
	}
	return groups
}

// severityBuckets are the recognized severity group keys.
var severityBuckets = map[string]struct{}{
	"CRITICAL": {},
	"HIGH":     {},
	"MEDIUM":   {},
	"LOW":      {},
}

// GroupBySeverity buckets match results into CRITICAL/HIGH/MEDIUM/LOW.
// Unknown severities fold into MEDIUM.
func GroupBySeverity(results []MatchResult) map[string][]MatchResult {
	groups := make(map[string][]MatchResult)
	for _, r := range results {
		severity := r.Rule.Severity
		if _, known := severityBuckets[severity]; !known {
			severity = "MEDIUM"
		}
		groups[severity] = append(groups[severity], r)
	}
	return groups
}

// Summary condenses a matching pass for report headers.
type Summary struct {
	Total      int            `json:"total"`
	BySeverity map[string]int `json:"bySeverity"`
	ByCategory map[string]int `json:"byCategory"`
	Top        []MatchResult  `json:"top"`
}

// SummarizeViolations produces counts plus the top five results by
// priority.
func SummarizeViolations(results []MatchResult) Summary {
	summary := Summary{
		Total:      len(results),
		BySeverity: make(map[string]int),
		ByCategory: make(map[string]int),
	}
	for severity, group := range GroupBySeverity(results) {
		summary.BySeverity[severity] = len(group)
	}
	for category, group := range GroupByCategory(results) {
		summary.ByCategory[category] = len(group)
	}

	top := make([]MatchResult, len(results))
	copy(top, results)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Priority > top[j].Priority })
	if len(top) > 5 {
		top = top[:5]
	}
	summary.Top = top
	return summary
}

// VerificationCandidate is the minimal shape an LLM verification
// prompt needs per matched rule.
type VerificationCandidate struct {
	RuleID            string   `json:"ruleId"`
	Title             string   `json:"title"`
	Description       string   `json:"description,omitempty"`
	Severity          string   `json:"severity"`
	CheckType         string   `json:"checkType,omitempty"`
	MatchedTags       []string `json:"matchedTags"`
	BadExample        string   `json:"badExample,omitempty"`
	NeedsVerification bool     `json:"needsVerification"`
}

// llmDerivedTagRe matches tag names that originate from semantic
// (tier-2) judgment rather than deterministic detection.
var llmDerivedTagRe = regexp.MustCompile(`GOD_CLASS|BUSINESS_LOGIC|SENSITIVE|INPUT_VALIDATION|ERROR_RECOVERY`)

// FormatForLLMVerification projects match results into verification
// candidates, flagging rules whose matched tags look LLM-derived so
// the downstream verifier applies extra scrutiny.
func FormatForLLMVerification(results []MatchResult) []VerificationCandidate {
	candidates := make([]VerificationCandidate, 0, len(results))
	for _, r := range results {
		candidate := VerificationCandidate{
			RuleID:      r.RuleID,
			Title:       r.Rule.Title,
			Description: r.Rule.Description,
			Severity:    r.Rule.Severity,
			CheckType:   r.Rule.CheckType,
			MatchedTags: r.MatchedTags,
		}
		if len(r.Rule.Examples.Bad) > 0 {
			candidate.BadExample = r.Rule.Examples.Bad[0]
		}
		for _, tag := range r.MatchedTags {
			if llmDerivedTagRe.MatchString(tag) {
				candidate.NeedsVerification = true
				break
			}
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}

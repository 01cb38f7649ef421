// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package matcher

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/GuidelineTrace/services/analyzer/profiler"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/tagdef"
)

func profileWithTags(tags ...string) *profiler.CodeProfile {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return &profiler.CodeProfile{
		Tags:         set,
		TagDetails:   map[string]profiler.TagDetail{},
		CompoundTags: map[string]profiler.CompoundTagResult{},
		RiskLevel:    profiler.RiskLow,
	}
}

func TestMatchRules_ConditionFiltering(t *testing.T) {
	m := NewMatcher()
	profile := profileWithTags("HAS_EMPTY_CATCH", "IS_CONTROLLER")

	rules := []Rule{
		{RuleID: "R1", Severity: "HIGH", Category: "exception_handling", TagCondition: "HAS_EMPTY_CATCH"},
		{RuleID: "R2", Severity: "HIGH", Category: "security", TagCondition: "HAS_SQL_CONCATENATION"},
		{RuleID: "R3", Severity: "LOW", Category: "naming"},
		{RuleID: "R4", Severity: "MEDIUM", Category: "architecture", TagCondition: "IS_CONTROLLER && !IS_TEST_CLASS"},
	}

	report := m.MatchRules(profile, rules, DefaultMatchOptions())

	ids := matchedIDs(report)
	assert.Contains(t, ids, "R1")
	assert.Contains(t, ids, "R4")
	assert.NotContains(t, ids, "R2", "false condition excludes the rule")
	assert.NotContains(t, ids, "R3", "untagged rules are skipped by default")

	assert.Equal(t, 1, report.Filtered.NoTagCondition)
	assert.Equal(t, 1, report.Filtered.NotMatched)
	assert.Equal(t, 4, report.Stats.Evaluated)
	assert.Equal(t, 2, report.Stats.Matched)
}

func TestMatchRules_UntaggedIncludedWhenNotSkipping(t *testing.T) {
	m := NewMatcher()
	opts := DefaultMatchOptions()
	opts.SkipUntagged = false

	report := m.MatchRules(profileWithTags(), []Rule{{RuleID: "R1", Severity: "LOW", Category: "naming"}}, opts)
	require.Len(t, report.Violations, 1)
	assert.True(t, report.Violations[0].Matched)
	assert.Empty(t, report.Violations[0].MatchedTags)
}

func TestMatchRules_MalformedConditionExcludes(t *testing.T) {
	m := NewMatcher()
	report := m.MatchRules(
		profileWithTags("A"),
		[]Rule{{RuleID: "R1", Severity: "HIGH", TagCondition: "A &&"}},
		DefaultMatchOptions(),
	)
	assert.Empty(t, report.Violations, "unparseable condition means the rule does not apply")
	assert.Equal(t, 1, report.Filtered.NotMatched)
}

func TestMatchRules_SortAndTruncate(t *testing.T) {
	m := NewMatcher()
	profile := profileWithTags("A")

	var rules []Rule
	for i := 0; i < 10; i++ {
		severity := "LOW"
		if i%2 == 0 {
			severity = "CRITICAL"
		}
		rules = append(rules, Rule{
			RuleID:       fmt.Sprintf("R%d", i),
			Severity:     severity,
			Category:     "code_smell",
			TagCondition: "A",
		})
	}

	opts := DefaultMatchOptions()
	opts.MaxResults = 5
	report := m.MatchRules(profile, rules, opts)

	require.Len(t, report.Violations, 5)
	assert.True(t, report.Stats.Truncated)
	for i := 1; i < len(report.Violations); i++ {
		assert.GreaterOrEqual(t, report.Violations[i-1].Priority, report.Violations[i].Priority)
	}
	// All five survivors are the CRITICAL rules, in input order.
	assert.Equal(t, "R0", report.Violations[0].RuleID)
	assert.Equal(t, "R8", report.Violations[4].RuleID)
}

func TestMatchRules_MinPriority(t *testing.T) {
	m := NewMatcher()
	opts := DefaultMatchOptions()
	opts.MinPriority = 200

	report := m.MatchRules(
		profileWithTags("A"),
		[]Rule{{RuleID: "R1", Severity: "LOW", Category: "naming", TagCondition: "A"}},
		opts,
	)
	assert.Empty(t, report.Violations)
	assert.Equal(t, 1, report.Filtered.LowPriority)
}

func TestCalculatePriority_Monotonicity(t *testing.T) {
	m := NewMatcher()
	profile := profileWithTags("A", "B")

	base := Rule{RuleID: "R", Severity: "MEDIUM", Category: "security", TagCondition: "A && B"}
	raised := base
	raised.Severity = "CRITICAL"

	result := MatchResult{MatchedTags: []string{"A", "B"}}
	assert.Greater(t,
		m.calculatePriority(raised, result, profile),
		m.calculatePriority(base, result, profile),
	)
}

func TestCalculatePriority_Components(t *testing.T) {
	m := NewMatcher()

	profile := profileWithTags("A")
	profile.RiskLevel = profiler.RiskCritical
	profile.CompoundTags = map[string]profiler.CompoundTagResult{
		"C1": {Matched: true, Severity: tagdef.SeverityHigh},
		"C2": {Matched: false, Severity: tagdef.SeverityHigh},
	}

	rule := Rule{RuleID: "R", Severity: "HIGH", Category: "security", TagCondition: "A"}
	result := MatchResult{MatchedTags: []string{"A"}}

	// 70 severity + 30 category + 10 tag + 20 critical risk + 15 compound.
	assert.Equal(t, 145, m.calculatePriority(rule, result, profile))
}

func TestCalculatePriority_Defaults(t *testing.T) {
	m := NewMatcher()
	profile := profileWithTags()

	rule := Rule{RuleID: "R", Severity: "BLOCKER", Category: "style"}
	// Unknown severity 40 + unknown category 10.
	assert.Equal(t, 50, m.calculatePriority(rule, MatchResult{}, profile))
}

func TestPrefilterRules(t *testing.T) {
	m := NewMatcher()
	codeTags := map[string]struct{}{"A": {}, "B": {}}

	rules := []Rule{
		{RuleID: "no-condition"},
		{RuleID: "all-present", TagCondition: "A && B"},
		{RuleID: "missing-tag", TagCondition: "A && C"},
		{RuleID: "disjunction", TagCondition: "C || D"},
		{RuleID: "negated-only", TagCondition: "!C"},
	}

	passed := m.PrefilterRules(codeTags, rules)
	ids := make([]string, 0, len(passed))
	for _, r := range passed {
		ids = append(ids, r.RuleID)
	}

	assert.Contains(t, ids, "no-condition")
	assert.Contains(t, ids, "all-present")
	assert.NotContains(t, ids, "missing-tag")
	// Conservative: expressions with no provable required tag pass.
	assert.Contains(t, ids, "disjunction")
	assert.Contains(t, ids, "negated-only")
}

func TestPrefilterRules_NeverRejectsAPassingRule(t *testing.T) {
	m := NewMatcher()
	profile := profileWithTags()

	// Both conditions hold with an empty tag set; the prefilter must
	// keep them so full evaluation can match them.
	rules := []Rule{
		{RuleID: "negated-group", Severity: "MEDIUM", TagCondition: "!(A && B)"},
		{RuleID: "tautology", Severity: "MEDIUM", TagCondition: "A || !A"},
	}

	passed := m.PrefilterRules(profile.Tags, rules)
	require.Len(t, passed, 2)

	report := m.MatchRules(profile, passed, MatchOptions{SkipUntagged: true, MaxResults: 10})
	require.Len(t, report.Violations, 2)
}

func TestFindRulesByTag(t *testing.T) {
	m := NewMatcher()
	rules := []Rule{
		{RuleID: "R1", TagCondition: "HAS_EMPTY_CATCH && IS_SERVICE"},
		{RuleID: "R2", TagCondition: "!HAS_EMPTY_CATCH"},
		{RuleID: "R3", TagCondition: "HAS_EMPTY_CATCH_EXTENDED"},
		{RuleID: "R4"},
	}

	found := m.FindRulesByTag("HAS_EMPTY_CATCH", rules)
	require.Len(t, found, 2)
	assert.Equal(t, "R1", found[0].RuleID)
	assert.Equal(t, "R2", found[1].RuleID)
}

func TestGroupBySeverity_UnknownFoldsToMedium(t *testing.T) {
	results := []MatchResult{
		{RuleID: "R1", Rule: Rule{Severity: "CRITICAL"}},
		{RuleID: "R2", Rule: Rule{Severity: "BLOCKER"}},
		{RuleID: "R3", Rule: Rule{Severity: ""}},
	}
	groups := GroupBySeverity(results)
	assert.Len(t, groups["CRITICAL"], 1)
	assert.Len(t, groups["MEDIUM"], 2)
}

func TestSummarizeViolations_TopFive(t *testing.T) {
	var results []MatchResult
	for i := 0; i < 8; i++ {
		results = append(results, MatchResult{
			RuleID:   fmt.Sprintf("R%d", i),
			Priority: i * 10,
			Rule:     Rule{Severity: "LOW", Category: "naming"},
		})
	}

	summary := SummarizeViolations(results)
	assert.Equal(t, 8, summary.Total)
	require.Len(t, summary.Top, 5)
	assert.Equal(t, "R7", summary.Top[0].RuleID)
	assert.Equal(t, 8, summary.BySeverity["LOW"])
}

func TestFormatForLLMVerification(t *testing.T) {
	results := []MatchResult{
		{
			RuleID:      "R1",
			MatchedTags: []string{"HAS_EMPTY_CATCH"},
			Rule: Rule{
				RuleID:   "R1",
				Title:    "Empty catch",
				Severity: "HIGH",
				Examples: Examples{Bad: []string{"catch (Exception e) { }"}},
			},
		},
		{
			RuleID:      "R2",
			MatchedTags: []string{"IS_CONTROLLER", "HAS_BUSINESS_LOGIC_IN_CONTROLLER"},
			Rule:        Rule{RuleID: "R2", Title: "Fat controller", Severity: "MEDIUM"},
		},
	}

	candidates := FormatForLLMVerification(results)
	require.Len(t, candidates, 2)
	assert.False(t, candidates[0].NeedsVerification)
	assert.Equal(t, "catch (Exception e) { }", candidates[0].BadExample)
	assert.True(t, candidates[1].NeedsVerification, "tier-2 style tags need verification")
}

func matchedIDs(report *MatchReport) []string {
	ids := make([]string, 0, len(report.Violations))
	for _, v := range report.Violations {
		ids = append(ids, v.RuleID)
	}
	return ids
}

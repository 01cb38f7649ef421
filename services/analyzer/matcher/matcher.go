// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package matcher

import (
	"log/slog"
	"sort"

	"github.com/AleutianAI/GuidelineTrace/services/analyzer/profiler"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/tagexpr"
)

// PriorityWeights holds the additive priority-scoring tables. Exposed
// as configuration so the ranking can be tuned without changing the
// matching algorithm.
type PriorityWeights struct {
	Severity        map[string]int `yaml:"severity" json:"severity"`
	DefaultSeverity int            `yaml:"defaultSeverity" json:"defaultSeverity"`

	Category        map[string]int `yaml:"category" json:"category"`
	DefaultCategory int            `yaml:"defaultCategory" json:"defaultCategory"`

	PerMatchedTag     int `yaml:"perMatchedTag" json:"perMatchedTag"`
	CriticalRiskBonus int `yaml:"criticalRiskBonus" json:"criticalRiskBonus"`
	HighRiskBonus     int `yaml:"highRiskBonus" json:"highRiskBonus"`
	PerMatchedCompound int `yaml:"perMatchedCompound" json:"perMatchedCompound"`
}

// DefaultPriorityWeights returns the standard ranking tables.
func DefaultPriorityWeights() PriorityWeights {
	return PriorityWeights{
		Severity: map[string]int{
			"CRITICAL": 100,
			"HIGH":     70,
			"MEDIUM":   40,
			"LOW":      20,
		},
		DefaultSeverity: 40,
		Category: map[string]int{
			"security":            30,
			"resource_management": 25,
			"architecture":        20,
			"performance":         15,
			"exception_handling":  15,
			"code_smell":          10,
			"naming":              5,
		},
		DefaultCategory:    10,
		PerMatchedTag:      10,
		CriticalRiskBonus:  20,
		HighRiskBonus:      10,
		PerMatchedCompound: 15,
	}
}

// Matcher evaluates rule conditions against code profiles.
//
// Thread Safety: Safe for concurrent use. The only shared state is
// the expression evaluator's internal cache.
type Matcher struct {
	evaluator *tagexpr.Evaluator
	weights   PriorityWeights
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithPriorityWeights overrides the ranking tables.
func WithPriorityWeights(weights PriorityWeights) MatcherOption {
	return func(m *Matcher) { m.weights = weights }
}

// WithEvaluator supplies a shared expression evaluator.
func WithEvaluator(evaluator *tagexpr.Evaluator) MatcherOption {
	return func(m *Matcher) { m.evaluator = evaluator }
}

// NewMatcher creates a Matcher with the default weights.
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{weights: DefaultPriorityWeights()}
	for _, opt := range opts {
		opt(m)
	}
	if m.evaluator == nil {
		m.evaluator = tagexpr.NewEvaluator()
	}
	return m
}

// MatchRules filters rules down to those whose condition holds for
// the profile, ranked by priority.
//
// Description:
//
//	Per rule: a missing condition excludes the rule when
//	opts.SkipUntagged is set, otherwise includes it unconditionally.
//	A present condition is evaluated against the profile's merged tag
//	set; an unparseable or false condition excludes the rule. Matches
//	below opts.MinPriority are dropped. Survivors are sorted stable
//	descending by priority and truncated to opts.MaxResults.
//
// Outputs:
//
//	*MatchReport - Never nil. Filtered counters record why rules were
//	               excluded. Malformed conditions count as not
//	               matched; they never abort the pass.
func (m *Matcher) MatchRules(profile *profiler.CodeProfile, rules []Rule, opts MatchOptions) *MatchReport {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMatchOptions().MaxResults
	}

	report := &MatchReport{Violations: []MatchResult{}}
	for _, rule := range rules {
		report.Stats.Evaluated++

		if rule.TagCondition == "" {
			if opts.SkipUntagged {
				report.Filtered.NoTagCondition++
				continue
			}
			result := MatchResult{
				RuleID:        rule.RuleID,
				Matched:       true,
				MatchedTags:   []string{},
				UnmatchedTags: []string{},
				Rule:          rule,
			}
			result.Priority = m.calculatePriority(rule, result, profile)
			if result.Priority < opts.MinPriority {
				report.Filtered.LowPriority++
				continue
			}
			report.Violations = append(report.Violations, result)
			continue
		}

		eval := m.evaluator.Evaluate(rule.TagCondition, profile.Tags)
		if eval.Err != "" {
			slog.Warn("rule condition failed to parse, excluding rule",
				"rule_id", rule.RuleID, "error", eval.Err)
		}
		if !eval.Result {
			report.Filtered.NotMatched++
			continue
		}

		result := MatchResult{
			RuleID:        rule.RuleID,
			Matched:       true,
			Expression:    rule.TagCondition,
			MatchedTags:   eval.MatchedTags,
			UnmatchedTags: eval.UnmatchedTags,
			Rule:          rule,
		}
		result.Priority = m.calculatePriority(rule, result, profile)
		if result.Priority < opts.MinPriority {
			report.Filtered.LowPriority++
			continue
		}
		report.Violations = append(report.Violations, result)
	}

	sort.SliceStable(report.Violations, func(i, j int) bool {
		return report.Violations[i].Priority > report.Violations[j].Priority
	})
	if len(report.Violations) > opts.MaxResults {
		report.Violations = report.Violations[:opts.MaxResults]
		report.Stats.Truncated = true
	}
	report.Stats.Matched = len(report.Violations)
	return report
}

// calculatePriority computes the additive rank score for one matched
// rule. The score has no upper bound by construction.
func (m *Matcher) calculatePriority(rule Rule, result MatchResult, profile *profiler.CodeProfile) int {
	score, ok := m.weights.Severity[rule.Severity]
	if !ok {
		score = m.weights.DefaultSeverity
	}

	if w, ok := m.weights.Category[rule.Category]; ok {
		score += w
	} else {
		score += m.weights.DefaultCategory
	}

	score += len(result.MatchedTags) * m.weights.PerMatchedTag

	switch profile.RiskLevel {
	case profiler.RiskCritical:
		score += m.weights.CriticalRiskBonus
	case profiler.RiskHigh:
		score += m.weights.HighRiskBonus
	}

	for _, compound := range profile.CompoundTags {
		if compound.Matched {
			score += m.weights.PerMatchedCompound
		}
	}
	return score
}

// PrefilterRules is a cheap conservative pass usable before full
// evaluation.
//
// Description:
//
//	A rule passes if it has no condition, or if the condition's
//	required-tag set is non-empty and fully present in codeTags. The
//	filter may admit rules that ultimately fail full evaluation but
//	never rejects a rule that would pass; it is a performance
//	optimization, not a correctness boundary.
func (m *Matcher) PrefilterRules(codeTags map[string]struct{}, rules []Rule) []Rule {
	var passed []Rule
	for _, rule := range rules {
		if rule.TagCondition == "" {
			passed = append(passed, rule)
			continue
		}
		required := m.evaluator.RequiredTags(rule.TagCondition)
		if len(required) == 0 {
			passed = append(passed, rule)
			continue
		}
		allPresent := true
		for _, tag := range required {
			if _, ok := codeTags[tag]; !ok {
				allPresent = false
				break
			}
		}
		if allPresent {
			passed = append(passed, rule)
		}
	}
	return passed
}

// FindRulesByTag returns the rules whose condition lexically depends
// on tagName, including negated occurrences.
func (m *Matcher) FindRulesByTag(tagName string, rules []Rule) []Rule {
	var found []Rule
	for _, rule := range rules {
		if rule.TagCondition == "" {
			continue
		}
		if m.evaluator.DependsOn(rule.TagCondition, tagName) {
			found = append(found, rule)
		}
	}
	return found
}

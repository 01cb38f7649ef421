// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rulesource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/AleutianAI/GuidelineTrace/services/analyzer/matcher"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/tagexpr"
)

func TestDefaultRules_Consistency(t *testing.T) {
	rules := DefaultRules()
	require.NotEmpty(t, rules)

	evaluator := tagexpr.NewEvaluator()
	seen := make(map[string]struct{})
	for _, rule := range rules {
		require.NotEmpty(t, rule.RuleID)
		require.NotEmpty(t, rule.Title, "rule %s", rule.RuleID)
		require.NotEmpty(t, rule.Severity, "rule %s", rule.RuleID)
		require.NotEmpty(t, rule.Category, "rule %s", rule.RuleID)

		_, dup := seen[rule.RuleID]
		require.False(t, dup, "duplicate rule id %s", rule.RuleID)
		seen[rule.RuleID] = struct{}{}

		if rule.TagCondition != "" {
			validation := evaluator.Validate(rule.TagCondition)
			assert.True(t, validation.Valid, "rule %s condition %q: %s",
				rule.RuleID, rule.TagCondition, validation.Err)
		}
		if rule.CheckType == matcher.CheckTypeLLMWithAST {
			assert.False(t, rule.ASTHints.IsEmpty(),
				"rule %s declares AST verification but has no hints", rule.RuleID)
		}
	}
}

func TestDefaultRules_EmptyCatchRule(t *testing.T) {
	var found *matcher.Rule
	for _, rule := range DefaultRules() {
		if rule.RuleID == "CTX-004" {
			r := rule
			found = &r
			break
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, matcher.CheckTypeLLMWithAST, found.CheckType)
	assert.True(t, found.ASTHints.CheckEmpty)
	assert.True(t, found.ASTHints.HasNodeType("CatchClause"))
	assert.Equal(t, "HAS_EMPTY_CATCH", found.TagCondition)
}

func TestFilterRules(t *testing.T) {
	rules := DefaultRules()

	security := FilterRules(rules, Query{Category: "security"})
	require.NotEmpty(t, security)
	for _, rule := range security {
		assert.Equal(t, "security", rule.Category)
	}

	critical := FilterRules(rules, Query{Severity: "CRITICAL"})
	require.NotEmpty(t, critical)
	for _, rule := range critical {
		assert.Equal(t, "CRITICAL", rule.Severity)
	}

	keyword := FilterRules(rules, Query{Keywords: []string{"sql"}})
	require.Len(t, keyword, 1)
	assert.Equal(t, "CTX-001", keyword[0].RuleID)

	limited := FilterRules(rules, Query{Limit: 2})
	assert.Len(t, limited, 2)
}

type failingSource struct{}

func (failingSource) SearchGuidelines(ctx context.Context, query Query) ([]matcher.Rule, error) {
	return nil, errors.New("connection refused")
}

func TestWithFallback_DegradesToDefaults(t *testing.T) {
	source := &WithFallback{Primary: failingSource{}}
	rules, err := source.SearchGuidelines(context.Background(), Query{})
	require.NoError(t, err, "degradation must never surface the primary error")
	assert.Len(t, rules, len(DefaultRules()))
}

func TestWithFallback_PrefersPrimary(t *testing.T) {
	primary := &StaticSource{Rules: []matcher.Rule{{RuleID: "X-1", Title: "t", Severity: "LOW", Category: "naming"}}}
	source := &WithFallback{Primary: primary}

	rules, err := source.SearchGuidelines(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "X-1", rules[0].RuleID)
}

func TestParseRules(t *testing.T) {
	response := &models.GraphQLResponse{
		Data: map[string]models.JSONObject{
			"Get": map[string]any{
				GuidelineClassName: []any{
					map[string]any{
						"ruleId":       "W-1",
						"title":        "Stored rule",
						"severity":     "HIGH",
						"category":     "security",
						"checkType":    "llm_with_ast",
						"tagCondition": "HAS_EMPTY_CATCH",
						"keywords":     []any{"catch", "empty"},
						"astHints":     `{"checkEmpty":true,"nodeTypes":["CatchClause"]}`,
						"examplesBad":  []any{"catch (Exception e) { }"},
					},
					map[string]any{
						"title": "record without ruleId is skipped",
					},
					map[string]any{
						"ruleId":   "W-2",
						"title":    "Bad hints degrade instead of failing",
						"severity": "LOW",
						"category": "naming",
						"astHints": "{not json",
					},
				},
			},
		},
	}

	rules, err := parseRules(response)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, "W-1", rules[0].RuleID)
	assert.True(t, rules[0].ASTHints.CheckEmpty)
	assert.Equal(t, []string{"catch", "empty"}, rules[0].Keywords)
	assert.Equal(t, "catch (Exception e) { }", rules[0].Examples.Bad[0])

	assert.Equal(t, "W-2", rules[1].RuleID)
	assert.True(t, rules[1].ASTHints.IsEmpty())
}

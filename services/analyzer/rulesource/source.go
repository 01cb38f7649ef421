// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package rulesource supplies the guideline-rule catalog, either from
// a Weaviate vector store or from the built-in defaults when the
// store is unavailable.
package rulesource

import (
	"context"
	"log/slog"

	"github.com/AleutianAI/GuidelineTrace/services/analyzer/matcher"
)

// Query filters a guideline search. Zero-value fields are ignored.
type Query struct {
	Category string
	Severity string
	Keywords []string
	Limit    int
}

// DefaultQueryLimit bounds unfiltered catalog fetches.
const DefaultQueryLimit = 200

// Source supplies guideline rules.
type Source interface {
	SearchGuidelines(ctx context.Context, query Query) ([]matcher.Rule, error)
}

// WithFallback wraps a primary source so that any error degrades to
// the built-in default rules instead of failing the analysis.
type WithFallback struct {
	Primary Source
}

// SearchGuidelines tries the primary source and degrades to defaults.
func (s *WithFallback) SearchGuidelines(ctx context.Context, query Query) ([]matcher.Rule, error) {
	if s.Primary != nil {
		rules, err := s.Primary.SearchGuidelines(ctx, query)
		if err == nil {
			return rules, nil
		}
		slog.Warn("guideline source unavailable, using built-in default rules", "error", err)
	}
	return FilterRules(DefaultRules(), query), nil
}

// StaticSource serves a fixed rule list. Used for tests and for
// running entirely offline.
type StaticSource struct {
	Rules []matcher.Rule
}

func (s *StaticSource) SearchGuidelines(ctx context.Context, query Query) ([]matcher.Rule, error) {
	return FilterRules(s.Rules, query), nil
}

// FilterRules applies a Query's filters to an in-memory rule list.
func FilterRules(rules []matcher.Rule, query Query) []matcher.Rule {
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	var out []matcher.Rule
	for _, rule := range rules {
		if query.Category != "" && rule.Category != query.Category {
			continue
		}
		if query.Severity != "" && rule.Severity != query.Severity {
			continue
		}
		if len(query.Keywords) > 0 && !matchesAnyKeyword(rule, query.Keywords) {
			continue
		}
		out = append(out, rule)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func matchesAnyKeyword(rule matcher.Rule, keywords []string) bool {
	for _, want := range keywords {
		for _, have := range rule.Keywords {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package profiler

import (
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/tagdef"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/tagexpr"
)

// evaluateCompoundTags evaluates every compound definition against the
// merged Tier-1 + Tier-2 tag set.
//
// Description:
//
//	Compound expressions are evaluated in a single pass over the
//	merged base-tag set; a compound's expression never references
//	another compound. Matched compound names are folded back into
//	the working tag set by the caller so rule conditions may
//	reference them.
func evaluateCompoundTags(
	catalog *tagdef.Catalog,
	evaluator *tagexpr.Evaluator,
	tags map[string]struct{},
) map[string]CompoundTagResult {
	results := make(map[string]CompoundTagResult)
	for _, def := range catalog.Compounds() {
		eval := evaluator.Evaluate(def.Expression, tags)
		results[def.Name] = CompoundTagResult{
			Matched:     eval.Result,
			Expression:  def.Expression,
			Severity:    def.Severity,
			Description: def.Description,
		}
	}
	return results
}

// categoryRules maps base-tag presence to human-meaningful category
// labels. Multiple categories may apply; the result is a set.
var categoryRules = []struct {
	tag      string
	category string
}{
	{tagdef.TagIsController, "controller"},
	{tagdef.TagIsService, "service"},
	{tagdef.TagIsRepository, "data-access"},
	{tagdef.TagIsEntity, "data-model"},
	{tagdef.TagIsTestClass, "test"},
	{tagdef.TagHasSQLConcatenation, "security-risk"},
	{tagdef.TagUsesStringFormatSQL, "security-risk"},
	{tagdef.TagHasHardcodedSecret, "security-risk"},
	{tagdef.TagUsesConnection, "resource-handling"},
	{tagdef.TagUsesStatement, "resource-handling"},
	{tagdef.TagUsesResultSet, "resource-handling"},
	{tagdef.TagUsesStream, "resource-handling"},
	{tagdef.TagHasEmptyCatch, "error-handling"},
	{tagdef.TagHasGenericCatch, "error-handling"},
	{tagdef.TagHasPrintStackTrace, "error-handling"},
	{tagdef.TagHasHighComplexity, "complexity"},
	{tagdef.TagHasDeepNesting, "complexity"},
	{tagdef.TagHasLargeMethod, "complexity"},
	{tagdef.TagUsesThread, "concurrency"},
	{tagdef.TagHasSynchronized, "concurrency"},
}

// inferCategories derives the category label set from tag presence.
func inferCategories(tags map[string]struct{}) []string {
	seen := make(map[string]struct{})
	var categories []string
	for _, rule := range categoryRules {
		if _, ok := tags[rule.tag]; !ok {
			continue
		}
		if _, dup := seen[rule.category]; dup {
			continue
		}
		seen[rule.category] = struct{}{}
		categories = append(categories, rule.category)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories
}

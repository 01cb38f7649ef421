// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tagexpr

// DefaultCacheSize bounds the evaluation memo to a fixed entry count.
const DefaultCacheSize = 1000

// EvalResult is the outcome of evaluating one expression against one
// tag set.
//
// MatchedTags/UnmatchedTags are diagnostics: every distinct tag-looking
// token in the raw expression, partitioned by membership in the tag
// set. They are computed lexically, independent of the AST, so a
// negated tag still shows up on whichever side its presence dictates.
type EvalResult struct {
	// Result is the boolean value of the expression.
	Result bool `json:"result"`

	// MatchedTags lists referenced tags present in the tag set.
	MatchedTags []string `json:"matchedTags"`

	// UnmatchedTags lists referenced tags absent from the tag set.
	UnmatchedTags []string `json:"unmatchedTags"`

	// Err holds the parse error message for malformed expressions.
	// Empty for well-formed input.
	Err string `json:"error,omitempty"`
}

// clone returns a deep copy so cached entries cannot be mutated by
// callers.
func (r EvalResult) clone() EvalResult {
	out := EvalResult{Result: r.Result, Err: r.Err}
	if r.MatchedTags != nil {
		out.MatchedTags = make([]string, len(r.MatchedTags))
		copy(out.MatchedTags, r.MatchedTags)
	}
	if r.UnmatchedTags != nil {
		out.UnmatchedTags = make([]string, len(r.UnmatchedTags))
		copy(out.UnmatchedTags, r.UnmatchedTags)
	}
	return out
}

// ValidationResult reports whether an expression is syntactically valid.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Err   string `json:"error,omitempty"`
}

// Evaluator parses and evaluates tag expressions with memoization.
//
// Description:
//
//	Evaluator is the single entry point for all rule-condition
//	evaluation. Malformed expressions never surface as errors to the
//	caller of Evaluate: the result is false with the parse error
//	recorded in Err. An unparseable condition means "rule does not
//	apply", not "abort the matching pass".
//
// Thread Safety: Safe for concurrent use from multiple goroutines.
type Evaluator struct {
	cache *evalCache
}

// NewEvaluator creates an Evaluator with the default cache bound.
func NewEvaluator() *Evaluator {
	return NewEvaluatorWithCacheSize(DefaultCacheSize)
}

// NewEvaluatorWithCacheSize creates an Evaluator with a custom memo
// bound. Sizes below 1 disable caching.
func NewEvaluatorWithCacheSize(size int) *Evaluator {
	e := &Evaluator{}
	if size > 0 {
		e.cache = newEvalCache(size)
	}
	return e
}

// Evaluate evaluates expression against the given tag set.
//
// Description:
//
//	Tokenizes and parses the expression, evaluates the AST against the
//	set, and partitions the referenced tags into matched/unmatched for
//	diagnostics. Results are memoized by (expression, sorted tag set).
//
// Inputs:
//
//	expression - The boolean formula over tag names.
//	tags - The set of tags considered present.
//
// Outputs:
//
//	EvalResult - Result=false with Err set on malformed input. Never
//	             panics and never returns an error value.
//
// Thread Safety: Safe for concurrent use.
func (e *Evaluator) Evaluate(expression string, tags map[string]struct{}) EvalResult {
	var key string
	if e.cache != nil {
		key = e.cache.key(expression, tags)
		if cached, ok := e.cache.get(key); ok {
			return cached
		}
	}

	result := e.evaluate(expression, tags)

	if e.cache != nil {
		e.cache.put(key, result)
	}
	return result
}

// evaluate performs the uncached parse + tree walk.
func (e *Evaluator) evaluate(expression string, tags map[string]struct{}) EvalResult {
	root, err := parse(expression)
	if err != nil {
		// Fail closed: unparseable conditions never match.
		return EvalResult{Result: false, MatchedTags: []string{}, UnmatchedTags: []string{}, Err: err.Error()}
	}

	result := EvalResult{
		Result:        root.eval(tags),
		MatchedTags:   []string{},
		UnmatchedTags: []string{},
	}
	for _, tag := range tagTokens(expression) {
		if _, ok := tags[tag]; ok {
			result.MatchedTags = append(result.MatchedTags, tag)
		} else {
			result.UnmatchedTags = append(result.UnmatchedTags, tag)
		}
	}
	return result
}

// EvaluateSet is a convenience wrapper accepting a tag slice.
func (e *Evaluator) EvaluateSet(expression string, tags []string) EvalResult {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return e.Evaluate(expression, set)
}

// Validate checks expression syntax without evaluating.
//
// Outputs:
//
//	ValidationResult - Valid=false with Err describing the first
//	                   tokenize or parse error.
func (e *Evaluator) Validate(expression string) ValidationResult {
	if _, err := parse(expression); err != nil {
		return ValidationResult{Valid: false, Err: err.Error()}
	}
	return ValidationResult{Valid: true}
}

// RequiredTags returns tags that provably must be present for the
// expression to evaluate true.
//
// Description:
//
//	Best-effort static analysis over the parsed AST, used only as a
//	conservative pre-filter and never for definitive rule exclusion.
//	A tag is reported only when its absence provably forces the whole
//	expression false: AND requires the union of its sides, OR the
//	intersection, and nothing inside a NOT is required. Malformed
//	expressions return nil, leaving exclusion to full evaluation.
//
// Outputs:
//
//	[]string - Required tags, or nil when nothing can be proven.
func (e *Evaluator) RequiredTags(expression string) []string {
	root, err := parse(expression)
	if err != nil {
		return nil
	}
	return root.requiredTags()
}

// DependsOn reports whether tagName appears anywhere in the
// expression.
//
// This is lexical, not semantic: negated and redundant occurrences
// count. Used to answer "which rules would a tag definition change
// affect" without parsing.
func (e *Evaluator) DependsOn(expression, tagName string) bool {
	for _, tag := range tagTokens(expression) {
		if tag == tagName {
			return true
		}
	}
	return false
}

// CacheStats returns the memo hit rate and current size.
// Returns zeros when caching is disabled.
func (e *Evaluator) CacheStats() (hitRate float64, size int) {
	if e.cache == nil {
		return 0, 0
	}
	return e.cache.hitRate(), e.cache.size()
}

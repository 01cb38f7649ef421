// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package verifier

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/AleutianAI/GuidelineTrace/services/analyzer/javaast"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/matcher"
)

// lineWindow is how far (in lines) from the reported line a block is
// still considered "near". LLM line numbers are not always reliable.
const lineWindow = 6

// Verifier cross-checks reported violations against the source and
// its structural analysis.
//
// Thread Safety: Safe for concurrent use; Verifier holds only the
// rule index, which is read-only after construction.
type Verifier struct {
	rules map[string]matcher.Rule
}

// NewVerifier indexes the rule catalog by ruleId.
func NewVerifier(rules []matcher.Rule) *Verifier {
	index := make(map[string]matcher.Rule, len(rules))
	for _, rule := range rules {
		index[rule.RuleID] = rule
	}
	return &Verifier{rules: index}
}

// VerifyViolations filters a batch of reported violations.
//
// Description:
//
//	Violations whose rule does not declare llm_with_ast checking pass
//	through unverified. For the rest the declared astHints field is
//	re-derived against the source; hypotheses that fail are removed
//	entirely. Missing rules, missing hints, or an internal error
//	during a single check all fail open (the violation is kept),
//	while a check that runs and contradicts the hypothesis fails
//	closed (the violation is dropped). One bad record never aborts
//	the batch.
//
// Outputs:
//
//	[]Violation - Survivors, deduplicated by (line, ruleId, column),
//	              each carrying ASTVerified and a VerificationMethod.
func (v *Verifier) VerifyViolations(violations []Violation, analysis *javaast.Analysis, source string) []Violation {
	out := make([]Violation, 0, len(violations))
	for _, violation := range violations {
		verified, method := v.verifyOne(violation, analysis, source)
		if !verified {
			slog.Debug("violation failed AST verification, dropping",
				"rule_id", violation.RuleID, "line", violation.Line, "method", method)
			continue
		}
		violation.ASTVerified = true
		violation.VerificationMethod = method
		out = append(out, violation)
	}
	return Deduplicate(out)
}

// verifyOne checks a single violation, recovering from panics in the
// check logic.
func (v *Verifier) verifyOne(violation Violation, analysis *javaast.Analysis, source string) (verified bool, method string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("verification panicked, trusting the reported violation",
				"rule_id", violation.RuleID, "line", violation.Line, "panic", r)
			verified = true
			method = MethodErrorTrustLLM
		}
	}()

	rule, found := v.rules[violation.RuleID]
	if !found {
		return true, MethodErrorTrustLLM
	}
	if rule.CheckType != matcher.CheckTypeLLMWithAST {
		return true, MethodSkipNonAST
	}

	hints := rule.ASTHints
	switch {
	case hints.CheckEmpty && hints.HasNodeType("CatchClause"):
		return verifyEmptyBlock(source, violation.Line, catchHeadRe)
	case hints.CheckEmpty && hints.HasNodeType("IfStatement"):
		return verifyEmptyBlock(source, violation.Line, ifHeadRe)
	case hints.MaxLineCount > 0 && hints.HasNodeType("MethodDeclaration"):
		return verifyMethodLength(source, analysis, violation.Line, hints.MaxLineCount)
	case hints.MaxCyclomaticComplexity > 0:
		return verifyComplexity(analysis, hints.MaxCyclomaticComplexity)
	case len(hints.RequiredAnnotations) > 0:
		return verifyMissingAnnotation(source, analysis, hints.RequiredAnnotations)
	case hints.NamingPattern != "":
		return verifyNaming(source, violation.Line, hints.NamingPattern)
	default:
		return true, MethodNoHintTrustLLM
	}
}

var (
	catchHeadRe = regexp.MustCompile(`catch\s*\(`)
	ifHeadRe    = regexp.MustCompile(`(?:^|\W)(?:if\s*\(|else\s*\{)`)
)

// verifyEmptyBlock checks the "this block is empty" hypothesis.
//
// It locates the nearest block head matching headRe within the line
// window, brace-matches its body, and verifies iff the body is blank
// after comment stripping. When no head appears near the reported
// line the whole source is scanned for any empty occurrence before
// the hypothesis is rejected.
func verifyEmptyBlock(source string, reportedLine int, headRe *regexp.Regexp) (bool, string) {
	offsets := lineOffsets(source)
	lo := offsetOfLine(offsets, reportedLine-lineWindow)
	hiLine := reportedLine + lineWindow
	var hi int
	if hiLine >= len(offsets) {
		hi = len(source)
	} else {
		hi = offsetOfLine(offsets, hiLine+1)
	}

	if loc := nearestHead(source[lo:hi], headRe, offsetOfLine(offsets, reportedLine)-lo); loc >= 0 {
		empty := headBodyIsEmpty(source, lo+loc)
		return empty, MethodEmptyBlock
	}

	// Fall back to scanning the entire source.
	for _, loc := range headRe.FindAllStringIndex(source, -1) {
		if headBodyIsEmpty(source, loc[0]) {
			return true, MethodEmptyBlockGlobal
		}
	}
	return false, MethodEmptyBlockGlobal
}

// nearestHead returns the head occurrence closest to anchor within
// region, or -1.
func nearestHead(region string, headRe *regexp.Regexp, anchor int) int {
	best := -1
	bestDist := len(region) + 1
	for _, loc := range headRe.FindAllStringIndex(region, -1) {
		dist := loc[0] - anchor
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			bestDist = dist
			best = loc[0]
		}
	}
	return best
}

// headBodyIsEmpty brace-matches the block opened after headIdx and
// reports whether its body is blank.
func headBodyIsEmpty(source string, headIdx int) bool {
	open := strings.IndexByte(source[headIdx:], '{')
	if open < 0 {
		return false
	}
	open += headIdx
	closing := matchBrace(source, open)
	if closing < 0 {
		return false
	}
	return isBlankBody(source[open+1 : closing])
}

// methodSignatureRe approximates a Java method signature line: optional
// modifiers, a return type, a name, and an opening parenthesis.
var methodSignatureRe = regexp.MustCompile(
	`^\s*(?:(?:public|private|protected|static|final|synchronized|abstract|native|default)\s+)*` +
		`[\w$]+(?:\s*<[^>]*>)?(?:\[\])*\s+[\w$]+\s*\(`)

// controlKeywords are statement heads that would otherwise satisfy the
// signature regex.
var controlKeywords = map[string]struct{}{
	"if": {}, "while": {}, "for": {}, "switch": {}, "catch": {},
	"return": {}, "new": {}, "else": {}, "try": {}, "throw": {},
}

// looksLikeMethodSignature reports whether a line opens a method
// declaration rather than a control statement or call.
func looksLikeMethodSignature(line string) bool {
	if !methodSignatureRe.MatchString(line) {
		return false
	}
	first := identifierRe.FindString(line)
	_, control := controlKeywords[first]
	return !control
}

// verifyMethodLength checks the "this method is too long" hypothesis.
//
// It scans upward from the reported line for a method signature,
// brace-matches the method body, and verifies iff the line span
// exceeds the limit. When the enclosing method cannot be located it
// falls back to the structural analysis: does any method in the file
// exceed the limit.
func verifyMethodLength(source string, analysis *javaast.Analysis, reportedLine, maxLineCount int) (bool, string) {
	lines := strings.Split(source, "\n")
	start := reportedLine - 1
	if start >= len(lines) {
		start = len(lines) - 1
	}
	for i := start; i >= 0; i-- {
		if !looksLikeMethodSignature(lines[i]) {
			continue
		}
		offsets := lineOffsets(source)
		from := offsetOfLine(offsets, i+1)
		open := strings.IndexByte(source[from:], '{')
		if open < 0 {
			break
		}
		open += from
		closing := matchBrace(source, open)
		if closing < 0 {
			break
		}
		endLine := 1 + strings.Count(source[:closing], "\n")
		span := endLine - (i + 1) + 1
		return span > maxLineCount, MethodMethodLength
	}

	if analysis != nil {
		for _, m := range analysis.MethodDeclarations {
			if m.EndLine-m.StartLine+1 > maxLineCount {
				return true, MethodMethodLength
			}
		}
	}
	return false, MethodMethodLength
}

// verifyComplexity checks the file-level cyclomatic metric. The
// upstream analyzer computes a whole-file figure, not per-method.
func verifyComplexity(analysis *javaast.Analysis, maxComplexity int) (bool, string) {
	if analysis == nil {
		return true, MethodErrorTrustLLM
	}
	return analysis.CyclomaticComplexity > maxComplexity, MethodComplexity
}

var annotationScanRe = regexp.MustCompile(`@([A-Za-z_]\w*)`)

// verifyMissingAnnotation checks the "a required annotation is
// absent" hypothesis against the union of AST-observed annotations
// and a raw regex scan of the source.
func verifyMissingAnnotation(source string, analysis *javaast.Analysis, required []string) (bool, string) {
	present := make(map[string]struct{})
	if analysis != nil {
		for _, ann := range analysis.Annotations {
			present[strings.TrimPrefix(ann.Name, "@")] = struct{}{}
		}
	}
	for _, m := range annotationScanRe.FindAllStringSubmatch(source, -1) {
		present[m[1]] = struct{}{}
	}

	for _, name := range required {
		if _, ok := present[strings.TrimPrefix(name, "@")]; !ok {
			return true, MethodMissingAnnotation
		}
	}
	return false, MethodMissingAnnotation
}

// namingPatterns maps pattern names to identifier-shape regexes.
var namingPatterns = map[string]*regexp.Regexp{
	"PascalCase":       regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*$`),
	"camelCase":        regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`),
	"UPPER_SNAKE_CASE": regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`),
	"snake_case":       regexp.MustCompile(`^[a-z][a-z0-9_]*$`),
}

var identifierRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// javaKeywords excludes reserved words from naming checks.
var javaKeywords = map[string]struct{}{
	"abstract": {}, "assert": {}, "boolean": {}, "break": {}, "byte": {},
	"case": {}, "catch": {}, "char": {}, "class": {}, "const": {},
	"continue": {}, "default": {}, "do": {}, "double": {}, "else": {},
	"enum": {}, "extends": {}, "final": {}, "finally": {}, "float": {},
	"for": {}, "goto": {}, "if": {}, "implements": {}, "import": {},
	"instanceof": {}, "int": {}, "interface": {}, "long": {}, "native": {},
	"new": {}, "package": {}, "private": {}, "protected": {}, "public": {},
	"return": {}, "short": {}, "static": {}, "strictfp": {}, "super": {},
	"switch": {}, "synchronized": {}, "this": {}, "throw": {}, "throws": {},
	"transient": {}, "try": {}, "void": {}, "volatile": {}, "while": {},
	"var": {}, "record": {}, "true": {}, "false": {}, "null": {},
}

// verifyNaming checks the "an identifier on this line violates the
// naming convention" hypothesis.
//
// When no identifier on the exact reported line fails the pattern the
// LLM is trusted: naming meaning, as opposed to casing, is beyond
// mechanical verification.
func verifyNaming(source string, reportedLine int, pattern string) (bool, string) {
	re, known := namingPatterns[pattern]
	if !known {
		return true, MethodNamingTrustLLM
	}
	lines := strings.Split(source, "\n")
	if reportedLine < 1 || reportedLine > len(lines) {
		return true, MethodNamingTrustLLM
	}
	line := stripComments(lines[reportedLine-1])
	for _, ident := range identifierRe.FindAllString(line, -1) {
		if _, keyword := javaKeywords[ident]; keyword {
			continue
		}
		if !re.MatchString(ident) {
			return true, MethodNamingPattern
		}
	}
	return true, MethodNamingTrustLLM
}

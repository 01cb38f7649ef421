// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package analyzer wires the full guideline-analysis pipeline: AST
// parsing, tiered tag profiling, rule matching, LLM violation
// detection, and AST cross-verification of the reported violations.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/GuidelineTrace/services/analyzer/javaast"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/llm"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/matcher"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/profiler"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/rulesource"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/tagdef"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/tagexpr"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/verifier"
)

var tracer = otel.Tracer("guidelinetrace.analyzer")

// AnalyzeRequest identifies one source unit to analyze.
type AnalyzeRequest struct {
	FileName string `json:"fileName"`
	Source   string `json:"source"`
}

// AnalysisReport is the full result for one source unit.
type AnalysisReport struct {
	FileName   string                `json:"fileName"`
	Profile    *profiler.CodeProfile `json:"profile"`
	Matched    matcher.Summary       `json:"matchedRules"`
	Violations []verifier.Violation  `json:"violations"`
	Stats      ReportStats           `json:"stats"`
}

// ReportStats summarizes pipeline behavior for one analysis.
type ReportStats struct {
	RulesEvaluated     int           `json:"rulesEvaluated"`
	RulesMatched       int           `json:"rulesMatched"`
	ViolationsReported int           `json:"violationsReported"`
	ViolationsVerified int           `json:"violationsVerified"`
	ParseErrors        bool          `json:"parseErrors"`
	Duration           time.Duration `json:"duration"`
}

// Config assembles a Service.
type Config struct {
	Catalog    *tagdef.Catalog
	Client     llm.Client
	RuleSource rulesource.Source

	// MatchOptions overrides the matching policy. Nil uses
	// DefaultMatchOptions; a non-nil value is taken verbatim, so
	// SkipUntagged=false is honored.
	MatchOptions *matcher.MatchOptions

	RiskWeights *profiler.RiskWeights
}

// Service runs the analysis pipeline. One Service handles any number
// of concurrent analyses; per-analysis state is never shared.
type Service struct {
	parser     *javaast.Parser
	profiler   *profiler.Profiler
	matcher    *matcher.Matcher
	client     llm.Client
	ruleSource rulesource.Source
	matchOpts  matcher.MatchOptions
}

// NewService builds the pipeline. A nil Catalog uses the defaults, a
// nil RuleSource uses the built-in rules, and a nil Client disables
// both Tier-2 tagging and LLM violation detection.
func NewService(config Config) (*Service, error) {
	catalog := config.Catalog
	if catalog == nil {
		catalog = tagdef.DefaultCatalog()
	}
	ruleSource := config.RuleSource
	if ruleSource == nil {
		ruleSource = &rulesource.WithFallback{}
	}
	matchOpts := matcher.DefaultMatchOptions()
	if config.MatchOptions != nil {
		matchOpts = *config.MatchOptions
	}

	evaluator := tagexpr.NewEvaluator()
	profilerOpts := []profiler.Option{profiler.WithEvaluator(evaluator)}
	if config.RiskWeights != nil {
		profilerOpts = append(profilerOpts, profiler.WithRiskWeights(*config.RiskWeights))
	}

	return &Service{
		parser:     javaast.NewParser(),
		profiler:   profiler.NewProfiler(catalog, config.Client, profilerOpts...),
		matcher:    matcher.NewMatcher(matcher.WithEvaluator(evaluator)),
		client:     config.Client,
		ruleSource: ruleSource,
		matchOpts:  matchOpts,
	}, nil
}

// Analyze runs the full pipeline for one source unit.
//
// Description:
//
//	Parse failures, LLM failures, and rule-source failures all
//	degrade rather than abort: the report is built from whatever the
//	surviving stages produced. Only an empty source or a cancelled
//	context yields an error.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisReport, error) {
	ctx, span := tracer.Start(ctx, "analyzer.Analyze")
	defer span.End()
	start := time.Now()

	if req.Source == "" {
		return nil, fmt.Errorf("empty source")
	}

	analysis, err := s.parser.Parse(ctx, []byte(req.Source))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("AST parse failed, continuing with text-only analysis",
			"file", req.FileName, "error", err)
		analysis = nil
	}

	profile := s.profiler.GenerateProfile(ctx, req.Source, analysis)

	rules, err := s.ruleSource.SearchGuidelines(ctx, rulesource.Query{})
	if err != nil {
		slog.Warn("rule source failed, continuing with built-in defaults",
			"file", req.FileName, "error", err)
		rules = rulesource.DefaultRules()
	}

	prefiltered := s.matcher.PrefilterRules(profile.Tags, rules)
	report := s.matcher.MatchRules(profile, prefiltered, s.matchOpts)

	reported := s.detectViolations(ctx, req, report.Violations)
	verified := verifier.NewVerifier(rules).VerifyViolations(reported, analysis, req.Source)

	result := &AnalysisReport{
		FileName:   req.FileName,
		Profile:    profile,
		Matched:    matcher.SummarizeViolations(report.Violations),
		Violations: verified,
		Stats: ReportStats{
			RulesEvaluated:     report.Stats.Evaluated,
			RulesMatched:       report.Stats.Matched,
			ViolationsReported: len(reported),
			ViolationsVerified: len(verified),
			ParseErrors:        analysis == nil || analysis.HasParseErrors,
			Duration:           time.Since(start),
		},
	}

	span.SetAttributes(
		attribute.Int("analysis.rules_matched", report.Stats.Matched),
		attribute.Int("analysis.violations", len(verified)),
		attribute.String("analysis.risk_level", string(profile.RiskLevel)),
	)
	recordAnalysis(ctx, string(profile.RiskLevel), len(reported), len(verified), time.Since(start))
	return result, nil
}

// llmViolationReport is the JSON shape expected from the detection
// prompt.
type llmViolationReport struct {
	Violations []struct {
		RuleID      string `json:"ruleId"`
		Title       string `json:"title"`
		Line        int    `json:"line"`
		Column      int    `json:"column"`
		Severity    string `json:"severity"`
		Description string `json:"description"`
		Suggestion  string `json:"suggestion"`
	} `json:"violations"`
}

// detectViolations asks the model which matched rules the source
// actually violates. Failures degrade to zero violations.
func (s *Service) detectViolations(ctx context.Context, req AnalyzeRequest, matches []matcher.MatchResult) []verifier.Violation {
	if s.client == nil || len(matches) == 0 {
		return nil
	}

	candidates := matcher.FormatForLLMVerification(matches)
	prompt := buildDetectionPrompt(req.Source, candidates)

	resp, err := s.client.Complete(ctx, &llm.Request{
		SystemPrompt: detectionSystemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens:    2048,
		Temperature:  0,
	})
	if err != nil {
		slog.Warn("violation detection call failed, reporting zero violations",
			"file", req.FileName, "error", err)
		return nil
	}

	jsonText, err := llm.ExtractJSON(resp.Content)
	if err != nil {
		slog.Warn("violation detection response contained no JSON",
			"file", req.FileName, "error", err)
		return nil
	}

	var parsed llmViolationReport
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		slog.Warn("violation detection response did not match expected shape",
			"file", req.FileName, "error", err)
		return nil
	}

	known := make(map[string]matcher.MatchResult, len(matches))
	for _, m := range matches {
		known[m.RuleID] = m
	}

	violations := make([]verifier.Violation, 0, len(parsed.Violations))
	for _, raw := range parsed.Violations {
		match, ok := known[raw.RuleID]
		if !ok {
			slog.Debug("model reported a violation for an unmatched rule, ignoring",
				"file", req.FileName, "rule_id", raw.RuleID)
			continue
		}
		violation := verifier.Violation{
			RuleID:      raw.RuleID,
			Title:       raw.Title,
			Line:        raw.Line,
			Column:      raw.Column,
			Severity:    raw.Severity,
			Description: raw.Description,
			Suggestion:  raw.Suggestion,
		}
		if violation.Title == "" {
			violation.Title = match.Rule.Title
		}
		if violation.Severity == "" {
			violation.Severity = match.Rule.Severity
		}
		violations = append(violations, violation)
	}
	return violations
}

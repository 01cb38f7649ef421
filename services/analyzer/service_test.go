// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/GuidelineTrace/services/analyzer/llm"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/matcher"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/rulesource"
)

// scriptedClient answers tier-2 prompts with an empty tag list and
// detection prompts with a fixed violation report.
type scriptedClient struct {
	calls      atomic.Int32
	detections string
}

func (c *scriptedClient) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	c.calls.Add(1)
	content := req.Messages[0].Content
	if strings.Contains(content, "Tags to evaluate") {
		return &llm.Response{Content: `{"evaluatedTags":[]}`}, nil
	}
	return &llm.Response{Content: c.detections}, nil
}

const swallowingService = `package com.example.billing;

public class InvoiceService {
    public void post(Invoice invoice) {
        try {
            ledger.write(invoice);
        } catch (Exception e) {
        }
    }

    public void audit(Invoice invoice) {
        try {
            auditor.record(invoice);
        } catch (Exception e) {
            logger.error("audit failed", e);
        }
    }
}
`

func detectionJSON(t *testing.T, violations ...map[string]any) string {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"violations": violations})
	require.NoError(t, err)
	return string(payload)
}

func TestAnalyze_EmptyCatchEndToEnd(t *testing.T) {
	client := &scriptedClient{
		detections: detectionJSON(t,
			map[string]any{
				"ruleId":      "CTX-004",
				"line":        7,
				"severity":    "HIGH",
				"description": "catch block at line 7 is empty",
				"suggestion":  "log or rethrow the exception",
			},
			map[string]any{
				"ruleId":      "CTX-004",
				"line":        14,
				"severity":    "HIGH",
				"description": "claims the logging catch is empty",
			},
		),
	}

	service, err := NewService(Config{Client: client})
	require.NoError(t, err)

	report, err := service.Analyze(context.Background(), AnalyzeRequest{
		FileName: "InvoiceService.java",
		Source:   swallowingService,
	})
	require.NoError(t, err)

	// The true empty catch survives verification; the hallucinated one
	// (the catch at line 14 contains a statement) is removed.
	require.Len(t, report.Violations, 1)
	violation := report.Violations[0]
	assert.Equal(t, "CTX-004", violation.RuleID)
	assert.Equal(t, 7, violation.Line)
	assert.True(t, violation.ASTVerified)
	assert.Equal(t, "Empty catch block swallows exceptions", violation.Title)

	assert.Equal(t, 2, report.Stats.ViolationsReported)
	assert.Equal(t, 1, report.Stats.ViolationsVerified)
	assert.True(t, report.Profile.HasTag("HAS_EMPTY_CATCH"))
	assert.True(t, report.Profile.HasTag("SWALLOWED_EXCEPTIONS"))
}

func TestAnalyze_NoClientStillProfilesAndMatches(t *testing.T) {
	service, err := NewService(Config{})
	require.NoError(t, err)

	report, err := service.Analyze(context.Background(), AnalyzeRequest{
		FileName: "InvoiceService.java",
		Source:   swallowingService,
	})
	require.NoError(t, err)

	assert.Empty(t, report.Violations, "no LLM means no reported violations")
	assert.NotZero(t, report.Matched.Total, "matching is independent of the LLM")
	assert.True(t, report.Profile.HasTag("HAS_EMPTY_CATCH"))
}

func TestAnalyze_EmptySourceRejected(t *testing.T) {
	service, err := NewService(Config{})
	require.NoError(t, err)

	_, err = service.Analyze(context.Background(), AnalyzeRequest{FileName: "A.java"})
	require.Error(t, err)
}

func TestAnalyze_UnmatchedRuleReportsIgnored(t *testing.T) {
	client := &scriptedClient{
		detections: detectionJSON(t, map[string]any{
			"ruleId":   "CTX-001",
			"line":     3,
			"severity": "CRITICAL",
		}),
	}
	service, err := NewService(Config{Client: client})
	require.NoError(t, err)

	// The source has no SQL at all, so CTX-001 never matched and the
	// model's report for it is discarded.
	report, err := service.Analyze(context.Background(), AnalyzeRequest{
		FileName: "InvoiceService.java",
		Source:   swallowingService,
	})
	require.NoError(t, err)

	for _, violation := range report.Violations {
		assert.NotEqual(t, "CTX-001", violation.RuleID)
	}
}

func TestAnalyze_MalformedDetectionDegrades(t *testing.T) {
	client := &scriptedClient{detections: "no json here"}
	service, err := NewService(Config{Client: client})
	require.NoError(t, err)

	report, err := service.Analyze(context.Background(), AnalyzeRequest{
		FileName: "InvoiceService.java",
		Source:   swallowingService,
	})
	require.NoError(t, err)
	assert.Empty(t, report.Violations)
	assert.NotZero(t, report.Matched.Total)
}

func TestAnalyze_RuleSourceFailureDegradesToDefaults(t *testing.T) {
	service, err := NewService(Config{
		RuleSource: &rulesource.WithFallback{Primary: failingRuleSource{}},
	})
	require.NoError(t, err)

	report, err := service.Analyze(context.Background(), AnalyzeRequest{
		FileName: "InvoiceService.java",
		Source:   swallowingService,
	})
	require.NoError(t, err)
	assert.NotZero(t, report.Stats.RulesEvaluated)
}

func TestNewService_MatchOptionsOverride(t *testing.T) {
	run := func(opts *matcher.MatchOptions) *AnalysisReport {
		service, err := NewService(Config{
			RuleSource:   untaggedRuleSource{},
			MatchOptions: opts,
		})
		require.NoError(t, err)
		report, err := service.Analyze(context.Background(), AnalyzeRequest{
			FileName: "InvoiceService.java",
			Source:   swallowingService,
		})
		require.NoError(t, err)
		return report
	}

	// Nil falls back to the defaults, which skip untagged rules.
	defaulted := run(nil)
	for _, top := range defaulted.Matched.Top {
		assert.NotEqual(t, "ORG-001", top.RuleID)
	}

	// An explicit all-zero option set is taken verbatim, so the
	// untagged rule now matches.
	permissive := run(&matcher.MatchOptions{SkipUntagged: false})
	assert.Equal(t, defaulted.Matched.Total+1, permissive.Matched.Total)
	found := false
	for _, top := range permissive.Matched.Top {
		if top.RuleID == "ORG-001" {
			found = true
		}
	}
	assert.True(t, found, "untagged rule should match when SkipUntagged is false")
}

// untaggedRuleSource pairs a condition-free rule with a tagged one.
type untaggedRuleSource struct{}

func (untaggedRuleSource) SearchGuidelines(ctx context.Context, query rulesource.Query) ([]matcher.Rule, error) {
	return []matcher.Rule{
		{RuleID: "ORG-001", Title: "Requires manual review", Severity: "LOW", Category: "process"},
		{RuleID: "CTX-004", Title: "Empty catch", Severity: "HIGH", Category: "error-handling",
			TagCondition: "HAS_EMPTY_CATCH"},
	}, nil
}

type failingRuleSource struct{}

func (failingRuleSource) SearchGuidelines(ctx context.Context, query rulesource.Query) ([]matcher.Rule, error) {
	return nil, fmt.Errorf("weaviate down")
}

func TestAnalyze_ConcurrentAnalyses(t *testing.T) {
	service, err := NewService(Config{})
	require.NoError(t, err)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := service.Analyze(context.Background(), AnalyzeRequest{
				FileName: "InvoiceService.java",
				Source:   swallowingService,
			})
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}

func TestBuildDetectionPrompt(t *testing.T) {
	prompt := buildDetectionPrompt("class A {\n}\n", []matcher.VerificationCandidate{
		{RuleID: "CTX-004", Severity: "HIGH", Title: "Empty catch", BadExample: "catch (Exception e) { }"},
	})
	assert.Contains(t, prompt, "CTX-004")
	assert.Contains(t, prompt, "   1| class A {")
	assert.Contains(t, prompt, `"violations"`)
}

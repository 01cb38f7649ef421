// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package profiler

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/GuidelineTrace/services/analyzer/javaast"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/llm"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/tagdef"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/tagexpr"
)

// Option configures a Profiler.
type Option func(*Profiler)

// WithRiskWeights overrides the risk-scoring table.
func WithRiskWeights(weights RiskWeights) Option {
	return func(p *Profiler) { p.weights = weights }
}

// WithEvaluator supplies a shared expression evaluator. When omitted a
// private evaluator with the default cache size is created.
func WithEvaluator(evaluator *tagexpr.Evaluator) Option {
	return func(p *Profiler) { p.evaluator = evaluator }
}

// Profiler produces CodeProfiles for Java source units.
//
// Description:
//
//	Profiling runs Tier 1 synchronously, escalates undecided tier-2
//	tags to at most one LLM call, evaluates compound expressions over
//	the merged set, infers categories, and scores risk. A nil llm
//	Client disables Tier 2 entirely.
//
// Thread Safety: Safe for concurrent use; profiles for different
// source units are independent.
type Profiler struct {
	catalog   *tagdef.Catalog
	client    llm.Client
	evaluator *tagexpr.Evaluator
	weights   RiskWeights
	inflight  singleflight.Group
}

// NewProfiler creates a Profiler over the given catalog. client may be
// nil to run Tier 1 only.
func NewProfiler(catalog *tagdef.Catalog, client llm.Client, opts ...Option) *Profiler {
	p := &Profiler{
		catalog: catalog,
		client:  client,
		weights: DefaultRiskWeights(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.evaluator == nil {
		p.evaluator = tagexpr.NewEvaluator()
	}
	return p
}

// GenerateProfile profiles one source unit.
//
// Inputs:
//
//	ctx - Context for cancellation, passed through to the LLM call.
//	source - Raw Java source text.
//	analysis - Pre-parsed structural summary. May be nil; structural
//	           detectors then stay silent.
//
// Outputs:
//
//	*CodeProfile - Never nil. Tier-2 failures degrade to a Tier-1-only
//	               profile rather than erroring.
func (p *Profiler) GenerateProfile(ctx context.Context, source string, analysis *javaast.Analysis) *CodeProfile {
	ctx, span := tracer.Start(ctx, "profiler.GenerateProfile")
	defer span.End()
	start := time.Now()

	tags, details := extractTier1Tags(source, analysis)
	tier1Count := len(tags)

	tier2Count := 0
	tier2Invoked := false
	tier2Degraded := false
	if p.client != nil {
		if candidates := needsTier2Tagging(p.catalog, tags); len(candidates) > 0 {
			tier2Invoked = true
			tier2Tags, tier2Details, degraded := p.extractTier2Tags(ctx, source, tags, candidates)
			tier2Degraded = degraded
			for name := range tier2Tags {
				tags[name] = struct{}{}
			}
			for name, detail := range tier2Details {
				details[name] = detail
			}
			tier2Count = len(tier2Tags)
		}
	}

	compounds := evaluateCompoundTags(p.catalog, p.evaluator, tags)
	compoundCount := 0
	for name, result := range compounds {
		if !result.Matched {
			continue
		}
		compoundCount++
		tags[name] = struct{}{}
		details[name] = TagDetail{
			Matched:    true,
			Source:     SourceCompound,
			Confidence: 1.0,
			Evidence:   result.Expression,
		}
	}

	score, level := assessRisk(p.weights, tags, compounds)
	categories := inferCategories(tags)

	profile := &CodeProfile{
		Tags:         tags,
		TagDetails:   details,
		Categories:   categories,
		RiskLevel:    level,
		CompoundTags: compounds,
		Metadata:     buildMetadata(source, analysis),
		Stats: Stats{
			Tier1Tags:     tier1Count,
			Tier2Tags:     tier2Count,
			CompoundTags:  compoundCount,
			Tier2Invoked:  tier2Invoked,
			Tier2Degraded: tier2Degraded,
			RiskScore:     score,
		},
	}

	span.SetAttributes(
		attribute.Int("profile.tags", len(tags)),
		attribute.String("profile.risk_level", string(level)),
		attribute.Bool("profile.tier2_invoked", tier2Invoked),
	)
	recordProfileGenerated(ctx, string(level), tier2Invoked, time.Since(start))

	return profile
}

// buildMetadata derives the structural metadata block.
func buildMetadata(source string, analysis *javaast.Analysis) Metadata {
	meta := Metadata{}
	if analysis != nil {
		meta.ClassName = analysis.PrimaryClassName()
		meta.PackageName = analysis.PackageName
		meta.LineCount = analysis.LineCount
		meta.MethodCount = analysis.MethodCount()
		return meta
	}
	meta.LineCount = 1
	for _, r := range source {
		if r == '\n' {
			meta.LineCount++
		}
	}
	if source == "" {
		meta.LineCount = 0
	}
	return meta
}

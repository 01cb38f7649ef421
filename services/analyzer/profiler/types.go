// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package profiler produces a CodeProfile for one Java source unit:
// a tag set extracted in two tiers (deterministic detectors, then an
// optional batched LLM pass), compound-tag evaluation, category
// inference, and an additive risk score.
package profiler

import (
	"encoding/json"
	"sort"

	"github.com/AleutianAI/GuidelineTrace/services/analyzer/tagdef"
)

// Tag sources recorded in TagDetail.Source.
const (
	SourceTier1    = "tier1"
	SourceTier2    = "tier2"
	SourceCompound = "compound"
)

// RiskLevel classifies the aggregate risk of a profiled code unit.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// TagDetail is the per-tag evidence attached when a tag is asserted.
// It is purely diagnostic and never affects matching logic.
type TagDetail struct {
	Matched    bool    `json:"matched"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence,omitempty"`
}

// CompoundTagResult records the evaluation of one compound-tag
// expression against the merged tag set.
type CompoundTagResult struct {
	Matched     bool            `json:"matched"`
	Expression  string          `json:"expression"`
	Severity    tagdef.Severity `json:"severity"`
	Description string          `json:"description,omitempty"`
}

// Metadata carries structural facts about the profiled unit.
type Metadata struct {
	ClassName   string `json:"className,omitempty"`
	PackageName string `json:"packageName,omitempty"`
	LineCount   int    `json:"lineCount"`
	MethodCount int    `json:"methodCount"`
}

// Stats summarizes how the profile was produced.
type Stats struct {
	Tier1Tags     int  `json:"tier1Tags"`
	Tier2Tags     int  `json:"tier2Tags"`
	CompoundTags  int  `json:"compoundTags"`
	Tier2Invoked  bool `json:"tier2Invoked"`
	Tier2Degraded bool `json:"tier2Degraded"`
	RiskScore     int  `json:"riskScore"`
}

// CodeProfile is the aggregate result of profiling one code unit.
// It is created fresh per analysis call and immutable once returned.
type CodeProfile struct {
	Tags         map[string]struct{}          `json:"-"`
	TagDetails   map[string]TagDetail         `json:"tagDetails"`
	Categories   []string                     `json:"categories"`
	RiskLevel    RiskLevel                    `json:"riskLevel"`
	CompoundTags map[string]CompoundTagResult `json:"compoundTags"`
	Metadata     Metadata                     `json:"metadata"`
	Stats        Stats                        `json:"stats"`
}

// TagNames returns the merged tag set as a sorted slice.
func (p *CodeProfile) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for name := range p.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasTag reports whether the merged tag set contains name.
func (p *CodeProfile) HasTag(name string) bool {
	_, ok := p.Tags[name]
	return ok
}

// MarshalJSON serializes the merged tag set as a sorted "tags" array
// alongside the regular fields. The map form is internal only.
func (p *CodeProfile) MarshalJSON() ([]byte, error) {
	type alias CodeProfile
	return json.Marshal(&struct {
		Tags []string `json:"tags"`
		*alias
	}{
		Tags:  p.TagNames(),
		alias: (*alias)(p),
	})
}

// UnmarshalJSON rebuilds the tag set map from the "tags" array so
// HasTag works on decoded profiles.
func (p *CodeProfile) UnmarshalJSON(data []byte) error {
	type alias CodeProfile
	aux := struct {
		Tags []string `json:"tags"`
		*alias
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.Tags = make(map[string]struct{}, len(aux.Tags))
	for _, name := range aux.Tags {
		p.Tags[name] = struct{}{}
	}
	return nil
}

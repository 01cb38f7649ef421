// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package profiler

import (
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/tagdef"
)

// RiskWeights holds the additive risk-scoring constants. The weights
// are empirically chosen and exposed as configuration so they can be
// tuned without touching the scoring algorithm.
type RiskWeights struct {
	CompoundCritical int `yaml:"compoundCritical" json:"compoundCritical"`
	CompoundHigh     int `yaml:"compoundHigh" json:"compoundHigh"`
	CompoundMedium   int `yaml:"compoundMedium" json:"compoundMedium"`
	CompoundLow      int `yaml:"compoundLow" json:"compoundLow"`

	CriticalTag int `yaml:"criticalTag" json:"criticalTag"`
	HighTag     int `yaml:"highTag" json:"highTag"`
	MediumTag   int `yaml:"mediumTag" json:"mediumTag"`

	UnmanagedResourcePenalty int `yaml:"unmanagedResourcePenalty" json:"unmanagedResourcePenalty"`

	CriticalThreshold int `yaml:"criticalThreshold" json:"criticalThreshold"`
	HighThreshold     int `yaml:"highThreshold" json:"highThreshold"`
	MediumThreshold   int `yaml:"mediumThreshold" json:"mediumThreshold"`
}

// DefaultRiskWeights returns the standard scoring table.
func DefaultRiskWeights() RiskWeights {
	return RiskWeights{
		CompoundCritical:         10,
		CompoundHigh:             5,
		CompoundMedium:           2,
		CompoundLow:              1,
		CriticalTag:              8,
		HighTag:                  4,
		MediumTag:                2,
		UnmanagedResourcePenalty: 6,
		CriticalThreshold:        15,
		HighThreshold:            8,
		MediumThreshold:          3,
	}
}

// Base tags bucketed by intrinsic severity for risk scoring.
var (
	criticalRiskTags = []string{
		tagdef.TagHasSQLConcatenation,
		tagdef.TagHasHardcodedSecret,
	}
	highRiskTags = []string{
		tagdef.TagHasEmptyCatch,
		tagdef.TagUsesStringFormatSQL,
	}
	mediumRiskTags = []string{
		tagdef.TagHasGenericCatch,
		tagdef.TagHasPrintStackTrace,
		tagdef.TagHasHighComplexity,
		tagdef.TagHasDeepNesting,
		tagdef.TagHasLargeMethod,
	}
)

// resourceAcquisitionTags and resourceManagementTags drive the
// unmanaged-resource penalty.
var (
	resourceAcquisitionTags = []string{
		tagdef.TagUsesConnection,
		tagdef.TagUsesStatement,
		tagdef.TagUsesResultSet,
		tagdef.TagUsesStream,
	}
	resourceManagementTags = []string{
		tagdef.TagHasTryWithResources,
		tagdef.TagHasCloseInFinally,
	}
)

// assessRisk computes the additive risk score and maps it through the
// configured thresholds.
//
// Outputs:
//
//	int - The raw accumulated score.
//	RiskLevel - critical when score >= CriticalThreshold, then high,
//	            then medium, else low.
func assessRisk(weights RiskWeights, tags map[string]struct{}, compounds map[string]CompoundTagResult) (int, RiskLevel) {
	score := 0

	for _, result := range compounds {
		if !result.Matched {
			continue
		}
		switch result.Severity {
		case tagdef.SeverityCritical:
			score += weights.CompoundCritical
		case tagdef.SeverityHigh:
			score += weights.CompoundHigh
		case tagdef.SeverityMedium:
			score += weights.CompoundMedium
		case tagdef.SeverityLow:
			score += weights.CompoundLow
		}
	}

	for _, name := range criticalRiskTags {
		if _, ok := tags[name]; ok {
			score += weights.CriticalTag
		}
	}
	for _, name := range highRiskTags {
		if _, ok := tags[name]; ok {
			score += weights.HighTag
		}
	}
	for _, name := range mediumRiskTags {
		if _, ok := tags[name]; ok {
			score += weights.MediumTag
		}
	}

	if anyTagPresent(tags, resourceAcquisitionTags) && !anyTagPresent(tags, resourceManagementTags) {
		score += weights.UnmanagedResourcePenalty
	}

	switch {
	case score >= weights.CriticalThreshold:
		return score, RiskCritical
	case score >= weights.HighThreshold:
		return score, RiskHigh
	case score >= weights.MediumThreshold:
		return score, RiskMedium
	default:
		return score, RiskLow
	}
}

func anyTagPresent(tags map[string]struct{}, names []string) bool {
	for _, name := range names {
		if _, ok := tags[name]; ok {
			return true
		}
	}
	return false
}

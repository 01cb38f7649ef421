// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package profiler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeProfile_JSONRoundTrip(t *testing.T) {
	profile := &CodeProfile{
		Tags: map[string]struct{}{
			"HAS_EMPTY_CATCH":    {},
			"IS_SERVICE":         {},
			"USES_CONNECTION":    {},
			"SQL_INJECTION_RISK": {},
		},
		TagDetails: map[string]TagDetail{
			"HAS_EMPTY_CATCH": {Matched: true, Source: SourceTier1, Confidence: 1.0},
		},
		Categories: []string{"error-handling"},
		RiskLevel:  RiskHigh,
		CompoundTags: map[string]CompoundTagResult{
			"SQL_INJECTION_RISK": {Matched: true, Expression: "USES_CONNECTION && HAS_SQL_CONCATENATION"},
		},
		Metadata: Metadata{ClassName: "OrderDao", LineCount: 42, MethodCount: 3},
		Stats:    Stats{Tier1Tags: 3, CompoundTags: 1, RiskScore: 9},
	}

	data, err := json.Marshal(profile)
	require.NoError(t, err)

	// The wire form carries the tag names; the map form never does.
	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	tags, ok := wire["tags"].([]any)
	require.True(t, ok, "serialized profile must carry a tags array")
	assert.Len(t, tags, 4)
	assert.Equal(t, "HAS_EMPTY_CATCH", tags[0], "tags must be sorted")

	var decoded CodeProfile
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.True(t, decoded.HasTag("HAS_EMPTY_CATCH"))
	assert.True(t, decoded.HasTag("SQL_INJECTION_RISK"))
	assert.False(t, decoded.HasTag("IS_CONTROLLER"))
	assert.Equal(t, profile.TagNames(), decoded.TagNames())
	assert.Equal(t, RiskHigh, decoded.RiskLevel)
	assert.Equal(t, "OrderDao", decoded.Metadata.ClassName)
	assert.Equal(t, 9, decoded.Stats.RiskScore)
	assert.True(t, decoded.CompoundTags["SQL_INJECTION_RISK"].Matched)
}

func TestCodeProfile_MarshalEmptyTagSet(t *testing.T) {
	profile := &CodeProfile{Tags: map[string]struct{}{}}

	data, err := json.Marshal(profile)
	require.NoError(t, err)

	var decoded CodeProfile
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.NotNil(t, decoded.Tags)
	assert.Empty(t, decoded.TagNames())
}

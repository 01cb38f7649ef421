// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package profiler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/AleutianAI/GuidelineTrace/services/analyzer/llm"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/tagdef"
)

// maxPromptSourceChars caps how much source is embedded in the Tier-2
// prompt. Longer files are truncated with a marker.
const maxPromptSourceChars = 3000

const truncationMarker = "\n... [source truncated] ..."

const tier2SystemPrompt = `You are a static-analysis assistant. You evaluate whether semantic ` +
	`properties hold for a Java source file. Respond with a single JSON object and nothing else.`

// tier2Response is the JSON shape expected back from the model.
type tier2Response struct {
	EvaluatedTags []tier2TagResult `json:"evaluatedTags"`
}

type tier2TagResult struct {
	TagName    string  `json:"tagName"`
	Value      bool    `json:"value"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence"`
}

// needsTier2Tagging decides whether an LLM escalation pass is
// required.
//
// Description:
//
//	A tag is a candidate for escalation only if its definition is
//	declared tier=2 and Tier 1 did not already assert it. When no
//	candidates remain the LLM is never called; Tier-2 cost is bounded
//	by undecided tags, not by catalog size.
//
// Outputs:
//
//	[]tagdef.TagDefinition - Candidates in catalog order. Empty means
//	skip Tier 2 entirely.
func needsTier2Tagging(catalog *tagdef.Catalog, tier1Tags map[string]struct{}) []tagdef.TagDefinition {
	var candidates []tagdef.TagDefinition
	for _, def := range catalog.Tier2Tags() {
		if _, decided := tier1Tags[def.Name]; decided {
			continue
		}
		candidates = append(candidates, def)
	}
	return candidates
}

// extractTier2Tags runs one batched LLM evaluation for all candidate
// tags.
//
// Description:
//
//	Builds a single prompt containing the (capped) source, the tags
//	Tier 1 already asserted, and each candidate's name, description,
//	and criteria, then issues exactly one completion call for the
//	whole batch. Any parse failure or malformed response degrades to
//	"no Tier-2 tags added"; this path never returns an error to the
//	caller.
//
// Thread Safety: Safe for concurrent use. Identical in-flight
// requests are coalesced via singleflight.
func (p *Profiler) extractTier2Tags(
	ctx context.Context,
	source string,
	tier1Tags map[string]struct{},
	candidates []tagdef.TagDefinition,
) (map[string]struct{}, map[string]TagDetail, bool) {
	tags := make(map[string]struct{})
	details := make(map[string]TagDetail)

	prompt := buildTier2Prompt(source, tier1Tags, candidates)
	key := tier2Key(source, candidates)

	result, err, _ := p.inflight.Do(key, func() (any, error) {
		return p.client.Complete(ctx, &llm.Request{
			SystemPrompt: tier2SystemPrompt,
			Messages:     []llm.Message{{Role: "user", Content: prompt}},
			MaxTokens:    1024,
			Temperature:  0,
		})
	})
	if err != nil {
		slog.Warn("tier-2 tag extraction failed, degrading to tier-1 tags only", "error", err)
		recordTier2Degraded(ctx)
		return tags, details, true
	}

	resp := result.(*llm.Response)
	jsonText, err := llm.ExtractJSON(resp.Content)
	if err != nil {
		slog.Warn("tier-2 response contained no JSON, degrading", "error", err)
		recordTier2Degraded(ctx)
		return tags, details, true
	}

	var parsed tier2Response
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		slog.Warn("tier-2 response JSON did not match expected shape, degrading", "error", err)
		recordTier2Degraded(ctx)
		return tags, details, true
	}

	known := make(map[string]struct{}, len(candidates))
	for _, def := range candidates {
		known[def.Name] = struct{}{}
	}
	for _, evaluated := range parsed.EvaluatedTags {
		if !evaluated.Value {
			continue
		}
		if _, ok := known[evaluated.TagName]; !ok {
			slog.Debug("tier-2 response asserted an unrequested tag, ignoring", "tag", evaluated.TagName)
			continue
		}
		tags[evaluated.TagName] = struct{}{}
		details[evaluated.TagName] = TagDetail{
			Matched:    true,
			Source:     SourceTier2,
			Confidence: clampConfidence(evaluated.Confidence),
			Evidence:   evaluated.Evidence,
		}
	}
	return tags, details, false
}

// buildTier2Prompt assembles the single batched evaluation prompt.
func buildTier2Prompt(source string, tier1Tags map[string]struct{}, candidates []tagdef.TagDefinition) string {
	var b strings.Builder

	b.WriteString("Evaluate whether each of the following properties holds for the Java source below.\n\n")

	b.WriteString("## Source\n```java\n")
	if len(source) > maxPromptSourceChars {
		b.WriteString(source[:maxPromptSourceChars])
		b.WriteString(truncationMarker)
	} else {
		b.WriteString(source)
	}
	b.WriteString("\n```\n\n")

	if len(tier1Tags) > 0 {
		names := make([]string, 0, len(tier1Tags))
		for name := range tier1Tags {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("## Already established (context only, do not re-evaluate)\n")
		b.WriteString(strings.Join(names, ", "))
		b.WriteString("\n\n")
	}

	b.WriteString("## Tags to evaluate\n")
	for _, def := range candidates {
		fmt.Fprintf(&b, "- %s: %s", def.Name, def.Description)
		if def.Criteria != "" {
			fmt.Fprintf(&b, " Criteria: %s", def.Criteria)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nRespond with JSON of the form:\n")
	b.WriteString(`{"evaluatedTags":[{"tagName":"...","value":true,"confidence":0.9,"evidence":"..."}]}`)
	b.WriteString("\nInclude every tag listed above exactly once.")
	return b.String()
}

// tier2Key builds the singleflight coalescing key.
func tier2Key(source string, candidates []tagdef.TagDefinition) string {
	h := sha256.New()
	h.Write([]byte(source))
	for _, def := range candidates {
		h.Write([]byte{0})
		h.Write([]byte(def.Name))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

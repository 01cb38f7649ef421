// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analyzer

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/GuidelineTrace/services/analyzer/matcher"
)

// maxDetectionSourceChars caps the source embedded in the violation
// detection prompt.
const maxDetectionSourceChars = 12000

const detectionSystemPrompt = `You are a static-analysis assistant reviewing Java source against ` +
	`specific coding guidelines. Report only violations of the rules you are given, with exact ` +
	`line numbers. Respond with a single JSON object and nothing else.`

// buildDetectionPrompt lists the matched rules and asks for concrete
// violations with line numbers.
func buildDetectionPrompt(source string, candidates []matcher.VerificationCandidate) string {
	var b strings.Builder

	b.WriteString("Review the Java source below against each rule. Report every concrete violation.\n\n")

	b.WriteString("## Source (line numbers included)\n```java\n")
	b.WriteString(numberLines(truncate(source, maxDetectionSourceChars)))
	b.WriteString("\n```\n\n")

	b.WriteString("## Rules\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s [%s]: %s", c.RuleID, c.Severity, c.Title)
		if c.Description != "" {
			fmt.Fprintf(&b, ": %s", c.Description)
		}
		if c.BadExample != "" {
			fmt.Fprintf(&b, " Example violation: %s", c.BadExample)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nRespond with JSON of the form:\n")
	b.WriteString(`{"violations":[{"ruleId":"...","title":"...","line":1,"column":0,` +
		`"severity":"HIGH","description":"...","suggestion":"..."}]}`)
	b.WriteString("\nReport an empty violations array if nothing violates the rules.")
	return b.String()
}

func truncate(source string, limit int) string {
	if len(source) <= limit {
		return source
	}
	return source[:limit] + "\n... [source truncated] ..."
}

// numberLines prefixes each line with its 1-based number so the model
// can report exact locations.
func numberLines(source string) string {
	lines := strings.Split(source, "\n")
	var b strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&b, "%4d| %s\n", i+1, line)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/GuidelineTrace/services/analyzer"
)

var (
	analyzeTimeout time.Duration
	analyzeCompact bool
	analyzeFailOn  string
)

// analyzeCmd runs the pipeline on local files and prints JSON reports.
//
// # Examples
//
//	guideline-trace analyze src/main/java/OrderDao.java
//	guideline-trace analyze --fail-on HIGH src/**/*.java
var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Analyze Java source files and print JSON reports",
	Long: `Runs the analysis pipeline on each file and prints one JSON report
per file to stdout. Diagnostics go to stderr.

Tier-2 tagging and LLM violation detection require LLM_BACKEND_TYPE to
be configured; without it the analysis is AST and pattern based only.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 2*time.Minute, "Per-file analysis timeout")
	analyzeCmd.Flags().BoolVar(&analyzeCompact, "compact", false, "Print compact JSON instead of indented")
	analyzeCmd.Flags().StringVar(&analyzeFailOn, "fail-on", "", "Exit non-zero when a violation of this severity (or higher) survives verification")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	svc, err := buildService()
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	if !analyzeCompact {
		encoder.SetIndent("", "  ")
	}

	threshold := severityRank(analyzeFailOn)
	failed := false

	for _, path := range args {
		source, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
		report, err := svc.Analyze(ctx, analyzer.AnalyzeRequest{
			FileName: filepath.Base(path),
			Source:   string(source),
		})
		cancel()
		if err != nil {
			return fmt.Errorf("analyze %s: %w", path, err)
		}

		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}

		if threshold > 0 {
			for _, v := range report.Violations {
				if severityRank(v.Severity) >= threshold {
					failed = true
				}
			}
		}
	}

	if failed {
		return fmt.Errorf("violations at or above %s severity found", analyzeFailOn)
	}
	return nil
}

// severityRank orders severities for the fail-on threshold. Unknown
// or empty severities rank 0, which disables the check.
func severityRank(severity string) int {
	switch severity {
	case "LOW":
		return 1
	case "MEDIUM":
		return 2
	case "HIGH":
		return 3
	case "CRITICAL":
		return 4
	default:
		return 0
	}
}

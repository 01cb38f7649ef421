// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command guideline-trace analyzes Java source files against coding
// guidelines, either as a one-shot CLI or as an HTTP service.
//
// Usage:
//
//	guideline-trace analyze path/to/File.java
//	guideline-trace serve -port 8080
package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/GuidelineTrace/pkg/logging"
)

var (
	logLevel string
	logDir   string

	appLogger *logging.Logger

	rootCmd = &cobra.Command{
		Use:   "guideline-trace",
		Short: "Analyze Java source files against coding guidelines",
		Long: `GuidelineTrace profiles Java source files with AST and LLM tagging,
matches them against a guideline rule base, and cross-verifies reported
violations against the parsed AST.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			appLogger = logging.New(logging.Config{
				Level:   logging.ParseLevel(logLevel),
				LogDir:  logDir,
				Service: "guideline-trace",
			})
			appLogger.SetAsDefault()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appLogger != nil {
				appLogger.Close()
			}
		},
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Directory for JSON log files (disabled when empty)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package httpapi

import "github.com/AleutianAI/GuidelineTrace/services/analyzer"

// AnalyzeHTTPRequest is the body of POST /api/v1/analyze.
type AnalyzeHTTPRequest struct {
	// FileName labels the source unit in the report. Optional.
	FileName string `json:"fileName"`

	// Source is the Java source text. Required.
	Source string `json:"source" binding:"required"`
}

// BatchAnalyzeRequest is the body of POST /api/v1/analyze/batch.
type BatchAnalyzeRequest struct {
	Files []AnalyzeHTTPRequest `json:"files" binding:"required"`
}

// BatchAnalyzeResponse pairs each input file with its report or error.
type BatchAnalyzeResponse struct {
	Reports []BatchEntry `json:"reports"`
}

// BatchEntry is one file's outcome within a batch.
type BatchEntry struct {
	FileName string                   `json:"fileName"`
	Report   *analyzer.AnalysisReport `json:"report,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code (optional).
	Code string `json:"code,omitempty"`
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package httpapi exposes the analysis pipeline over HTTP.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/GuidelineTrace/services/analyzer"
)

// ServiceVersion is the analyzer service version.
const ServiceVersion = "0.1.0"

// maxBatchFiles bounds one batch request.
const maxBatchFiles = 50

// Handlers contains the HTTP handlers for the analyzer.
type Handlers struct {
	svc *analyzer.Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *analyzer.Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleAnalyze handles POST /api/v1/analyze.
//
// Description:
//
//	Runs the full pipeline for one Java source unit and returns the
//	analysis report. Pipeline-internal failures degrade inside the
//	service; only an unusable request yields a non-200 status.
//
// Response:
//
//	200 OK: analyzer.AnalysisReport
//	400 Bad Request: Validation error
//	500 Internal Server Error: Processing error
func (h *Handlers) HandleAnalyze(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAnalyze")

	var req AnalyzeHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	logger.Info("Analyzing source", "file", req.FileName, "bytes", len(req.Source))

	report, err := h.svc.Analyze(c.Request.Context(), analyzer.AnalyzeRequest{
		FileName: req.FileName,
		Source:   req.Source,
	})
	if err != nil {
		logger.Warn("Analysis failed", "error", err)
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: err.Error(),
			Code:  "ANALYSIS_FAILED",
		})
		return
	}

	logger.Info("Analysis complete",
		"file", req.FileName,
		"risk_level", report.Profile.RiskLevel,
		"violations", len(report.Violations))

	c.JSON(http.StatusOK, report)
}

// HandleAnalyzeBatch handles POST /api/v1/analyze/batch.
//
// Description:
//
//	Runs the pipeline for each file in order. Per-file failures are
//	reported inline so one bad file does not fail the batch.
//
// Response:
//
//	200 OK: BatchAnalyzeResponse
//	400 Bad Request: Validation error or empty/oversized batch
func (h *Handlers) HandleAnalyzeBatch(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAnalyzeBatch")

	var req BatchAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if len(req.Files) == 0 || len(req.Files) > maxBatchFiles {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Batch must contain between 1 and 50 files",
			Code:  "INVALID_BATCH_SIZE",
		})
		return
	}

	resp := BatchAnalyzeResponse{Reports: make([]BatchEntry, 0, len(req.Files))}
	for _, file := range req.Files {
		entry := BatchEntry{FileName: file.FileName}
		report, err := h.svc.Analyze(c.Request.Context(), analyzer.AnalyzeRequest{
			FileName: file.FileName,
			Source:   file.Source,
		})
		if err != nil {
			if c.Request.Context().Err() != nil {
				logger.Warn("Batch cancelled", "error", err)
				c.JSON(http.StatusRequestTimeout, ErrorResponse{
					Error: "Request cancelled",
					Code:  "CANCELLED",
				})
				return
			}
			entry.Error = err.Error()
		} else {
			entry.Report = report
		}
		resp.Reports = append(resp.Reports, entry)
	}

	logger.Info("Batch complete", "files", len(resp.Reports))
	c.JSON(http.StatusOK, resp)
}

// HandleHealth handles GET /api/v1/health.
//
// Description:
//
//	Returns the health status of the service. Always returns 200 if running.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
	})
}

func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/GuidelineTrace/pkg/telemetry"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/httpapi"
)

var (
	servePort  int
	serveDebug bool
)

// serveCmd starts the analyzer HTTP service.
//
// # Examples
//
//	guideline-trace serve
//	guideline-trace serve -p 9090
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analyzer as an HTTP service",
	Long: `Starts an HTTP server exposing the analysis pipeline.

Endpoints:
  POST /api/v1/analyze       - Analyze one Java source unit
  POST /api/v1/analyze/batch - Analyze up to 50 source units
  GET  /api/v1/health        - Health check
  GET  /metrics              - Prometheus metrics (when enabled)

Environment:
  LLM_BACKEND_TYPE      - "openai", "ollama", or unset for AST-only
  WEAVIATE_SERVICE_URL  - Guideline rule store, e.g. http://localhost:8081`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable Gin debug mode")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdown, err := telemetry.Init(cmd.Context(), telemetry.DefaultConfig())
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer shutdown(context.Background())

	svc, err := buildService()
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("guideline-trace"))
	if serveDebug {
		router.Use(gin.Logger())
	}

	handlers := httpapi.NewHandlers(svc)
	v1 := router.Group("/api/v1")
	httpapi.RegisterRoutes(v1, handlers)

	if metricsHandler := telemetry.MetricsHandler(); metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	addr := fmt.Sprintf(":%d", servePort)
	slog.Info("Starting GuidelineTrace server", "addr", addr)
	if err := router.Run(addr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package httpapi

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all analyzer routes with the router.
//
// Description:
//
//	Registers the /api/v1/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Endpoints:
//
//	POST /api/v1/analyze - Analyze one Java source unit
//	POST /api/v1/analyze/batch - Analyze up to 50 source units
//	GET  /api/v1/health - Health check
//
// Example:
//
//	svc, _ := analyzer.NewService(analyzer.Config{})
//	handlers := httpapi.NewHandlers(svc)
//
//	v1 := router.Group("/api/v1")
//	httpapi.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	rg.POST("/analyze", handlers.HandleAnalyze)
	rg.POST("/analyze/batch", handlers.HandleAnalyzeBatch)
	rg.GET("/health", handlers.HandleHealth)
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analyzer

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("guidelinetrace.analyzer")

// Metrics for the analysis pipeline.
var (
	analysesTotal       metric.Int64Counter
	verificationDropped metric.Int64Counter
	analysisDuration    metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		analysesTotal, err = meter.Int64Counter(
			"analyses_total",
			metric.WithDescription("Total number of source units analyzed"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		verificationDropped, err = meter.Int64Counter(
			"verification_dropped_total",
			metric.WithDescription("Total number of reported violations dropped by AST verification"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		analysisDuration, err = meter.Float64Histogram(
			"analysis_duration_seconds",
			metric.WithDescription("Duration of one full analysis"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordAnalysis records one completed analysis.
func recordAnalysis(ctx context.Context, riskLevel string, reported, verified int, elapsed time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	analysesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("risk_level", riskLevel),
	))
	if dropped := reported - verified; dropped > 0 {
		verificationDropped.Add(ctx, int64(dropped))
	}
	analysisDuration.Record(ctx, elapsed.Seconds())
}

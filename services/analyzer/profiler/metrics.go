// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package profiler

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for profiling operations.
var (
	tracer = otel.Tracer("guidelinetrace.profiler")
	meter  = otel.Meter("guidelinetrace.profiler")
)

// Metrics for profile generation.
var (
	profilesTotal   metric.Int64Counter
	tier2Degraded   metric.Int64Counter
	profileDuration metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		profilesTotal, err = meter.Int64Counter(
			"profiles_generated_total",
			metric.WithDescription("Total number of code profiles generated"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		tier2Degraded, err = meter.Int64Counter(
			"tier2_degraded_total",
			metric.WithDescription("Total number of tier-2 passes that degraded to tier-1 only"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		profileDuration, err = meter.Float64Histogram(
			"profile_duration_seconds",
			metric.WithDescription("Duration of profile generation"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordProfileGenerated records one completed profile.
func recordProfileGenerated(ctx context.Context, riskLevel string, tier2 bool, elapsed time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("risk_level", riskLevel),
		attribute.Bool("tier2_invoked", tier2),
	)
	profilesTotal.Add(ctx, 1, attrs)
	profileDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// recordTier2Degraded records a degraded tier-2 pass.
func recordTier2Degraded(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}
	tier2Degraded.Add(ctx, 1)
}

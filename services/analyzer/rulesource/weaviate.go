// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rulesource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/AleutianAI/GuidelineTrace/services/analyzer/matcher"
)

// GuidelineClassName is the Weaviate class holding guideline rules.
const GuidelineClassName = "GuidelineRule"

// ErrWeaviateUnavailable is returned when all retries are exhausted.
var ErrWeaviateUnavailable = errors.New("weaviate is not available")

// WeaviateConfig configures the vector-store rule source.
type WeaviateConfig struct {
	Host       string        `yaml:"host" json:"host"`
	Scheme     string        `yaml:"scheme" json:"scheme"`
	MaxRetries int           `yaml:"maxRetries" json:"maxRetries"`
	BaseDelay  time.Duration `yaml:"baseDelay" json:"baseDelay"`
	MaxDelay   time.Duration `yaml:"maxDelay" json:"maxDelay"`
}

// DefaultWeaviateConfig returns production defaults.
func DefaultWeaviateConfig() WeaviateConfig {
	return WeaviateConfig{
		Host:       "localhost:8080",
		Scheme:     "http",
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
	}
}

// WeaviateSource fetches guideline rules from a Weaviate class,
// retrying transient failures with exponential backoff and jitter.
type WeaviateSource struct {
	client *weaviate.Client
	config WeaviateConfig
}

// NewWeaviateSource connects a rule source to Weaviate.
func NewWeaviateSource(config WeaviateConfig) (*WeaviateSource, error) {
	if config.Host == "" {
		config = DefaultWeaviateConfig()
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = 500 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 10 * time.Second
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   config.Host,
		Scheme: config.Scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("creating weaviate client: %w", err)
	}
	return &WeaviateSource{client: client, config: config}, nil
}

// SearchGuidelines queries the GuidelineRule class.
func (s *WeaviateSource) SearchGuidelines(ctx context.Context, query Query) ([]matcher.Rule, error) {
	var rules []matcher.Rule
	var lastErr error

	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.backoff(attempt)
			slog.Debug("retrying guideline query", "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		rules, lastErr = s.searchOnce(ctx, query)
		if lastErr == nil {
			return rules, nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return nil, lastErr
		}
		slog.Warn("guideline query attempt failed", "attempt", attempt, "error", lastErr)
	}
	return nil, fmt.Errorf("%w: %v", ErrWeaviateUnavailable, lastErr)
}

func (s *WeaviateSource) searchOnce(ctx context.Context, query Query) ([]matcher.Rule, error) {
	fields := []graphql.Field{
		{Name: "ruleId"},
		{Name: "title"},
		{Name: "description"},
		{Name: "severity"},
		{Name: "category"},
		{Name: "checkType"},
		{Name: "tagCondition"},
		{Name: "keywords"},
		{Name: "astHints"},
		{Name: "examplesGood"},
		{Name: "examplesBad"},
	}

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	builder := s.client.GraphQL().Get().
		WithClassName(GuidelineClassName).
		WithFields(fields...).
		WithLimit(limit)

	var operands []*filters.WhereBuilder
	if query.Category != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"category"}).
			WithOperator(filters.Equal).
			WithValueText(query.Category))
	}
	if query.Severity != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"severity"}).
			WithOperator(filters.Equal).
			WithValueText(query.Severity))
	}
	if len(operands) == 1 {
		builder = builder.WithWhere(operands[0])
	} else if len(operands) > 1 {
		builder = builder.WithWhere(filters.Where().
			WithOperator(filters.And).
			WithOperands(operands))
	}

	if len(query.Keywords) > 0 {
		builder = builder.WithNearText(s.client.GraphQL().NearTextArgBuilder().
			WithConcepts(query.Keywords))
	}

	result, err := builder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying guidelines: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("guideline query error: %s", result.Errors[0].Message)
	}
	return parseRules(result)
}

// parseRules converts a GraphQL Get payload into rules. Malformed
// records are skipped with a warning rather than failing the batch.
func parseRules(result *models.GraphQLResponse) ([]matcher.Rule, error) {
	get, ok := result.Data["Get"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected GraphQL payload shape")
	}
	items, ok := get[GuidelineClassName].([]any)
	if !ok {
		return []matcher.Rule{}, nil
	}

	rules := make([]matcher.Rule, 0, len(items))
	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rule := matcher.Rule{
			RuleID:       stringField(record, "ruleId"),
			Title:        stringField(record, "title"),
			Description:  stringField(record, "description"),
			Severity:     stringField(record, "severity"),
			Category:     stringField(record, "category"),
			CheckType:    stringField(record, "checkType"),
			TagCondition: stringField(record, "tagCondition"),
			Keywords:     stringSliceField(record, "keywords"),
			Examples: matcher.Examples{
				Good: stringSliceField(record, "examplesGood"),
				Bad:  stringSliceField(record, "examplesBad"),
			},
		}
		if rule.RuleID == "" {
			slog.Warn("skipping guideline record without ruleId")
			continue
		}
		if hintsJSON := stringField(record, "astHints"); hintsJSON != "" {
			if err := json.Unmarshal([]byte(hintsJSON), &rule.ASTHints); err != nil {
				slog.Warn("skipping malformed astHints, verification will trust the LLM",
					"rule_id", rule.RuleID, "error", err)
			}
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func stringField(record map[string]any, key string) string {
	value, _ := record[key].(string)
	return value
}

func stringSliceField(record map[string]any, key string) []string {
	raw, ok := record[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// backoff computes the exponential retry delay with jitter.
func (s *WeaviateSource) backoff(attempt int) time.Duration {
	delay := s.config.BaseDelay * time.Duration(1<<(attempt-1))
	if delay > s.config.MaxDelay {
		delay = s.config.MaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay) / 4))
	return delay + jitter
}

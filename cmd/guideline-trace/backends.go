// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/AleutianAI/GuidelineTrace/services/analyzer"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/llm"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/rulesource"
)

// buildLLMClient selects an LLM backend from LLM_BACKEND_TYPE.
//
// A missing or unusable backend returns nil, which disables Tier-2
// tagging and LLM violation detection instead of failing startup.
func buildLLMClient() llm.Client {
	backendType := os.Getenv("LLM_BACKEND_TYPE")

	switch backendType {
	case "openai":
		client, err := llm.NewOpenAIClient()
		if err != nil {
			slog.Warn("OpenAI backend unavailable, running AST-only", "error", err)
			return nil
		}
		slog.Info("Using OpenAI LLM backend")
		return client
	case "ollama":
		client, err := llm.NewOllamaClient()
		if err != nil {
			slog.Warn("Ollama backend unavailable, running AST-only", "error", err)
			return nil
		}
		slog.Info("Using Ollama LLM backend")
		return client
	case "", "none":
		slog.Info("LLM_BACKEND_TYPE not set, running AST-only analysis")
		return nil
	default:
		slog.Warn("Unknown LLM_BACKEND_TYPE, running AST-only", "backend", backendType)
		return nil
	}
}

// buildRuleSource connects to Weaviate when WEAVIATE_SERVICE_URL is
// set and valid, with the built-in rule set as degradation target.
func buildRuleSource() rulesource.Source {
	weaviateURL := os.Getenv("WEAVIATE_SERVICE_URL")
	// Trim quotes and whitespace in case the runtime passes them literally
	weaviateURL = strings.Trim(weaviateURL, "\"' ")

	if weaviateURL == "" || !strings.Contains(weaviateURL, "http") {
		slog.Info("WEAVIATE_SERVICE_URL not set or empty. Using built-in rules.")
		return &rulesource.WithFallback{}
	}

	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		slog.Warn("WEAVIATE_SERVICE_URL is invalid. Using built-in rules.",
			"url", weaviateURL, "error", err)
		return &rulesource.WithFallback{}
	}

	cfg := rulesource.DefaultWeaviateConfig()
	cfg.Host = parsedURL.Host
	cfg.Scheme = parsedURL.Scheme
	source, err := rulesource.NewWeaviateSource(cfg)
	if err != nil {
		slog.Warn("Failed to create Weaviate rule source. Using built-in rules.", "error", err)
		return &rulesource.WithFallback{}
	}
	slog.Info("Using Weaviate rule source", "host", cfg.Host)
	return &rulesource.WithFallback{Primary: source}
}

func buildService() (*analyzer.Service, error) {
	return analyzer.NewService(analyzer.Config{
		Client:     buildLLMClient(),
		RuleSource: buildRuleSource(),
	})
}

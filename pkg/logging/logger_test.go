// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{Level(99), "info"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{" error ", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLevel_ToSlogLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
	}
	for _, tt := range tests {
		if got := tt.level.toSlogLevel(); got != tt.want {
			t.Errorf("Level(%v).toSlogLevel() = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestDefault_StderrOnly(t *testing.T) {
	logger := Default()
	if logger.file != nil {
		t.Error("Default() should not open a log file")
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() on stderr-only logger returned %v", err)
	}
}

func TestNew_FileLogging(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{Level: LevelDebug, LogDir: dir, Service: "test"})
	defer logger.Close()

	if logger.file == nil {
		t.Fatal("expected a log file to be opened")
	}

	logger.Info("hello", "key", "value")

	name := "test_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("log file line is not JSON: %v", err)
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want value", entry["key"])
	}
}

func TestNew_DefaultServiceName(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir})
	defer logger.Close()

	name := "guidelinetrace_" + time.Now().Format("2006-01-02") + ".log"
	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		t.Errorf("expected log file %s: %v", name, err)
	}
}

func TestNew_CreatesLogDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	logger := New(Config{LogDir: dir, Service: "test"})
	defer logger.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("log dir was not created: %v", err)
	}
}

func TestNew_BadLogDirFallsBack(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	logger := New(Config{LogDir: filepath.Join(file, "logs"), Service: "test"})
	defer logger.Close()

	if logger.file != nil {
		t.Error("expected stderr-only fallback when log dir cannot be created")
	}
	logger.Info("still works")
}

func TestLogger_LevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{Level: LevelWarn, LogDir: dir, Service: "test"})
	defer logger.Close()

	logger.Debug("debug msg")
	logger.Info("info msg")
	logger.Warn("warn msg")

	name := "test_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Contains(out, "debug msg") || strings.Contains(out, "info msg") {
		t.Error("messages below warn level should be filtered")
	}
	if !strings.Contains(out, "warn msg") {
		t.Error("warn message missing from log file")
	}
}

func TestLogger_With(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Service: "test"})
	defer logger.Close()

	child := logger.With("request_id", "abc123")
	child.Info("scoped")

	name := "test_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "abc123") {
		t.Error("attribute from With was not propagated")
	}
	if child.file != nil {
		t.Error("derived logger should not own the file handle")
	}
}

func TestLogger_Slog(t *testing.T) {
	logger := Default()
	defer logger.Close()
	if logger.Slog() == nil {
		t.Error("Slog() returned nil")
	}
}

func TestLogger_CloseTwice(t *testing.T) {
	logger := New(Config{LogDir: t.TempDir(), Service: "test"})
	if err := logger.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestLogger_ConcurrentUse(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Service: "test"})
	defer logger.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				logger.Info("concurrent", "worker", n, "iteration", j)
			}
		}(i)
	}
	wg.Wait()
}

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	handler := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelInfo}),
	}}
	logger := slog.New(handler)
	logger.Info("fan out")

	if !strings.Contains(a.String(), "fan out") {
		t.Error("text handler did not receive record")
	}
	if !strings.Contains(b.String(), "fan out") {
		t.Error("json handler did not receive record")
	}
}

func TestMultiHandler_RespectsPerHandlerLevel(t *testing.T) {
	var debugBuf, errorBuf bytes.Buffer
	handler := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&errorBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	}}

	if !handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Enabled should be true when any handler accepts the level")
	}

	logger := slog.New(handler)
	logger.Debug("only debug")

	if !strings.Contains(debugBuf.String(), "only debug") {
		t.Error("debug handler should receive debug records")
	}
	if errorBuf.Len() != 0 {
		t.Error("error handler should not receive debug records")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		input string
		want  string
	}{
		{"~/logs", filepath.Join(home, "logs")},
		{"/var/log", "/var/log"},
		{"relative/path", "relative/path"},
	}
	for _, tt := range tests {
		if got := expandPath(tt.input); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

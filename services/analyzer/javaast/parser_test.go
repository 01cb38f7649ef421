// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package javaast

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleController = `package com.example.web;

import java.sql.Connection;
import java.util.List;

@RestController
public class UserController {

    @Autowired
    private UserRepository repository;

    @GetMapping("/users")
    public List<User> listUsers(String filter) {
        if (filter != null && !filter.isEmpty()) {
            for (User u : repository.findAll()) {
                if (u.getName().contains(filter)) {
                    return List.of(u);
                }
            }
        }
        return repository.findAll();
    }

    public void risky() {
        try {
            Connection conn = open();
        } catch (Exception e) {
        }
    }
}
`

func TestParse_ExtractsStructure(t *testing.T) {
	p := NewParser()
	analysis, err := p.Parse(context.Background(), []byte(sampleController))
	require.NoError(t, err)
	require.NotNil(t, analysis)

	assert.Equal(t, "com.example.web", analysis.PackageName)
	assert.Contains(t, analysis.Imports, "java.sql.Connection")
	assert.Contains(t, analysis.Imports, "java.util.List")

	require.Len(t, analysis.ClassDeclarations, 1)
	assert.Equal(t, "UserController", analysis.ClassDeclarations[0].Name)
	assert.Equal(t, "class", analysis.ClassDeclarations[0].Kind)
	assert.Equal(t, "UserController", analysis.PrimaryClassName())

	assert.Equal(t, 2, analysis.MethodCount())
	var names []string
	for _, m := range analysis.MethodDeclarations {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "listUsers")
	assert.Contains(t, names, "risky")

	assert.True(t, analysis.HasAnnotation("RestController"))
	assert.True(t, analysis.HasAnnotation("@Autowired"))
	assert.True(t, analysis.HasAnnotation("GetMapping"))
	assert.False(t, analysis.HasAnnotation("Service"))

	assert.False(t, analysis.HasParseErrors)
	assert.Contains(t, analysis.NodeTypes, "catch_clause")
	assert.Contains(t, analysis.NodeTypes, "try_statement")
}

func TestParse_MethodLineSpans(t *testing.T) {
	p := NewParser()
	analysis, err := p.Parse(context.Background(), []byte(sampleController))
	require.NoError(t, err)

	for _, m := range analysis.MethodDeclarations {
		assert.Greater(t, m.StartLine, 0, "method %s", m.Name)
		assert.GreaterOrEqual(t, m.EndLine, m.StartLine, "method %s", m.Name)
		if m.Name == "listUsers" {
			assert.Equal(t, 1, m.ParameterCount)
		}
	}
}

func TestParse_CyclomaticComplexity(t *testing.T) {
	// Base 1, plus: 2 if, 1 enhanced for, 1 &&, 1 catch clause = 6.
	p := NewParser()
	analysis, err := p.Parse(context.Background(), []byte(sampleController))
	require.NoError(t, err)
	assert.Equal(t, 6, analysis.CyclomaticComplexity)
}

func TestParse_MaxDepth(t *testing.T) {
	src := `public class Deep {
    void m(int x) {
        if (x > 0) {
            for (int i = 0; i < x; i++) {
                while (x > i) {
                    x--;
                }
            }
        }
    }
}
`
	p := NewParser()
	analysis, err := p.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	assert.Equal(t, 3, analysis.MaxDepth)
}

func TestParse_MalformedSourceStillAnalyzed(t *testing.T) {
	src := `public class Broken {
    void m( {
        if (x
}
`
	p := NewParser()
	analysis, err := p.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	assert.True(t, analysis.HasParseErrors)
	require.NotEmpty(t, analysis.ClassDeclarations)
	assert.Equal(t, "Broken", analysis.ClassDeclarations[0].Name)
}

func TestParse_InterfaceAndEnum(t *testing.T) {
	src := `package com.example;

public interface Handler {
    void handle();
}

enum Status { OPEN, CLOSED }
`
	p := NewParser()
	analysis, err := p.Parse(context.Background(), []byte(src))
	require.NoError(t, err)

	require.Len(t, analysis.ClassDeclarations, 2)
	assert.Equal(t, "interface", analysis.ClassDeclarations[0].Kind)
	assert.Equal(t, "Handler", analysis.ClassDeclarations[0].Name)
	assert.Equal(t, "enum", analysis.ClassDeclarations[1].Kind)
	assert.Equal(t, "Status", analysis.ClassDeclarations[1].Name)
}

func TestParse_SizeLimit(t *testing.T) {
	p := NewParser(WithMaxFileSize(64))
	_, err := p.Parse(context.Background(), []byte(strings.Repeat("x", 100)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileTooLarge))
}

func TestParse_InvalidUTF8(t *testing.T) {
	p := NewParser()
	_, err := p.Parse(context.Background(), []byte{0xff, 0xfe, 0xfd})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidUTF8))
}

func TestParse_LineCount(t *testing.T) {
	p := NewParser()
	analysis, err := p.Parse(context.Background(), []byte("class A {}\nclass B {}"))
	require.NoError(t, err)
	assert.Equal(t, 2, analysis.LineCount)
}

func TestParse_ConcurrentUse(t *testing.T) {
	p := NewParser()
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := p.Parse(context.Background(), []byte(sampleController))
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package javaast extracts structural facts from Java source files.
//
// The analyzer pipeline only reads the Analysis fields by name; it does
// not depend on tree-sitter types. CyclomaticComplexity is a whole-file
// metric by construction, not per-method.
package javaast

// ClassDeclaration describes one class, interface, enum, or record.
type ClassDeclaration struct {
	// Name is the declared type name.
	Name string `json:"name"`

	// Kind is "class", "interface", "enum", or "record".
	Kind string `json:"kind"`

	// StartLine and EndLine are 1-based, inclusive.
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

// MethodDeclaration describes one method or constructor.
type MethodDeclaration struct {
	// Name is the method name ("<init>" never appears; constructors
	// carry the class name).
	Name string `json:"name"`

	// StartLine and EndLine are 1-based, inclusive.
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`

	// ParameterCount is the declared parameter count.
	ParameterCount int `json:"parameterCount"`
}

// Annotation describes one annotation occurrence.
type Annotation struct {
	// Name is the annotation identifier without the leading '@'.
	Name string `json:"name"`

	// Line is the 1-based line of the occurrence.
	Line int `json:"line"`
}

// Analysis is the structural summary of one Java source file.
type Analysis struct {
	// PackageName is the declared package, or empty.
	PackageName string `json:"packageName"`

	// Imports lists imported types/packages as written.
	Imports []string `json:"imports"`

	// ClassDeclarations lists all type declarations, outermost first.
	ClassDeclarations []ClassDeclaration `json:"classDeclarations"`

	// MethodDeclarations lists all method and constructor declarations.
	MethodDeclarations []MethodDeclaration `json:"methodDeclarations"`

	// Annotations lists every annotation occurrence.
	Annotations []Annotation `json:"annotations"`

	// NodeTypes holds the distinct tree-sitter node kinds observed.
	NodeTypes []string `json:"nodeTypes"`

	// CyclomaticComplexity is the whole-file decision-point count + 1.
	CyclomaticComplexity int `json:"cyclomaticComplexity"`

	// MaxDepth is the deepest block nesting observed.
	MaxDepth int `json:"maxDepth"`

	// LineCount is the source line count.
	LineCount int `json:"lineCount"`

	// HasParseErrors is true when tree-sitter reported ERROR nodes.
	// The analysis is still usable; fields reflect what parsed.
	HasParseErrors bool `json:"hasParseErrors"`
}

// HasAnnotation reports whether any occurrence matches name, ignoring
// a leading '@' on the argument.
func (a *Analysis) HasAnnotation(name string) bool {
	if len(name) > 0 && name[0] == '@' {
		name = name[1:]
	}
	for _, ann := range a.Annotations {
		if ann.Name == name {
			return true
		}
	}
	return false
}

// MethodCount returns the number of declared methods and constructors.
func (a *Analysis) MethodCount() int {
	return len(a.MethodDeclarations)
}

// PrimaryClassName returns the first declared type name, or empty.
func (a *Analysis) PrimaryClassName() string {
	if len(a.ClassDeclarations) == 0 {
		return ""
	}
	return a.ClassDeclarations[0].Name
}

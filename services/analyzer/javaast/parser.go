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
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// DefaultMaxFileSize is the maximum source size the parser accepts (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// ErrFileTooLarge is returned when input exceeds the size limit.
var ErrFileTooLarge = errors.New("source exceeds maximum size limit")

// ErrInvalidUTF8 is returned for non-UTF-8 input.
var ErrInvalidUTF8 = errors.New("source is not valid UTF-8")

// ParserOption configures a Parser instance.
type ParserOption func(*Parser)

// WithMaxFileSize sets the maximum source size the parser will accept.
func WithMaxFileSize(bytes int64) ParserOption {
	return func(p *Parser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// Parser extracts an Analysis from Java source.
//
// Description:
//
//	Parser uses tree-sitter to parse Java source files. Each Parse call
//	creates its own tree-sitter parser instance internally, so a single
//	Parser is safe for concurrent use from multiple goroutines.
//
//	Syntactically invalid code still produces a best-effort Analysis
//	with HasParseErrors set; only oversized or non-UTF-8 input fails
//	outright.
type Parser struct {
	maxFileSize int64
}

// NewParser creates a Java parser with the given options.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts the structural summary of one Java source file.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	source - Raw source bytes. Must be valid UTF-8.
//
// Outputs:
//
//	*Analysis - Structural summary. Never nil on success.
//	error - Non-nil only for oversized input, invalid UTF-8, or a
//	        failed/cancelled tree-sitter parse.
//
// Thread Safety: Safe for concurrent use.
func (p *Parser) Parse(ctx context.Context, source []byte) (*Analysis, error) {
	if int64(len(source)) > p.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, len(source), p.maxFileSize)
	}
	if !utf8.Valid(source) {
		return nil, ErrInvalidUTF8
	}

	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse java source: %w", err)
	}
	defer tree.Close()

	analysis := &Analysis{
		Imports:              []string{},
		ClassDeclarations:    []ClassDeclaration{},
		MethodDeclarations:   []MethodDeclaration{},
		Annotations:          []Annotation{},
		CyclomaticComplexity: 1,
		LineCount:            countLines(source),
	}

	nodeTypes := make(map[string]struct{})
	walk(tree.RootNode(), source, 0, analysis, nodeTypes)

	analysis.NodeTypes = make([]string, 0, len(nodeTypes))
	for nt := range nodeTypes {
		analysis.NodeTypes = append(analysis.NodeTypes, nt)
	}
	sort.Strings(analysis.NodeTypes)

	return analysis, nil
}

// classKinds maps tree-sitter declaration node types to Analysis kinds.
var classKinds = map[string]string{
	"class_declaration":      "class",
	"interface_declaration":  "interface",
	"enum_declaration":       "enum",
	"record_declaration":     "record",
	"annotation_declaration": "annotation",
}

// complexityNodes are the decision points counted toward the whole-file
// cyclomatic metric.
var complexityNodes = map[string]struct{}{
	"if_statement":           {},
	"for_statement":          {},
	"enhanced_for_statement": {},
	"while_statement":        {},
	"do_statement":           {},
	"catch_clause":           {},
	"ternary_expression":     {},
	"switch_label":           {},
}

// nestingNodes are the block constructs counted toward MaxDepth.
var nestingNodes = map[string]struct{}{
	"if_statement":           {},
	"for_statement":          {},
	"enhanced_for_statement": {},
	"while_statement":        {},
	"do_statement":           {},
	"try_statement":          {},
	"switch_expression":      {},
	"synchronized_statement": {},
}

// walk traverses the tree accumulating declarations and metrics.
func walk(node *sitter.Node, source []byte, depth int, a *Analysis, nodeTypes map[string]struct{}) {
	if node == nil {
		return
	}

	kind := node.Type()
	nodeTypes[kind] = struct{}{}

	switch {
	case kind == "ERROR":
		a.HasParseErrors = true

	case kind == "package_declaration":
		// First named child is the package path.
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			t := child.Type()
			if t == "scoped_identifier" || t == "identifier" {
				a.PackageName = child.Content(source)
				break
			}
		}

	case kind == "import_declaration":
		text := strings.TrimSpace(node.Content(source))
		text = strings.TrimPrefix(text, "import")
		text = strings.TrimSuffix(strings.TrimSpace(text), ";")
		a.Imports = append(a.Imports, strings.TrimSpace(text))

	case classKinds[kind] != "":
		decl := ClassDeclaration{
			Kind:      classKinds[kind],
			StartLine: int(node.StartPoint().Row) + 1,
			EndLine:   int(node.EndPoint().Row) + 1,
		}
		if name := node.ChildByFieldName("name"); name != nil {
			decl.Name = name.Content(source)
		}
		a.ClassDeclarations = append(a.ClassDeclarations, decl)

	case kind == "method_declaration" || kind == "constructor_declaration":
		decl := MethodDeclaration{
			StartLine: int(node.StartPoint().Row) + 1,
			EndLine:   int(node.EndPoint().Row) + 1,
		}
		if name := node.ChildByFieldName("name"); name != nil {
			decl.Name = name.Content(source)
		}
		if params := node.ChildByFieldName("parameters"); params != nil {
			decl.ParameterCount = int(params.NamedChildCount())
		}
		a.MethodDeclarations = append(a.MethodDeclarations, decl)

	case kind == "annotation" || kind == "marker_annotation":
		ann := Annotation{Line: int(node.StartPoint().Row) + 1}
		if name := node.ChildByFieldName("name"); name != nil {
			ann.Name = name.Content(source)
		}
		if ann.Name != "" {
			a.Annotations = append(a.Annotations, ann)
		}
	}

	if _, isDecision := complexityNodes[kind]; isDecision {
		a.CyclomaticComplexity++
	}
	if kind == "binary_expression" {
		// && and || add decision points.
		op := node.ChildByFieldName("operator")
		if op != nil {
			if text := op.Content(source); text == "&&" || text == "||" {
				a.CyclomaticComplexity++
			}
		}
	}

	childDepth := depth
	if _, nests := nestingNodes[kind]; nests {
		childDepth++
		if childDepth > a.MaxDepth {
			a.MaxDepth = childDepth
		}
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		walk(node.NamedChild(i), source, childDepth, a, nodeTypes)
	}
}

// countLines counts newline-terminated lines, counting a trailing
// partial line.
func countLines(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	n := 0
	for _, b := range source {
		if b == '\n' {
			n++
		}
	}
	if source[len(source)-1] != '\n' {
		n++
	}
	return n
}

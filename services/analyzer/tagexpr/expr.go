// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tagexpr evaluates boolean expressions over code tags.
//
// Rule conditions are written as small boolean formulas over tag names,
// for example "IS_CONTROLLER && !HAS_INPUT_VALIDATION". The package
// tokenizes and parses such formulas into an explicit AST and evaluates
// them against a concrete tag set by tree walking. Expressions are never
// handed to any general-purpose evaluator: the grammar below is the
// whole language.
//
// Grammar (precedence low to high):
//
//	orExpr  := andExpr ('||' andExpr)*
//	andExpr := notExpr ('&&' notExpr)*
//	notExpr := '!' notExpr | primary
//	primary := TAG | '(' orExpr ')'
//
// Tag tokens match [A-Z_][A-Z0-9_]*. Whitespace is insignificant.
package tagexpr

import "fmt"

// tokenKind identifies a lexical token in a tag expression.
type tokenKind int

const (
	tokenTag tokenKind = iota
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

// token is a single lexical token with its source position.
type token struct {
	kind tokenKind
	text string
	pos  int
}

// ParseError describes a tokenization or parse failure.
//
// The position is a zero-based byte offset into the original expression.
type ParseError struct {
	// Expression is the original expression text.
	Expression string

	// Pos is the byte offset of the offending input.
	Pos int

	// Message describes what went wrong.
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("tag expression %q: %s at position %d", e.Expression, e.Message, e.Pos)
}

// nodeKind identifies an AST node type.
type nodeKind int

const (
	nodeTag nodeKind = iota
	nodeAnd
	nodeOr
	nodeNot
)

// node is a parsed expression tree node.
//
// Leaf nodes (nodeTag) carry the tag name; AND/OR carry left and right;
// NOT carries only left.
type node struct {
	kind  nodeKind
	tag   string
	left  *node
	right *node
}

// eval walks the tree against a tag set.
func (n *node) eval(tags map[string]struct{}) bool {
	switch n.kind {
	case nodeTag:
		_, ok := tags[n.tag]
		return ok
	case nodeAnd:
		return n.left.eval(tags) && n.right.eval(tags)
	case nodeOr:
		return n.left.eval(tags) || n.right.eval(tags)
	case nodeNot:
		return !n.left.eval(tags)
	default:
		return false
	}
}

// isTagStart reports whether c can begin a tag token.
func isTagStart(c byte) bool {
	return (c >= 'A' && c <= 'Z') || c == '_'
}

// isTagChar reports whether c can continue a tag token.
func isTagChar(c byte) bool {
	return isTagStart(c) || (c >= '0' && c <= '9')
}

// tokenize scans an expression left to right.
//
// Unrecognized characters are a hard error carrying the offending
// character and its position; nothing is silently skipped.
func tokenize(expr string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "(", pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokenRParen, text: ")", pos: i})
			i++
		case c == '!':
			tokens = append(tokens, token{kind: tokenNot, text: "!", pos: i})
			i++
		case c == '&':
			if i+1 >= len(expr) || expr[i+1] != '&' {
				return nil, &ParseError{Expression: expr, Pos: i, Message: "expected '&&'"}
			}
			tokens = append(tokens, token{kind: tokenAnd, text: "&&", pos: i})
			i += 2
		case c == '|':
			if i+1 >= len(expr) || expr[i+1] != '|' {
				return nil, &ParseError{Expression: expr, Pos: i, Message: "expected '||'"}
			}
			tokens = append(tokens, token{kind: tokenOr, text: "||", pos: i})
			i += 2
		case isTagStart(c):
			start := i
			for i < len(expr) && isTagChar(expr[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokenTag, text: expr[start:i], pos: start})
		default:
			return nil, &ParseError{
				Expression: expr,
				Pos:        i,
				Message:    fmt.Sprintf("unexpected character %q", string(c)),
			}
		}
	}
	return tokens, nil
}

// parser is a recursive-descent parser over a token stream.
type parser struct {
	expr   string
	tokens []token
	pos    int
}

// parse parses a complete expression.
//
// A trailing unconsumed token after a full parse is an error: partial
// parses must not be accepted as valid conditions.
func parse(expr string) (*node, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, &ParseError{Expression: expr, Pos: 0, Message: "empty expression"}
	}

	p := &parser{expr: expr, tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, &ParseError{
			Expression: expr,
			Pos:        p.tokens[p.pos].pos,
			Message:    fmt.Sprintf("excess tokens starting with %q", p.tokens[p.pos].text),
		}
	}
	return root, nil
}

// peek returns the current token without consuming it.
func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

// errorAtEnd builds a ParseError positioned after the last token.
func (p *parser) errorAtEnd(msg string) error {
	pos := len(p.expr)
	return &ParseError{Expression: p.expr, Pos: pos, Message: msg}
}

func (p *parser) parseOr() (*node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokenOr {
			return left, nil
		}
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &node{kind: nodeOr, left: left, right: right}
	}
}

func (p *parser) parseAnd() (*node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokenAnd {
			return left, nil
		}
		p.pos++
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &node{kind: nodeAnd, left: left, right: right}
	}
}

func (p *parser) parseNot() (*node, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, p.errorAtEnd("unexpected end of expression")
	}
	if tok.kind == tokenNot {
		p.pos++
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeNot, left: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*node, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, p.errorAtEnd("unexpected end of expression")
	}
	switch tok.kind {
	case tokenTag:
		p.pos++
		return &node{kind: nodeTag, tag: tok.text}, nil
	case tokenLParen:
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		closing, ok := p.peek()
		if !ok {
			return nil, p.errorAtEnd("missing closing parenthesis")
		}
		if closing.kind != tokenRParen {
			return nil, &ParseError{
				Expression: p.expr,
				Pos:        closing.pos,
				Message:    fmt.Sprintf("expected ')' but found %q", closing.text),
			}
		}
		p.pos++
		return inner, nil
	default:
		return nil, &ParseError{
			Expression: p.expr,
			Pos:        tok.pos,
			Message:    fmt.Sprintf("unexpected token %q", tok.text),
		}
	}
}

// tagTokens returns every distinct tag-looking token in the raw
// expression, in first-appearance order.
//
// This is lexical, not structural: it includes tags that only appear
// negated or in unreachable branches. Used for the matched/unmatched
// diagnostics and for DependsOn.
func tagTokens(expr string) []string {
	var out []string
	seen := make(map[string]struct{})
	i := 0
	for i < len(expr) {
		c := expr[i]
		if isTagStart(c) {
			start := i
			for i < len(expr) && isTagChar(expr[i]) {
				i++
			}
			tag := expr[start:i]
			if _, dup := seen[tag]; !dup {
				seen[tag] = struct{}{}
				out = append(out, tag)
			}
			continue
		}
		i++
	}
	return out
}

// requiredTags returns the tags that must be present for this subtree
// to evaluate true.
//
// A tag is required by an AND when either side requires it, and by an
// OR only when both sides require it. Nothing under a NOT is required:
// a negated subtree can be true with all of its tags absent.
func (n *node) requiredTags() []string {
	switch n.kind {
	case nodeTag:
		return []string{n.tag}
	case nodeAnd:
		return unionTags(n.left.requiredTags(), n.right.requiredTags())
	case nodeOr:
		return intersectTags(n.left.requiredTags(), n.right.requiredTags())
	default:
		return nil
	}
}

// unionTags merges two tag lists preserving first-appearance order.
func unionTags(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, tag := range list {
			if _, dup := seen[tag]; !dup {
				seen[tag] = struct{}{}
				out = append(out, tag)
			}
		}
	}
	return out
}

// intersectTags keeps the tags of a that also appear in b.
func intersectTags(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, tag := range b {
		inB[tag] = struct{}{}
	}
	var out []string
	for _, tag := range a {
		if _, ok := inB[tag]; ok {
			out = append(out, tag)
		}
	}
	return out
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tagdef holds the declarative definitions of code tags and
// compound tags.
//
// A tag is an uppercase-with-underscores identifier naming a boolean
// fact about a code unit (IS_CONTROLLER, HAS_EMPTY_CATCH). Its
// definition records which detection tier can decide it and the
// criteria text used to build tier-2 LLM prompts. A compound tag is a
// named boolean formula over base tags that, when matched, is folded
// back into the working tag set.
//
// The Catalog is constructed once at startup and injected by reference
// into the profiler and matcher. It is immutable after construction;
// there is no hot reload.
package tagdef

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/GuidelineTrace/services/analyzer/tagexpr"
)

// Detection tiers.
const (
	// Tier1 tags are decided by cheap local heuristics (regex, AST).
	Tier1 = 1

	// Tier2 tags require semantic judgment from an LLM.
	Tier2 = 2
)

// Severity levels for compound tags, ordered by weight.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// TagDefinition describes one base tag.
type TagDefinition struct {
	// Name is the tag identifier (uppercase with underscores).
	Name string `yaml:"name" json:"name"`

	// Tier is 1 (local heuristics) or 2 (LLM judgment).
	Tier int `yaml:"tier" json:"tier"`

	// Description is a human-readable explanation of the fact.
	Description string `yaml:"description" json:"description"`

	// Criteria is the detection guidance included in tier-2 prompts.
	// Empty for tier-1 tags whose detectors are hard-coded.
	Criteria string `yaml:"criteria,omitempty" json:"criteria,omitempty"`
}

// CompoundTagDefinition describes one compound tag.
type CompoundTagDefinition struct {
	// Name is the compound tag identifier.
	Name string `yaml:"name" json:"name"`

	// Expression is the boolean formula over base tags.
	Expression string `yaml:"expression" json:"expression"`

	// Description explains what the combination indicates.
	Description string `yaml:"description" json:"description"`

	// Severity weights the compound tag in risk scoring.
	Severity Severity `yaml:"severity" json:"severity"`
}

// Catalog is the read-only definition table for one analyzer instance.
//
// Thread Safety: Catalog is immutable after construction and safe for
// concurrent reads.
type Catalog struct {
	tags      map[string]TagDefinition
	compounds map[string]CompoundTagDefinition

	// Stable iteration orders, fixed at construction.
	tagOrder      []string
	compoundOrder []string
}

// NewCatalog builds a Catalog from explicit definition slices.
//
// Description:
//
//	Validates definitions before accepting them: tag names must be
//	unique, tiers must be 1 or 2, compound expressions must parse, and
//	a compound name must never collide with a base tag name (the fold
//	back into the tag set would make evaluation order ambiguous).
//
// Outputs:
//
//	*Catalog - The immutable catalog.
//	error - Non-nil describing the first invalid definition.
func NewCatalog(tags []TagDefinition, compounds []CompoundTagDefinition) (*Catalog, error) {
	c := &Catalog{
		tags:      make(map[string]TagDefinition, len(tags)),
		compounds: make(map[string]CompoundTagDefinition, len(compounds)),
	}

	for _, def := range tags {
		if def.Name == "" {
			return nil, fmt.Errorf("tag definition with empty name")
		}
		if def.Tier != Tier1 && def.Tier != Tier2 {
			return nil, fmt.Errorf("tag %s: tier must be 1 or 2, got %d", def.Name, def.Tier)
		}
		if _, dup := c.tags[def.Name]; dup {
			return nil, fmt.Errorf("duplicate tag definition %s", def.Name)
		}
		c.tags[def.Name] = def
		c.tagOrder = append(c.tagOrder, def.Name)
	}

	validator := tagexpr.NewEvaluatorWithCacheSize(0)
	for _, def := range compounds {
		if def.Name == "" {
			return nil, fmt.Errorf("compound tag definition with empty name")
		}
		if _, collides := c.tags[def.Name]; collides {
			return nil, fmt.Errorf("compound tag %s collides with a base tag name", def.Name)
		}
		if _, dup := c.compounds[def.Name]; dup {
			return nil, fmt.Errorf("duplicate compound tag definition %s", def.Name)
		}
		if !def.Severity.Valid() {
			return nil, fmt.Errorf("compound tag %s: invalid severity %q", def.Name, def.Severity)
		}
		if v := validator.Validate(def.Expression); !v.Valid {
			return nil, fmt.Errorf("compound tag %s: %s", def.Name, v.Err)
		}
		c.compounds[def.Name] = def
		c.compoundOrder = append(c.compoundOrder, def.Name)
	}

	return c, nil
}

// Tag returns the definition for name.
func (c *Catalog) Tag(name string) (TagDefinition, bool) {
	def, ok := c.tags[name]
	return def, ok
}

// Compound returns the compound definition for name.
func (c *Catalog) Compound(name string) (CompoundTagDefinition, bool) {
	def, ok := c.compounds[name]
	return def, ok
}

// Tags returns all base tag definitions in declaration order.
func (c *Catalog) Tags() []TagDefinition {
	out := make([]TagDefinition, 0, len(c.tagOrder))
	for _, name := range c.tagOrder {
		out = append(out, c.tags[name])
	}
	return out
}

// Compounds returns all compound definitions in declaration order.
func (c *Catalog) Compounds() []CompoundTagDefinition {
	out := make([]CompoundTagDefinition, 0, len(c.compoundOrder))
	for _, name := range c.compoundOrder {
		out = append(out, c.compounds[name])
	}
	return out
}

// Tier2Tags returns all definitions that require LLM judgment, in
// declaration order.
func (c *Catalog) Tier2Tags() []TagDefinition {
	var out []TagDefinition
	for _, name := range c.tagOrder {
		if def := c.tags[name]; def.Tier == Tier2 {
			out = append(out, def)
		}
	}
	return out
}

// catalogFile is the YAML override document shape.
type catalogFile struct {
	Tags      []TagDefinition         `yaml:"tags"`
	Compounds []CompoundTagDefinition `yaml:"compoundTags"`
}

// LoadCatalog reads a YAML definition file and merges it over the
// built-in defaults.
//
// Description:
//
//	Definitions in the file replace built-in definitions with the same
//	name; new names are appended. This lets deployments add
//	organization-specific tags without forking the default vocabulary.
//
// Inputs:
//
//	path - The YAML file path.
//
// Outputs:
//
//	*Catalog - The merged catalog.
//	error - Non-nil if the file is unreadable, malformed, or produces
//	        an invalid catalog.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tag definitions: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tag definitions: %w", err)
	}

	tags := mergeTagDefs(DefaultTagDefinitions(), file.Tags)
	compounds := mergeCompoundDefs(DefaultCompoundDefinitions(), file.Compounds)
	return NewCatalog(tags, compounds)
}

// DefaultCatalog builds a Catalog from the built-in definitions.
// Panics only if the built-in tables are themselves inconsistent,
// which is a programmer error caught by the package tests.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultTagDefinitions(), DefaultCompoundDefinitions())
	if err != nil {
		panic(fmt.Sprintf("tagdef: built-in definitions invalid: %v", err))
	}
	return c
}

// mergeTagDefs overlays overrides onto base by name.
func mergeTagDefs(base, overrides []TagDefinition) []TagDefinition {
	index := make(map[string]int, len(base))
	out := make([]TagDefinition, len(base))
	copy(out, base)
	for i, def := range out {
		index[def.Name] = i
	}
	for _, def := range overrides {
		if i, ok := index[def.Name]; ok {
			out[i] = def
		} else {
			out = append(out, def)
		}
	}
	return out
}

// mergeCompoundDefs overlays overrides onto base by name.
func mergeCompoundDefs(base, overrides []CompoundTagDefinition) []CompoundTagDefinition {
	index := make(map[string]int, len(base))
	out := make([]CompoundTagDefinition, len(base))
	copy(out, base)
	for i, def := range out {
		index[def.Name] = i
	}
	for _, def := range overrides {
		if i, ok := index[def.Name]; ok {
			out[i] = def
		} else {
			out = append(out, def)
		}
	}
	return out
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package profiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AleutianAI/GuidelineTrace/services/analyzer/javaast"
	"github.com/AleutianAI/GuidelineTrace/services/analyzer/tagdef"
)

// Structural thresholds for the Tier-1 metric detectors.
const (
	largeMethodLines     = 50
	deepNestingDepth     = 4
	highComplexityScore  = 10
	magicNumberThreshold = 3
)

// detector is one deterministic Tier-1 check. It returns whether the
// tag applies and a short evidence string.
type detector func(source string, analysis *javaast.Analysis) (bool, string)

var (
	emptyCatchRe      = regexp.MustCompile(`catch\s*\([^)]*\)\s*\{\s*\}`)
	genericCatchRe    = regexp.MustCompile(`catch\s*\(\s*(?:final\s+)?(Exception|Throwable|RuntimeException)\b`)
	printStackRe      = regexp.MustCompile(`\.printStackTrace\s*\(`)
	systemOutRe       = regexp.MustCompile(`System\.(out|err)\.`)
	connectionRe      = regexp.MustCompile(`\bConnection\b`)
	statementRe       = regexp.MustCompile(`\b(?:Prepared|Callable)?Statement\b`)
	resultSetRe       = regexp.MustCompile(`\bResultSet\b`)
	streamRe          = regexp.MustCompile(`\b(?:File)?(?:Input|Output)Stream\b|\b(?:Buffered|File)(?:Reader|Writer)\b`)
	tryWithResourceRe = regexp.MustCompile(`try\s*\(`)
	closeInFinallyRe  = regexp.MustCompile(`finally\s*\{[^}]*\.close\s*\(`)
	sqlConcatRe       = regexp.MustCompile(`(?i)"\s*(?:select|insert|update|delete)\b[^"]*"\s*\+`)
	stringFormatSQLRe = regexp.MustCompile(`(?i)String\.format\s*\(\s*"\s*(?:select|insert|update|delete)\b`)
	fieldInjectionRe  = regexp.MustCompile(`@Autowired\s+(?:private|protected|public)\b`)
	magicNumberRe     = regexp.MustCompile(`[^\w.]([2-9]|[1-9][0-9]+)\b`)
	hardcodedCredRe   = regexp.MustCompile(`(?i)(password|passwd|secret|api[_-]?key|token)\s*=\s*"[^"]{4,}"`)
	threadRe          = regexp.MustCompile(`\bnew\s+Thread\b|\bExecutorService\b|\bRunnable\b`)
	synchronizedRe    = regexp.MustCompile(`\bsynchronized\b`)
	reflectionRe      = regexp.MustCompile(`java\.lang\.reflect|Class\.forName|getDeclaredMethods?\b|getDeclaredFields?\b`)
)

// tier1Detectors maps each Tier-1 tag name to its detector. Every
// detector is independent and order-insensitive.
var tier1Detectors = map[string]detector{
	tagdef.TagIsController: annotationDetector("RestController", "Controller"),
	tagdef.TagIsService:    annotationDetector("Service"),
	tagdef.TagIsRepository: annotationDetector("Repository"),
	tagdef.TagIsComponent:  annotationDetector("Component"),
	tagdef.TagIsEntity:     annotationDetector("Entity"),

	tagdef.TagIsTestClass: func(source string, analysis *javaast.Analysis) (bool, string) {
		if analysis != nil {
			if analysis.HasAnnotation("Test") {
				return true, "@Test annotation present"
			}
			for _, imp := range analysis.Imports {
				if strings.HasPrefix(imp, "org.junit") || strings.HasPrefix(imp, "org.testng") {
					return true, "imports " + imp
				}
			}
			if name := analysis.PrimaryClassName(); strings.HasSuffix(name, "Test") || strings.HasSuffix(name, "Tests") {
				return true, "class name " + name
			}
		}
		return false, ""
	},

	tagdef.TagHasEmptyCatch:      regexDetector(emptyCatchRe, "empty catch block"),
	tagdef.TagHasGenericCatch:    regexDetector(genericCatchRe, "catches a generic exception type"),
	tagdef.TagHasPrintStackTrace: regexDetector(printStackRe, "calls printStackTrace()"),
	tagdef.TagHasSystemOut:       regexDetector(systemOutRe, "writes to System.out/System.err"),

	tagdef.TagUsesConnection: typeUsageDetector(connectionRe, "java.sql"),
	tagdef.TagUsesStatement:  typeUsageDetector(statementRe, "java.sql"),
	tagdef.TagUsesResultSet:  typeUsageDetector(resultSetRe, "java.sql"),
	tagdef.TagUsesStream:     regexDetector(streamRe, "uses an unbuffered I/O stream type"),

	tagdef.TagHasTryWithResources: regexDetector(tryWithResourceRe, "try-with-resources statement"),
	tagdef.TagHasCloseInFinally:   regexDetector(closeInFinallyRe, "close() called in finally block"),

	tagdef.TagHasSQLConcatenation: regexDetector(sqlConcatRe, "SQL string built by concatenation"),
	tagdef.TagUsesStringFormatSQL: regexDetector(stringFormatSQLRe, "SQL string built via String.format"),

	tagdef.TagHasFieldInjection: regexDetector(fieldInjectionRe, "@Autowired field injection"),
	tagdef.TagHasTransactional:  annotationDetector("Transactional"),

	tagdef.TagHasLargeMethod: func(source string, analysis *javaast.Analysis) (bool, string) {
		if analysis == nil {
			return false, ""
		}
		for _, m := range analysis.MethodDeclarations {
			if span := m.EndLine - m.StartLine + 1; span > largeMethodLines {
				return true, fmt.Sprintf("method %s spans %d lines", m.Name, span)
			}
		}
		return false, ""
	},
	tagdef.TagHasDeepNesting: func(source string, analysis *javaast.Analysis) (bool, string) {
		if analysis != nil && analysis.MaxDepth >= deepNestingDepth {
			return true, fmt.Sprintf("maximum nesting depth %d", analysis.MaxDepth)
		}
		return false, ""
	},
	tagdef.TagHasHighComplexity: func(source string, analysis *javaast.Analysis) (bool, string) {
		if analysis != nil && analysis.CyclomaticComplexity > highComplexityScore {
			return true, fmt.Sprintf("cyclomatic complexity %d", analysis.CyclomaticComplexity)
		}
		return false, ""
	},
	tagdef.TagHasMagicNumbers: func(source string, analysis *javaast.Analysis) (bool, string) {
		matches := magicNumberRe.FindAllString(source, -1)
		if len(matches) >= magicNumberThreshold {
			return true, fmt.Sprintf("%d unexplained numeric literals", len(matches))
		}
		return false, ""
	},

	tagdef.TagHasHardcodedSecret: regexDetector(hardcodedCredRe, "credential-like literal assignment"),
	tagdef.TagUsesThread:         regexDetector(threadRe, "manual thread or executor usage"),
	tagdef.TagHasSynchronized:    regexDetector(synchronizedRe, "synchronized keyword"),
	tagdef.TagUsesReflection:     regexDetector(reflectionRe, "reflection API usage"),
}

// annotationDetector matches when the AST carries any of the named
// annotations.
func annotationDetector(names ...string) detector {
	return func(source string, analysis *javaast.Analysis) (bool, string) {
		if analysis == nil {
			return false, ""
		}
		for _, name := range names {
			if analysis.HasAnnotation(name) {
				return true, "@" + name + " annotation present"
			}
		}
		return false, ""
	}
}

// regexDetector matches when the pattern occurs anywhere in source.
func regexDetector(re *regexp.Regexp, evidence string) detector {
	return func(source string, analysis *javaast.Analysis) (bool, string) {
		if re.MatchString(source) {
			return true, evidence
		}
		return false, ""
	}
}

// typeUsageDetector matches a type-name pattern but only when the
// file also imports the owning package, to avoid false positives on
// unrelated identifiers.
func typeUsageDetector(re *regexp.Regexp, importPrefix string) detector {
	return func(source string, analysis *javaast.Analysis) (bool, string) {
		if !re.MatchString(source) {
			return false, ""
		}
		if analysis != nil {
			for _, imp := range analysis.Imports {
				if strings.HasPrefix(imp, importPrefix) {
					return true, "uses " + re.FindString(source) + " (imports " + imp + ")"
				}
			}
		}
		if strings.Contains(source, importPrefix) {
			return true, "uses " + re.FindString(source)
		}
		return false, ""
	}
}

// extractTier1Tags runs the full detector battery over one source
// unit. Runtime is proportional to source length; no network I/O.
func extractTier1Tags(source string, analysis *javaast.Analysis) (map[string]struct{}, map[string]TagDetail) {
	tags := make(map[string]struct{})
	details := make(map[string]TagDetail)
	for name, detect := range tier1Detectors {
		matched, evidence := detect(source, analysis)
		if !matched {
			continue
		}
		tags[name] = struct{}{}
		details[name] = TagDetail{
			Matched:    true,
			Source:     SourceTier1,
			Confidence: 1.0,
			Evidence:   evidence,
		}
	}
	return tags, details
}

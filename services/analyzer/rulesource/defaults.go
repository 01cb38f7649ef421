// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rulesource

import "github.com/AleutianAI/GuidelineTrace/services/analyzer/matcher"

// DefaultRules returns the built-in guideline catalog used when no
// external rule source is reachable.
func DefaultRules() []matcher.Rule {
	return []matcher.Rule{
		{
			RuleID:       "CTX-001",
			Title:        "SQL built by string concatenation",
			Description:  "SQL statements assembled by concatenating user-controlled strings allow injection. Use prepared statements with bound parameters.",
			Severity:     "CRITICAL",
			Category:     "security",
			CheckType:    matcher.CheckTypeLLM,
			TagCondition: "SQL_INJECTION_RISK",
			Keywords:     []string{"sql", "injection", "prepared-statement"},
			Examples: matcher.Examples{
				Bad:  []string{`stmt.executeQuery("SELECT * FROM users WHERE id = " + id);`},
				Good: []string{`conn.prepareStatement("SELECT * FROM users WHERE id = ?");`},
			},
		},
		{
			RuleID:       "CTX-002",
			Title:        "JDBC resources not closed deterministically",
			Description:  "Connections, statements and result sets must be closed via try-with-resources or a finally block.",
			Severity:     "HIGH",
			Category:     "resource_management",
			CheckType:    matcher.CheckTypeLLM,
			TagCondition: "UNSAFE_RESOURCE_HANDLING",
			Keywords:     []string{"jdbc", "leak", "try-with-resources"},
		},
		{
			RuleID:       "CTX-003",
			Title:        "Hardcoded credentials in source",
			Description:  "Credentials and API keys belong in a secret store, never in source literals.",
			Severity:     "CRITICAL",
			Category:     "security",
			CheckType:    matcher.CheckTypeLLM,
			TagCondition: "HAS_HARDCODED_CREDENTIALS",
			Keywords:     []string{"credentials", "secret", "password"},
		},
		{
			RuleID:       "CTX-004",
			Title:        "Empty catch block swallows exceptions",
			Description:  "An empty catch block silently discards the failure. Log it, rethrow it, or document why it is safe to ignore.",
			Severity:     "HIGH",
			Category:     "exception_handling",
			CheckType:    matcher.CheckTypeLLMWithAST,
			TagCondition: "HAS_EMPTY_CATCH",
			Keywords:     []string{"exception", "swallowed", "catch"},
			ASTHints: matcher.ASTHints{
				CheckEmpty: true,
				NodeTypes:  []string{"CatchClause"},
			},
			Examples: matcher.Examples{
				Bad:  []string{"catch (Exception e) { }"},
				Good: []string{"catch (IOException e) { log.warn(\"read failed\", e); }"},
			},
		},
		{
			RuleID:       "CTX-005",
			Title:        "Generic exception caught",
			Description:  "Catching Exception or Throwable hides programming errors. Catch the narrowest type that can actually occur.",
			Severity:     "MEDIUM",
			Category:     "exception_handling",
			CheckType:    matcher.CheckTypeLLM,
			TagCondition: "HAS_GENERIC_EXCEPTION_CATCH && !IS_TEST_CLASS",
			Keywords:     []string{"exception", "generic", "catch"},
		},
		{
			RuleID:       "CTX-006",
			Title:        "Business logic in controller",
			Description:  "Controllers should delegate to services. Inline business logic resists testing and reuse.",
			Severity:     "MEDIUM",
			Category:     "architecture",
			CheckType:    matcher.CheckTypeLLM,
			TagCondition: "FAT_CONTROLLER",
			Keywords:     []string{"controller", "layering", "service"},
		},
		{
			RuleID:       "CTX-007",
			Title:        "Field injection instead of constructor injection",
			Description:  "@Autowired fields cannot be final, hide dependencies and break plain construction in tests.",
			Severity:     "MEDIUM",
			Category:     "architecture",
			CheckType:    matcher.CheckTypeLLM,
			TagCondition: "HAS_FIELD_INJECTION",
			Keywords:     []string{"autowired", "injection", "constructor"},
		},
		{
			RuleID:       "CTX-008",
			Title:        "Method exceeds length limit",
			Description:  "Methods beyond roughly fifty lines tend to mix concerns. Extract cohesive steps into named helpers.",
			Severity:     "MEDIUM",
			Category:     "code_smell",
			CheckType:    matcher.CheckTypeLLMWithAST,
			TagCondition: "HAS_LARGE_METHOD",
			Keywords:     []string{"long-method", "refactor"},
			ASTHints: matcher.ASTHints{
				MaxLineCount: 50,
				NodeTypes:    []string{"MethodDeclaration"},
			},
		},
		{
			RuleID:       "CTX-009",
			Title:        "Cyclomatic complexity too high",
			Description:  "Deeply branching code is hard to test exhaustively. Split decision logic or introduce polymorphism.",
			Severity:     "MEDIUM",
			Category:     "code_smell",
			CheckType:    matcher.CheckTypeLLMWithAST,
			TagCondition: "COMPLEXITY_HOTSPOT",
			Keywords:     []string{"complexity", "branching"},
			ASTHints: matcher.ASTHints{
				MaxCyclomaticComplexity: 10,
			},
		},
		{
			RuleID:       "CTX-010",
			Title:        "printStackTrace instead of logging",
			Description:  "printStackTrace writes to stderr outside the logging pipeline and loses context fields.",
			Severity:     "LOW",
			Category:     "exception_handling",
			CheckType:    matcher.CheckTypeLLM,
			TagCondition: "HAS_PRINT_STACKTRACE",
			Keywords:     []string{"logging", "stacktrace"},
		},
		{
			RuleID:       "CTX-011",
			Title:        "Console output in production code",
			Description:  "System.out/System.err bypass log levels, formatting and shipping. Use the project logger.",
			Severity:     "LOW",
			Category:     "code_smell",
			CheckType:    matcher.CheckTypeLLM,
			TagCondition: "HAS_SYSTEM_OUT && !IS_TEST_CLASS",
			Keywords:     []string{"logging", "console"},
		},
		{
			RuleID:       "CTX-012",
			Title:        "Repository write without @Transactional",
			Description:  "Multi-step persistence operations need a transaction boundary to stay atomic.",
			Severity:     "HIGH",
			Category:     "resource_management",
			CheckType:    matcher.CheckTypeLLMWithAST,
			TagCondition: "IS_REPOSITORY && !HAS_TRANSACTIONAL",
			Keywords:     []string{"transaction", "repository"},
			ASTHints: matcher.ASTHints{
				RequiredAnnotations: []string{"@Transactional"},
			},
		},
		{
			RuleID:       "CTX-013",
			Title:        "Class name not PascalCase",
			Description:  "Java class names use PascalCase by convention.",
			Severity:     "LOW",
			Category:     "naming",
			CheckType:    matcher.CheckTypeLLMWithAST,
			Keywords:     []string{"naming", "convention"},
			TagCondition: "IS_CONTROLLER || IS_SERVICE || IS_REPOSITORY || IS_COMPONENT || IS_ENTITY",
			ASTHints: matcher.ASTHints{
				NamingPattern: "PascalCase",
			},
		},
		{
			RuleID:       "CTX-014",
			Title:        "Sensitive data without input validation",
			Description:  "Code paths handling credentials or personal data must validate their inputs before use.",
			Severity:     "HIGH",
			Category:     "security",
			CheckType:    matcher.CheckTypeLLM,
			TagCondition: "UNPROTECTED_SENSITIVE_DATA",
			Keywords:     []string{"validation", "sensitive", "pii"},
		},
	}
}

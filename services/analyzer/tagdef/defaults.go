// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tagdef

// Base tag names referenced across the analyzer. Detectors in the
// profiler and the risk model both key on these constants.
const (
	TagIsController         = "IS_CONTROLLER"
	TagIsService            = "IS_SERVICE"
	TagIsRepository         = "IS_REPOSITORY"
	TagIsComponent          = "IS_COMPONENT"
	TagIsEntity             = "IS_ENTITY"
	TagIsTestClass          = "IS_TEST_CLASS"
	TagHasEmptyCatch        = "HAS_EMPTY_CATCH"
	TagHasGenericCatch      = "HAS_GENERIC_EXCEPTION_CATCH"
	TagHasPrintStackTrace   = "HAS_PRINT_STACKTRACE"
	TagHasSystemOut         = "HAS_SYSTEM_OUT"
	TagUsesConnection       = "USES_CONNECTION"
	TagUsesStatement        = "USES_STATEMENT"
	TagUsesResultSet        = "USES_RESULTSET"
	TagUsesStream           = "USES_STREAM"
	TagHasTryWithResources  = "HAS_TRY_WITH_RESOURCES"
	TagHasCloseInFinally    = "HAS_CLOSE_IN_FINALLY"
	TagHasSQLConcatenation  = "HAS_SQL_CONCATENATION"
	TagUsesStringFormatSQL  = "USES_STRING_FORMAT_SQL"
	TagHasFieldInjection    = "HAS_FIELD_INJECTION"
	TagHasTransactional     = "HAS_TRANSACTIONAL"
	TagHasLargeMethod       = "HAS_LARGE_METHOD"
	TagHasDeepNesting       = "HAS_DEEP_NESTING"
	TagHasHighComplexity    = "HAS_HIGH_COMPLEXITY"
	TagHasMagicNumbers      = "HAS_MAGIC_NUMBERS"
	TagHasHardcodedSecret   = "HAS_HARDCODED_CREDENTIALS"
	TagUsesThread           = "USES_THREAD"
	TagHasSynchronized      = "HAS_SYNCHRONIZED"
	TagUsesReflection       = "USES_REFLECTION"
	TagBusinessInController = "HAS_BUSINESS_LOGIC_IN_CONTROLLER"
	TagIsGodClass           = "IS_GOD_CLASS"
	TagHasInputValidation   = "HAS_INPUT_VALIDATION"
	TagHandlesSensitiveData = "HANDLES_SENSITIVE_DATA"
	TagHasErrorRecovery     = "HAS_PROPER_ERROR_RECOVERY"
)

// Compound tag names.
const (
	CompoundUnsafeResources  = "UNSAFE_RESOURCE_HANDLING"
	CompoundSQLInjectionRisk = "SQL_INJECTION_RISK"
	CompoundSwallowedErrors  = "SWALLOWED_EXCEPTIONS"
	CompoundFatController    = "FAT_CONTROLLER"
	CompoundUnprotectedData  = "UNPROTECTED_SENSITIVE_DATA"
	CompoundComplexityHot    = "COMPLEXITY_HOTSPOT"
)

// DefaultTagDefinitions returns the built-in base tag vocabulary.
//
// Tier-1 definitions are decided by hard-coded detectors in the
// profiler; their Criteria is informational. Tier-2 definitions carry
// the criteria text verbatim into the batch prompt, so wording matters.
func DefaultTagDefinitions() []TagDefinition {
	return []TagDefinition{
		// Structural role tags (tier 1, annotation driven).
		{Name: TagIsController, Tier: Tier1, Description: "Class is a Spring MVC controller", Criteria: "@Controller or @RestController annotation present"},
		{Name: TagIsService, Tier: Tier1, Description: "Class is a Spring service bean", Criteria: "@Service annotation present"},
		{Name: TagIsRepository, Tier: Tier1, Description: "Class is a Spring data repository", Criteria: "@Repository annotation present"},
		{Name: TagIsComponent, Tier: Tier1, Description: "Class is a generic Spring component", Criteria: "@Component annotation present"},
		{Name: TagIsEntity, Tier: Tier1, Description: "Class is a JPA entity", Criteria: "@Entity annotation present"},
		{Name: TagIsTestClass, Tier: Tier1, Description: "Class is a test class", Criteria: "@Test annotations or a *Test class name"},

		// Exception handling (tier 1).
		{Name: TagHasEmptyCatch, Tier: Tier1, Description: "At least one catch block has an empty body", Criteria: "catch block whose body contains no statements"},
		{Name: TagHasGenericCatch, Tier: Tier1, Description: "Catches Exception or Throwable directly", Criteria: "catch (Exception ...) or catch (Throwable ...)"},
		{Name: TagHasPrintStackTrace, Tier: Tier1, Description: "Calls printStackTrace instead of logging", Criteria: ".printStackTrace() call present"},
		{Name: TagHasSystemOut, Tier: Tier1, Description: "Writes to System.out or System.err", Criteria: "System.out or System.err usage"},

		// Resource usage (tier 1).
		{Name: TagUsesConnection, Tier: Tier1, Description: "Acquires a JDBC Connection", Criteria: "java.sql.Connection usage"},
		{Name: TagUsesStatement, Tier: Tier1, Description: "Uses a JDBC Statement or PreparedStatement", Criteria: "Statement/PreparedStatement usage"},
		{Name: TagUsesResultSet, Tier: Tier1, Description: "Consumes a JDBC ResultSet", Criteria: "ResultSet usage"},
		{Name: TagUsesStream, Tier: Tier1, Description: "Opens an IO stream or reader/writer", Criteria: "InputStream/OutputStream/Reader/Writer construction"},
		{Name: TagHasTryWithResources, Tier: Tier1, Description: "Uses try-with-resources", Criteria: "try ( ... ) resource block"},
		{Name: TagHasCloseInFinally, Tier: Tier1, Description: "Closes resources in a finally block", Criteria: ".close() inside finally"},

		// Security signals (tier 1).
		{Name: TagHasSQLConcatenation, Tier: Tier1, Description: "Builds SQL by string concatenation", Criteria: "SQL keyword adjacent to '+' concatenation"},
		{Name: TagUsesStringFormatSQL, Tier: Tier1, Description: "Builds SQL via String.format", Criteria: "String.format with SQL keywords"},
		{Name: TagHasHardcodedSecret, Tier: Tier1, Description: "Hard-coded credential literal", Criteria: "password/secret/apiKey assigned a string literal"},

		// Spring idioms (tier 1).
		{Name: TagHasFieldInjection, Tier: Tier1, Description: "Uses field injection instead of constructor injection", Criteria: "@Autowired directly on a field"},
		{Name: TagHasTransactional, Tier: Tier1, Description: "Uses declarative transactions", Criteria: "@Transactional annotation present"},

		// Size and complexity (tier 1, AST metric driven).
		{Name: TagHasLargeMethod, Tier: Tier1, Description: "Contains a method longer than 50 lines", Criteria: "method body exceeding 50 lines"},
		{Name: TagHasDeepNesting, Tier: Tier1, Description: "Nesting depth exceeds 4", Criteria: "maximum block depth greater than 4"},
		{Name: TagHasHighComplexity, Tier: Tier1, Description: "File cyclomatic complexity exceeds 10", Criteria: "whole-file cyclomatic complexity greater than 10"},
		{Name: TagHasMagicNumbers, Tier: Tier1, Description: "Unexplained numeric literals in logic", Criteria: "multi-digit literals outside constant declarations"},

		// Concurrency and reflection (tier 1).
		{Name: TagUsesThread, Tier: Tier1, Description: "Creates threads directly", Criteria: "new Thread( or ExecutorService usage"},
		{Name: TagHasSynchronized, Tier: Tier1, Description: "Uses synchronized blocks or methods", Criteria: "synchronized keyword present"},
		{Name: TagUsesReflection, Tier: Tier1, Description: "Uses reflection", Criteria: "Class.forName or java.lang.reflect usage"},

		// Semantic judgments (tier 2, LLM decided).
		{Name: TagBusinessInController, Tier: Tier2, Description: "Controller contains business logic beyond request handling",
			Criteria: "Look for computation, persistence calls, or domain decisions implemented inside controller handler methods rather than delegated to a service."},
		{Name: TagIsGodClass, Tier: Tier2, Description: "Class accumulates too many unrelated responsibilities",
			Criteria: "Judge whether the class mixes several unrelated concerns (persistence, formatting, orchestration, validation) that belong in separate classes."},
		{Name: TagHasInputValidation, Tier: Tier2, Description: "External input is validated before use",
			Criteria: "Check whether parameters from requests, files, or messages are validated (null/range/format checks, bean validation annotations) before being used."},
		{Name: TagHandlesSensitiveData, Tier: Tier2, Description: "Code handles credentials, personal data, or payment data",
			Criteria: "Identify fields or variables carrying passwords, tokens, personal identifiers, or card data."},
		{Name: TagHasErrorRecovery, Tier: Tier2, Description: "Errors are handled with a meaningful recovery or propagation strategy",
			Criteria: "Judge whether catch blocks recover, translate, or rethrow meaningfully rather than logging and continuing."},
	}
}

// DefaultCompoundDefinitions returns the built-in compound formulas.
func DefaultCompoundDefinitions() []CompoundTagDefinition {
	return []CompoundTagDefinition{
		{
			Name:        CompoundUnsafeResources,
			Expression:  "(USES_CONNECTION || USES_STATEMENT || USES_RESULTSET || USES_STREAM) && !HAS_TRY_WITH_RESOURCES && !HAS_CLOSE_IN_FINALLY",
			Description: "Acquires closeable resources without a visible release path",
			Severity:    SeverityHigh,
		},
		{
			Name:        CompoundSQLInjectionRisk,
			Expression:  "(HAS_SQL_CONCATENATION || USES_STRING_FORMAT_SQL) && !HAS_INPUT_VALIDATION",
			Description: "Dynamic SQL built from unvalidated input",
			Severity:    SeverityCritical,
		},
		{
			Name:        CompoundSwallowedErrors,
			Expression:  "HAS_EMPTY_CATCH || (HAS_GENERIC_EXCEPTION_CATCH && HAS_PRINT_STACKTRACE)",
			Description: "Exceptions are swallowed or printed instead of handled",
			Severity:    SeverityMedium,
		},
		{
			Name:        CompoundFatController,
			Expression:  "IS_CONTROLLER && HAS_BUSINESS_LOGIC_IN_CONTROLLER",
			Description: "Controller carries business logic that belongs in services",
			Severity:    SeverityMedium,
		},
		{
			Name:        CompoundUnprotectedData,
			Expression:  "HANDLES_SENSITIVE_DATA && !HAS_INPUT_VALIDATION",
			Description: "Sensitive data flows without validation",
			Severity:    SeverityHigh,
		},
		{
			Name:        CompoundComplexityHot,
			Expression:  "HAS_HIGH_COMPLEXITY && (HAS_LARGE_METHOD || HAS_DEEP_NESTING)",
			Description: "Complexity concentrated in oversized or deeply nested code",
			Severity:    SeverityMedium,
		},
	}
}

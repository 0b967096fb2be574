package classifier

import "strings"

// MethodCategory buckets a traced method by the role its name and
// namespace suggest it plays, recorded on every ExecutedMethod in a
// forward trace.
type MethodCategory string

const (
	BusinessLogic  MethodCategory = "BusinessLogic"
	DataAccess     MethodCategory = "DataAccess"
	Infrastructure MethodCategory = "Infrastructure"
	Framework      MethodCategory = "Framework"
	ThirdParty     MethodCategory = "ThirdParty"
	TestUtility    MethodCategory = "TestUtility"
)

// frameworkNamespacePrefixes mark methods belonging to the base class
// library rather than workspace code.
var frameworkNamespacePrefixes = []string{"system", "microsoft."}

var dataAccessTokens = []string{"repository", "dbcontext", "dao", "sql", "query", "storage", "persistence"}

var infrastructureTokens = []string{"logger", "logging", "config", "cache", "serializ", "middleware", "startup", "infrastructure"}

// Categorize buckets a method by naming and namespace heuristics. Test
// candidates and helpers living in test classes are TestUtility; base
// class library namespaces are Framework; then name and namespace tokens
// decide DataAccess or Infrastructure; then recognizably external
// namespaces are ThirdParty; BusinessLogic is the default.
func Categorize(m Candidate, isTest bool) MethodCategory {
	if isTest || classNameLooksLikeTest(m.ContainingType) {
		return TestUtility
	}

	ns := strings.ToLower(m.Namespace)

	for _, prefix := range frameworkNamespacePrefixes {
		if strings.HasPrefix(ns, prefix) {
			return Framework
		}
	}

	haystack := strings.ToLower(m.Namespace + " " + m.ContainingType + " " + m.Name)

	for _, tok := range dataAccessTokens {
		if strings.Contains(haystack, tok) {
			return DataAccess
		}
	}

	for _, tok := range infrastructureTokens {
		if strings.Contains(haystack, tok) {
			return Infrastructure
		}
	}

	if strings.Contains(ns, "thirdparty") || strings.Contains(ns, "vendor") {
		return ThirdParty
	}

	return BusinessLogic
}

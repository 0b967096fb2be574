// Package classifier determines whether a MethodNode is a test method and,
// if so, its test type and confidence, per the priority table consulted by
// the Coverage and Impact Analyzers.
package classifier

import "strings"

// TestType enumerates the test categories CoverageInfo.test_type can take.
type TestType string

const (
	Unit        TestType = "Unit"
	Integration TestType = "Integration"
	EndToEnd    TestType = "EndToEnd"
	UI          TestType = "UI"
	API         TestType = "API"
	Database    TestType = "Database"
	Performance TestType = "Performance"
	Security    TestType = "Security"
	Unknown     TestType = "Unknown"
)

// Candidate is the subset of a MethodNode the Classifier needs: it is
// decoupled from pkg/graph.MethodNode so the classifier has no dependency
// on graph internals.
type Candidate struct {
	Name            string
	ContainingType  string
	Namespace       string
	Attributes      []string
	IsPublic        bool
	IsParameterless bool
}

// rule is one entry of the priority-ordered classification table.
type rule struct {
	priority        int
	testType        TestType
	tokens          []string
	namespaceTokens []string
}

// rules is ordered highest priority first; the first matching rule wins.
var rules = []rule{
	{priority: 90, testType: EndToEnd, tokens: []string{"e2e", "endtoend"}},
	{priority: 85, testType: UI, tokens: []string{"ui", "selenium", "webdriver", "browser"}},
	{priority: 80, testType: Database, tokens: []string{"database", "db", "sql", "entity", "orm-lib-a", "orm-lib-b", "repository"}},
	{priority: 75, testType: API, tokens: []string{"api", "http", "rest", "controller", "endpoint"}, namespaceTokens: []string{"api", "controllers"}},
	{priority: 70, testType: Performance, tokens: []string{"performance", "load", "stress", "benchmark"}},
	{priority: 65, testType: Security, tokens: []string{"security", "auth", "authorization", "authentication", "permission"}},
	{priority: 60, testType: Integration, tokens: []string{"integration"}},
}

// defaultTestAttributes covers the three mainstream C# test frameworks.
// Overridable via config.TestAttributes.
var defaultTestAttributes = map[string]bool{
	"fact":           true,
	"theory":         true,
	"test":           true,
	"testcase":       true,
	"testmethod":     true,
	"datatestmethod": true,
}

// Classifier classifies MethodNodes into test/non-test and, for tests,
// their TestType, using a configurable set of recognized test attributes.
type Classifier struct {
	testAttributes map[string]bool
}

// New creates a Classifier. A nil or empty attrs falls back to the
// built-in xUnit/NUnit/MSTest defaults.
func New(attrs []string) *Classifier {
	c := &Classifier{testAttributes: defaultTestAttributes}

	if len(attrs) > 0 {
		m := make(map[string]bool, len(attrs))
		for _, a := range attrs {
			m[strings.ToLower(a)] = true
		}

		c.testAttributes = m
	}

	return c
}

// IsTestCandidate reports whether m carries a recognized test-attribute
// tag, or is public, parameterless and declared in a class whose name
// ends in Test or Tests. Class-level attributes are not read, so a method
// with parameters counts only through its own attribute tag.
func (c *Classifier) IsTestCandidate(m Candidate) bool {
	for _, a := range m.Attributes {
		if c.testAttributes[strings.ToLower(a)] {
			return true
		}
	}

	return m.IsPublic && m.IsParameterless && classNameLooksLikeTest(m.ContainingType)
}

// Classify determines the TestType for a test candidate, and a confidence
// score for the classification: 0.95 when an explicit attribute drove the
// decision, 0.6 when only a naming heuristic matched, 0.3 when only the
// namespace matched. A test candidate, or a method in a class named like a
// test, that matches no rule is Unit (scored the same way by attribute);
// anything else is Unknown at 0.3.
func (c *Classifier) Classify(m Candidate) (testType TestType, confidence float64) {
	haystack := strings.ToLower(m.Name + " " + m.ContainingType)
	namespaceHaystack := strings.ToLower(m.Namespace)

	for _, r := range rules {
		for _, tok := range r.tokens {
			if strings.Contains(haystack, tok) {
				return r.testType, attributeConfidence(c, m)
			}
		}

		for _, tok := range r.namespaceTokens {
			if strings.Contains(namespaceHaystack, tok) {
				return r.testType, 0.3
			}
		}
	}

	if c.IsTestCandidate(m) || classNameLooksLikeTest(m.ContainingType) {
		return Unit, attributeConfidence(c, m)
	}

	return Unknown, 0.3
}

func attributeConfidence(c *Classifier, m Candidate) float64 {
	for _, a := range m.Attributes {
		if c.testAttributes[strings.ToLower(a)] {
			return 0.95
		}
	}

	return 0.6
}

func classNameLooksLikeTest(containingType string) bool {
	lower := strings.ToLower(containingType)

	return strings.HasSuffix(lower, "test") || strings.HasSuffix(lower, "tests")
}

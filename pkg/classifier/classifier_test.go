package classifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/classifier"
)

func TestClassify_EndToEndOutranksSecurityAndUnit(t *testing.T) {
	c := classifier.New(nil)

	testType, confidence := c.Classify(classifier.Candidate{
		Name:           "LoginEndToEndTest",
		ContainingType: "AuthSecurityTests",
		Attributes:     []string{"Fact"},
	})

	assert.Equal(t, classifier.EndToEnd, testType)
	assert.Equal(t, 0.95, confidence)
}

func TestClassify_UnitFallbackOnTestSuffix(t *testing.T) {
	c := classifier.New(nil)

	testType, _ := c.Classify(classifier.Candidate{
		Name:           "AddsTwoNumbers",
		ContainingType: "CalculatorTests",
	})

	assert.Equal(t, classifier.Unit, testType)
}

func TestClassify_NamespaceOnlyMatchYieldsLowerConfidence(t *testing.T) {
	c := classifier.New(nil)

	testType, confidence := c.Classify(classifier.Candidate{
		Name:           "GetWidgets",
		ContainingType: "WidgetGateway",
		Namespace:      "MyApp.Controllers",
	})

	assert.Equal(t, classifier.API, testType)
	assert.Equal(t, 0.3, confidence)
}

func TestIsTestCandidate_AttributeTagWins(t *testing.T) {
	c := classifier.New(nil)

	assert.True(t, c.IsTestCandidate(classifier.Candidate{
		Name:       "SomeHelperLookingMethod",
		Attributes: []string{"Theory"},
	}))
}

func TestIsTestCandidate_PublicParameterlessInTestClass(t *testing.T) {
	c := classifier.New(nil)

	assert.True(t, c.IsTestCandidate(classifier.Candidate{
		ContainingType:  "InvoiceServiceTests",
		IsPublic:        true,
		IsParameterless: true,
	}))

	assert.False(t, c.IsTestCandidate(classifier.Candidate{
		ContainingType:  "InvoiceServiceTests",
		IsPublic:        false,
		IsParameterless: true,
	}))
}

func TestIsTestCandidate_CustomAttributeSetOverridesDefaults(t *testing.T) {
	c := classifier.New([]string{"CustomTestAttribute"})

	assert.False(t, c.IsTestCandidate(classifier.Candidate{Attributes: []string{"Fact"}}))
	assert.True(t, c.IsTestCandidate(classifier.Candidate{Attributes: []string{"CustomTestAttribute"}}))
}

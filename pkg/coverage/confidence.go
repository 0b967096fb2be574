package coverage

import "github.com/Chris-Cullins/TestIntel-sub004/pkg/classifier"

// confidence combines base confidence from path length, times a
// test-type factor, times a classifier-confidence blend, clamped to
// [0, 1].
func confidence(pathLen int, testType classifier.TestType, classifierConfidence float64) float64 {
	d := pathLen - 1

	base := baseConfidence(d)
	factor := testTypeFactor(testType)
	blend := 0.5 + 0.5*classifierConfidence

	c := base * factor * blend

	return clamp01(c)
}

func baseConfidence(d int) float64 {
	switch {
	case d <= 1:
		return 1.00
	case d <= 3:
		return 0.80
	case d <= 6:
		return 0.60
	default:
		return 0.40
	}
}

func testTypeFactor(t classifier.TestType) float64 {
	switch t {
	case classifier.Unit:
		return 1.00
	case classifier.Integration:
		return 0.90
	case classifier.EndToEnd:
		return 0.80
	default:
		return 0.90
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

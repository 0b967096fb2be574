package impact_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/callgraph"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/diffparse"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/impact"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/workspace"
)

const serviceSource = `
namespace App
{
    public class Calculator
    {
        public int Compute(int amount)
        {
            return Adjust(amount);
        }

        public int Adjust(int amount)
        {
            return amount + 1;
        }
    }
}
`

const calculatorTestSource = `
namespace App.Tests
{
    public class CalculatorTests
    {
        [Fact]
        public void ComputeReturnsAdjustedAmount()
        {
            var calc = new Calculator();
            calc.Compute(10);
        }
    }
}
`

func buildAnalyzer(t *testing.T) (*impact.Analyzer, string) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Calculator.cs"), []byte(serviceSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CalculatorTests.cs"), []byte(calculatorTestSource), 0o644))

	snap, err := workspace.Resolve(dir)
	require.NoError(t, err)

	b, err := callgraph.NewBuilder(nil)
	require.NoError(t, err)

	g, _, err := b.Build(context.Background(), snap)
	require.NoError(t, err)

	return impact.New(g, 0), dir
}

func TestAnalyze_RecognizedSignatureFindsAffectedTest(t *testing.T) {
	analyzer, dir := buildAnalyzer(t)

	diffText := `--- a/Calculator.cs
+++ b/Calculator.cs
@@ -5,6 +5,6 @@
     public class Calculator
     {
-        public int Adjust(int amount)
+        public int Adjust(int amount)
         {
             return amount + 1;
         }
     }
`
	_ = dir

	diffSet, err := diffparse.ParseText(diffText)
	require.NoError(t, err)

	report, err := analyzer.Analyze(context.Background(), diffSet)
	require.NoError(t, err)

	require.NotEmpty(t, report.AffectedTests)
	assert.Equal(t, "ComputeReturnsAdjustedAmount", report.AffectedTests[0].TestID.SimpleName())
	assert.NotEmpty(t, report.AffectedTests[0].Coverage)
}

func TestAnalyze_UnrecognizedSignatureFallsBackToFileLevel(t *testing.T) {
	analyzer, _ := buildAnalyzer(t)

	diffText := `--- a/Calculator.cs
+++ b/Calculator.cs
@@ -1,3 +1,3 @@
 namespace App
 {
-    // old comment
+    // new comment
`

	diffSet, err := diffparse.ParseText(diffText)
	require.NoError(t, err)

	report, err := analyzer.Analyze(context.Background(), diffSet)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Diagnostics.FileLevelFallbacks)

	// File-level fallback means every method declared in Calculator.cs is
	// treated as changed, so the test reaching Compute must be affected
	// even though the hunk itself touches no method body.
	require.NotEmpty(t, report.AffectedTests)
	assert.Equal(t, "ComputeReturnsAdjustedAmount", report.AffectedTests[0].TestID.SimpleName())
}

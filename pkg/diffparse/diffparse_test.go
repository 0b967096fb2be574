package diffparse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/diffparse"
)

const sampleDiff = `diff --git a/src/Invoice.cs b/src/Invoice.cs
index 1234567..89abcde 100644
--- a/src/Invoice.cs
+++ b/src/Invoice.cs
@@ -10,3 +10,6 @@ namespace Billing
 {
     public class Invoice
     {
+        public decimal Total()
+        {
+            return 0m;
         }
diff --git a/src/Notes.md b/src/Notes.md
index 2222222..3333333 100644
--- a/src/Notes.md
+++ b/src/Notes.md
@@ -1,1 +1,2 @@
 hello
+world
`

func TestParseText_ExtractsHunksAndChangedMethods(t *testing.T) {
	set, err := diffparse.ParseText(sampleDiff)
	require.NoError(t, err)
	require.Len(t, set.Files, 2)

	invoice := set.Files[0]
	assert.Equal(t, "src/Invoice.cs", invoice.Path)
	require.Len(t, invoice.Hunks, 1)
	assert.Equal(t, 10, invoice.Hunks[0].OldStart)
	assert.Equal(t, 10, invoice.Hunks[0].NewStart)
	assert.Contains(t, invoice.ChangedMethods, "Total")

	notes := set.Files[1]
	assert.Equal(t, "src/Notes.md", notes.Path)
	assert.Empty(t, notes.ChangedMethods)
	require.Len(t, notes.Hunks, 1)
}

func TestParseText_NoRecognizableSignatureYieldsEmptyMethods(t *testing.T) {
	diff := `diff --git a/src/Config.cs b/src/Config.cs
--- a/src/Config.cs
+++ b/src/Config.cs
@@ -1,1 +1,2 @@
 existing line
+var x = 1;
`
	set, err := diffparse.ParseText(diff)
	require.NoError(t, err)
	require.Len(t, set.Files, 1)
	assert.Empty(t, set.Files[0].ChangedMethods)
}

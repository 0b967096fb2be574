package syntax_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/syntax"
)

const sampleSource = `
namespace Billing.Services
{
    public class InvoiceService
    {
        [Fact]
        public void ChargesCustomer()
        {
            var calculator = new PriceCalculator();
            calculator.Compute(10);
        }

        public int Compute(int amount)
        {
            return amount * 2;
        }
    }
}
`

func TestParser_ExtractMethodsFindsDeclarationsAndCallSites(t *testing.T) {
	p, err := syntax.NewParser()
	require.NoError(t, err)

	tree, err := p.ParseFile(context.Background(), "InvoiceService.cs", []byte(sampleSource))
	require.NoError(t, err)
	defer tree.Close()

	assert.False(t, tree.HasErrors())

	methods := syntax.ExtractMethods(tree)
	require.Len(t, methods, 2)

	var charges, compute *syntax.MethodInfo

	for i := range methods {
		switch methods[i].Name {
		case "ChargesCustomer":
			charges = &methods[i]
		case "Compute":
			compute = &methods[i]
		}
	}

	require.NotNil(t, charges)
	require.NotNil(t, compute)

	assert.Equal(t, "Billing.Services", charges.Namespace)
	assert.Equal(t, "InvoiceService", charges.ContainingType)
	assert.Contains(t, charges.Attributes, "Fact")
	assert.NotEmpty(t, charges.CallSites)

	assert.Equal(t, []string{"int"}, compute.ParamTypes)
}

package classifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/classifier"
)

func TestCategorize(t *testing.T) {
	cases := []struct {
		name      string
		candidate classifier.Candidate
		isTest    bool
		want      classifier.MethodCategory
	}{
		{
			name:      "test method",
			candidate: classifier.Candidate{Name: "RunTest", ContainingType: "SvcTests"},
			isTest:    true,
			want:      classifier.TestUtility,
		},
		{
			name:      "helper in test class",
			candidate: classifier.Candidate{Name: "Setup", ContainingType: "SvcTests"},
			want:      classifier.TestUtility,
		},
		{
			name:      "base class library namespace",
			candidate: classifier.Candidate{Name: "Parse", ContainingType: "Int32", Namespace: "System"},
			want:      classifier.Framework,
		},
		{
			name:      "repository type",
			candidate: classifier.Candidate{Name: "GetById", ContainingType: "OrderRepository", Namespace: "App.Data"},
			want:      classifier.DataAccess,
		},
		{
			name:      "logging helper",
			candidate: classifier.Candidate{Name: "Write", ContainingType: "RequestLogger", Namespace: "App"},
			want:      classifier.Infrastructure,
		},
		{
			name:      "plain service method",
			candidate: classifier.Candidate{Name: "Compute", ContainingType: "Calculator", Namespace: "App"},
			want:      classifier.BusinessLogic,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifier.Categorize(tc.candidate, tc.isTest))
		})
	}
}

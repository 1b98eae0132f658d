//go:build property
// +build property

package condition

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/abacsys/decision-service/pkg/attrtype"
	"github.com/abacsys/decision-service/pkg/model"
)

// TestEvaluate_Deterministic verifies Evaluate(spec, maps) always
// returns the same (bool, error-kind) pair for the same inputs — C4
// must be a pure function.
func TestEvaluate_Deterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Evaluate is deterministic", prop.ForAll(
		func(left, right string) bool {
			maps := subjectMaps("department", attrtype.String, left)
			spec := Spec{Category: model.Subject, Key: "department", Operator: model.Equals, ExpectedValue: right}

			ok1, err1 := Evaluate(spec, maps)
			ok2, err2 := Evaluate(spec, maps)

			if (err1 == nil) != (err2 == nil) {
				return false
			}
			return ok1 == ok2
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestEvaluate_NotEqualsIsNegationOfEquals checks the operator pairs
// the spec defines as strict negations actually are, for every input.
func TestEvaluate_NotEqualsIsNegationOfEquals(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("NotEquals negates Equals", prop.ForAll(
		func(left, right string) bool {
			maps := subjectMaps("department", attrtype.String, left)

			eq, err := Evaluate(Spec{Category: model.Subject, Key: "department", Operator: model.Equals, ExpectedValue: right}, maps)
			if err != nil {
				return true
			}
			neq, err := Evaluate(Spec{Category: model.Subject, Key: "department", Operator: model.NotEquals, ExpectedValue: right}, maps)
			if err != nil {
				return false
			}
			return eq != neq
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestEvaluate_InNotInPartition checks In and NotIn always disagree
// for any well-formed comma list.
func TestEvaluate_InNotInPartition(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("In and NotIn partition the list", prop.ForAll(
		func(left string, list []string) bool {
			maps := subjectMaps("department", attrtype.String, left)
			expected := joinComma(list)

			in, err := Evaluate(Spec{Category: model.Subject, Key: "department", Operator: model.In, ExpectedValue: expected}, maps)
			if err != nil {
				return true
			}
			notIn, err := Evaluate(Spec{Category: model.Subject, Key: "department", Operator: model.NotIn, ExpectedValue: expected}, maps)
			if err != nil {
				return false
			}
			return in != notIn
		},
		gen.AlphaString(),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}

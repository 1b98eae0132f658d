//go:build property
// +build property

package combiner

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/abacsys/decision-service/pkg/model"
)

// TestCombine_DenySupremacy verifies that any Applies(Deny) anywhere
// in the input forces a Deny result, regardless of how many Permits
// surround it (spec.md §4.6).
func TestCombine_DenySupremacy(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("a single Deny anywhere forces Deny", prop.ForAll(
		func(permitCount, denyPosition int) bool {
			n := permitCount % 10
			if n < 0 {
				n = -n
			}
			pos := denyPosition % (n + 1)
			if pos < 0 {
				pos = -pos
			}

			var evaluated []Evaluated
			for i := 0; i <= n; i++ {
				if i == pos {
					evaluated = append(evaluated, applies(uuid.New(), model.Deny))
				} else {
					evaluated = append(evaluated, applies(uuid.New(), model.Permit))
				}
			}

			d := Combine(evaluated)
			return d.Result == model.ResultDeny
		},
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

// TestCombine_FailClosed verifies that with no Deny and no Permit
// latched, the result is always Deny — whether from Indeterminate
// entries or an entirely NotApplicable walk.
func TestCombine_FailClosed(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("no Deny, no Permit always yields Deny", prop.ForAll(
		func(count int, hasIndeterminate bool) bool {
			n := count % 10
			if n < 0 {
				n = -n
			}

			var evaluated []Evaluated
			for i := 0; i < n; i++ {
				if hasIndeterminate && i == 0 {
					evaluated = append(evaluated, indeterminate(uuid.New(), errors.New("boom")))
				} else {
					evaluated = append(evaluated, notApplicable(uuid.New()))
				}
			}

			d := Combine(evaluated)
			return d.Result == model.ResultDeny
		},
		gen.IntRange(0, 1000),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// TestCombine_NoPolicyDefault verifies the empty-input default reason.
func TestCombine_NoPolicyDefault(t *testing.T) {
	d := Combine(nil)
	if d.Result != model.ResultDeny || d.Reason != "No applicable policy" {
		t.Fatalf("expected fail-closed no-policy default, got %+v", d)
	}
}

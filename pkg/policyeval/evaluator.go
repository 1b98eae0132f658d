// Package policyeval implements the Policy Evaluator (C5): runs every
// condition of a single policy in order and folds the results into one
// PolicyOutcome (spec.md §4.5).
package policyeval

import (
	"github.com/abacsys/decision-service/pkg/abacerr"
	"github.com/abacsys/decision-service/pkg/condition"
	"github.com/abacsys/decision-service/pkg/model"
)

// Outcome is the result of evaluating one policy's conditions.
type Outcome struct {
	Result model.PolicyOutcome
	Effect model.Effect
	Err    error // set only when Result == OutcomeIndeterminate
}

// Evaluate runs every condition in conds, in the order given, against
// maps, short-circuiting on the first false or the first error.
// Callers MUST pass conds already ordered by Condition.Order (the
// storage layer enforces this with `ORDER BY ord ASC`) — a false at
// position k takes priority over an error at k+1 (spec.md §4.5), which
// falls directly out of evaluating strictly in order and stopping at
// the first non-true result.
//
// Policies with zero conditions are NotApplicable (spec.md §4.5): an
// unconditioned policy is a catalogue bug the evaluator refuses to
// reward with blanket effect.
func Evaluate(conds []condition.Spec, effect model.Effect, maps condition.Maps) Outcome {
	if len(conds) == 0 {
		return Outcome{Result: model.OutcomeNotApplicable}
	}

	for _, spec := range conds {
		ok, err := condition.Evaluate(spec, maps)
		if !ok && err == nil {
			return Outcome{Result: model.OutcomeNotApplicable}
		}
		if err != nil {
			return Outcome{Result: model.OutcomeIndeterminate, Err: err}
		}
	}
	return Outcome{Result: model.OutcomeApplies, Effect: effect}
}

// FirstErrorMessage extracts a human-readable summary for the
// combiner's reason string (spec.md §4.6 step 5).
func FirstErrorMessage(err error) string {
	if e, ok := abacerr.As(err); ok {
		return e.Error()
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// Package combiner implements the Decision Combiner (C6): folds the
// ordered per-policy outcomes from C5 into one final decision (spec.md
// §4.6 — "deny-overrides with priority and explicit NotApplicable
// default").
package combiner

import (
	"github.com/abacsys/decision-service/pkg/model"
	"github.com/abacsys/decision-service/pkg/policyeval"
)

// Evaluated pairs one policy (by id) with the outcome C5 produced for
// it. Callers must pass these in the same (priority DESC, id ASC)
// order C2 returned them in.
type Evaluated struct {
	PolicyID model.ID
	Outcome  policyeval.Outcome
}

// Decision is the final combiner output (spec.md §4.6, §6.1).
type Decision struct {
	Result               model.Result
	Reason               string
	DecidingPolicyID      *model.ID
	EvaluatedPolicyCount int
}

// Combine walks evaluated in order and applies deny-overrides: the
// first Applies(Deny) wins outright; the first Applies(Permit) is
// latched but can still be overridden by a later Deny; Indeterminate
// entries are recorded but never win over a latched Permit.
func Combine(evaluated []Evaluated) Decision {
	var (
		permitLatched   bool
		permitPolicyID  model.ID
		firstIndeterminate *Evaluated
	)

	for i := range evaluated {
		e := evaluated[i]
		switch e.Outcome.Result {
		case model.OutcomeApplies:
			if e.Outcome.Effect == model.Deny {
				return Decision{
					Result:               model.ResultDeny,
					Reason:               "Applies(Deny)",
					DecidingPolicyID:      &e.PolicyID,
					EvaluatedPolicyCount: len(evaluated),
				}
			}
			if !permitLatched {
				permitLatched = true
				permitPolicyID = e.PolicyID
			}
		case model.OutcomeIndeterminate:
			if firstIndeterminate == nil {
				firstIndeterminate = &evaluated[i]
			}
		case model.OutcomeNotApplicable:
			// contributes nothing
		}
	}

	if permitLatched {
		return Decision{
			Result:               model.ResultPermit,
			Reason:               "Applies(Permit)",
			DecidingPolicyID:      &permitPolicyID,
			EvaluatedPolicyCount: len(evaluated),
		}
	}

	if firstIndeterminate != nil {
		id := firstIndeterminate.PolicyID
		return Decision{
			Result:               model.ResultDeny,
			Reason:               "Indeterminate policy(ies): " + policyeval.FirstErrorMessage(firstIndeterminate.Outcome.Err),
			DecidingPolicyID:      &id,
			EvaluatedPolicyCount: len(evaluated),
		}
	}

	return Decision{
		Result:               model.ResultDeny,
		Reason:               "No applicable policy",
		DecidingPolicyID:      nil,
		EvaluatedPolicyCount: len(evaluated),
	}
}

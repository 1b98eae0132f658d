package combiner

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/abacsys/decision-service/pkg/model"
	"github.com/abacsys/decision-service/pkg/policyeval"
)

func applies(id model.ID, effect model.Effect) Evaluated {
	return Evaluated{PolicyID: id, Outcome: policyeval.Outcome{Result: model.OutcomeApplies, Effect: effect}}
}

func notApplicable(id model.ID) Evaluated {
	return Evaluated{PolicyID: id, Outcome: policyeval.Outcome{Result: model.OutcomeNotApplicable}}
}

func indeterminate(id model.ID, err error) Evaluated {
	return Evaluated{PolicyID: id, Outcome: policyeval.Outcome{Result: model.OutcomeIndeterminate, Err: err}}
}

func TestCombine_NoPolicies(t *testing.T) {
	d := Combine(nil)
	assert.Equal(t, model.ResultDeny, d.Result)
	assert.Equal(t, "No applicable policy", d.Reason)
	assert.Nil(t, d.DecidingPolicyID)
}

func TestCombine_SinglePermit(t *testing.T) {
	id := uuid.New()
	d := Combine([]Evaluated{applies(id, model.Permit)})
	assert.Equal(t, model.ResultPermit, d.Result)
	assert.Equal(t, id, *d.DecidingPolicyID)
}

func TestCombine_DenyOverridesLaterPermit(t *testing.T) {
	denyID := uuid.New()
	permitID := uuid.New()
	d := Combine([]Evaluated{applies(denyID, model.Deny), applies(permitID, model.Permit)})
	assert.Equal(t, model.ResultDeny, d.Result)
	assert.Equal(t, denyID, *d.DecidingPolicyID)
}

func TestCombine_DenyOverridesEarlierPermit(t *testing.T) {
	permitID := uuid.New()
	denyID := uuid.New()
	d := Combine([]Evaluated{applies(permitID, model.Permit), applies(denyID, model.Deny)})
	assert.Equal(t, model.ResultDeny, d.Result)
	assert.Equal(t, denyID, *d.DecidingPolicyID)
}

func TestCombine_FirstPermitLatched(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	d := Combine([]Evaluated{applies(first, model.Permit), applies(second, model.Permit)})
	assert.Equal(t, first, *d.DecidingPolicyID)
}

func TestCombine_IndeterminateWithoutPermitIsFailClosedDeny(t *testing.T) {
	id := uuid.New()
	d := Combine([]Evaluated{notApplicable(uuid.New()), indeterminate(id, errors.New("attribute missing"))})
	assert.Equal(t, model.ResultDeny, d.Result)
	assert.Equal(t, id, *d.DecidingPolicyID)
	assert.Contains(t, d.Reason, "Indeterminate policy(ies)")
}

func TestCombine_PermitLatchedBeatsIndeterminate(t *testing.T) {
	permitID := uuid.New()
	d := Combine([]Evaluated{indeterminate(uuid.New(), errors.New("x")), applies(permitID, model.Permit)})
	assert.Equal(t, model.ResultPermit, d.Result)
	assert.Equal(t, permitID, *d.DecidingPolicyID)
}

func TestCombine_AllNotApplicable(t *testing.T) {
	d := Combine([]Evaluated{notApplicable(uuid.New()), notApplicable(uuid.New())})
	assert.Equal(t, model.ResultDeny, d.Result)
	assert.Equal(t, "No applicable policy", d.Reason)
}

func TestCombine_EvaluatedPolicyCount(t *testing.T) {
	d := Combine([]Evaluated{notApplicable(uuid.New()), notApplicable(uuid.New()), notApplicable(uuid.New())})
	assert.Equal(t, 3, d.EvaluatedPolicyCount)
}

package policyeval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abacsys/decision-service/pkg/attrtype"
	"github.com/abacsys/decision-service/pkg/condition"
	"github.com/abacsys/decision-service/pkg/model"
)

func maps(key string, t attrtype.Type, raw string) condition.Maps {
	return condition.Maps{
		Subject:     map[string]condition.Attribute{key: {Type: t, Raw: raw}},
		Resource:    map[string]condition.Attribute{},
		Environment: map[string]condition.Attribute{},
	}
}

func TestEvaluate_ZeroConditionsIsNotApplicable(t *testing.T) {
	out := Evaluate(nil, model.Permit, condition.Maps{})
	assert.Equal(t, model.OutcomeNotApplicable, out.Result)
}

func TestEvaluate_AllTrueApplies(t *testing.T) {
	m := maps("department", attrtype.String, "Finance")
	conds := []condition.Spec{
		{Category: model.Subject, Key: "department", Operator: model.Equals, ExpectedValue: "Finance"},
	}
	out := Evaluate(conds, model.Permit, m)
	assert.Equal(t, model.OutcomeApplies, out.Result)
	assert.Equal(t, model.Permit, out.Effect)
}

func TestEvaluate_FalseBeforeErrorIsNotApplicable(t *testing.T) {
	m := maps("department", attrtype.String, "HR")
	conds := []condition.Spec{
		{Category: model.Subject, Key: "department", Operator: model.Equals, ExpectedValue: "Finance"}, // false
		{Category: model.Subject, Key: "missing_attr", Operator: model.Equals, ExpectedValue: "x"},      // would error
	}
	out := Evaluate(conds, model.Permit, m)
	assert.Equal(t, model.OutcomeNotApplicable, out.Result)
}

func TestEvaluate_ErrorBeforeFalseIsIndeterminate(t *testing.T) {
	m := maps("department", attrtype.String, "HR")
	conds := []condition.Spec{
		{Category: model.Subject, Key: "missing_attr", Operator: model.Equals, ExpectedValue: "x"},     // errors first
		{Category: model.Subject, Key: "department", Operator: model.Equals, ExpectedValue: "Finance"}, // would be false
	}
	out := Evaluate(conds, model.Permit, m)
	assert.Equal(t, model.OutcomeIndeterminate, out.Result)
	assert.Error(t, out.Err)
}

func TestFirstErrorMessage_PlainError(t *testing.T) {
	assert.Equal(t, "boom", FirstErrorMessage(errors.New("boom")))
}

func TestFirstErrorMessage_Nil(t *testing.T) {
	assert.Equal(t, "", FirstErrorMessage(nil))
}

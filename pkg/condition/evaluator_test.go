package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abacsys/decision-service/pkg/abacerr"
	"github.com/abacsys/decision-service/pkg/attrtype"
	"github.com/abacsys/decision-service/pkg/model"
)

func subjectMaps(key string, t attrtype.Type, raw string) Maps {
	return Maps{
		Subject:     map[string]Attribute{key: {Type: t, Raw: raw}},
		Resource:    map[string]Attribute{},
		Environment: map[string]Attribute{},
	}
}

func TestEvaluate_Equals(t *testing.T) {
	maps := subjectMaps("department", attrtype.String, "Finance")
	ok, err := Evaluate(Spec{Category: model.Subject, Key: "department", Operator: model.Equals, ExpectedValue: "Finance"}, maps)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_EqualsCaseSensitive(t *testing.T) {
	maps := subjectMaps("department", attrtype.String, "Finance")
	ok, err := Evaluate(Spec{Category: model.Subject, Key: "department", Operator: model.Equals, ExpectedValue: "finance"}, maps)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluate_AttributeMissing(t *testing.T) {
	maps := Maps{Subject: map[string]Attribute{}}
	_, err := Evaluate(Spec{Category: model.Subject, Key: "department", Operator: model.Equals, ExpectedValue: "Finance"}, maps)
	require.Error(t, err)
	assert.True(t, abacerr.Is(err, abacerr.AttributeMissing))
}

func TestEvaluate_UnknownOperator(t *testing.T) {
	maps := subjectMaps("department", attrtype.String, "Finance")
	_, err := Evaluate(Spec{Category: model.Subject, Key: "department", Operator: "Near", ExpectedValue: "Finance"}, maps)
	require.Error(t, err)
	assert.True(t, abacerr.Is(err, abacerr.ConditionMalformed))
}

func TestEvaluate_UnknownCategory(t *testing.T) {
	maps := subjectMaps("department", attrtype.String, "Finance")
	_, err := Evaluate(Spec{Category: "Device", Key: "department", Operator: model.Equals, ExpectedValue: "Finance"}, maps)
	require.Error(t, err)
	assert.True(t, abacerr.Is(err, abacerr.ConditionMalformed))
}

func TestEvaluate_BooleanOrderingIsTypeError(t *testing.T) {
	maps := subjectMaps("is_manager", attrtype.Boolean, "true")
	_, err := Evaluate(Spec{Category: model.Subject, Key: "is_manager", Operator: model.GreaterThan, ExpectedValue: "false"}, maps)
	require.Error(t, err)
	assert.True(t, abacerr.Is(err, abacerr.AttributeTypeError))
}

func TestEvaluate_GreaterThanNumber(t *testing.T) {
	maps := subjectMaps("clearance_level", attrtype.Number, "5")
	ok, err := Evaluate(Spec{Category: model.Subject, Key: "clearance_level", Operator: model.GreaterThan, ExpectedValue: "3"}, maps)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_Contains(t *testing.T) {
	maps := subjectMaps("classification", attrtype.String, "classified-public")
	ok, err := Evaluate(Spec{Category: model.Subject, Key: "classification", Operator: model.Contains, ExpectedValue: "public"}, maps)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_ContainsOnlyString(t *testing.T) {
	maps := subjectMaps("clearance_level", attrtype.Number, "5")
	_, err := Evaluate(Spec{Category: model.Subject, Key: "clearance_level", Operator: model.Contains, ExpectedValue: "5"}, maps)
	require.Error(t, err)
	assert.True(t, abacerr.Is(err, abacerr.AttributeTypeError))
}

func TestEvaluate_In(t *testing.T) {
	maps := subjectMaps("department", attrtype.String, "Finance")
	ok, err := Evaluate(Spec{Category: model.Subject, Key: "department", Operator: model.In, ExpectedValue: "IT, Finance, Legal"}, maps)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_NotIn(t *testing.T) {
	maps := subjectMaps("department", attrtype.String, "HR")
	ok, err := Evaluate(Spec{Category: model.Subject, Key: "department", Operator: model.NotIn, ExpectedValue: "IT, Finance, Legal"}, maps)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_TypeMismatchRightOperand(t *testing.T) {
	maps := subjectMaps("clearance_level", attrtype.Number, "5")
	_, err := Evaluate(Spec{Category: model.Subject, Key: "clearance_level", Operator: model.Equals, ExpectedValue: "not-a-number"}, maps)
	require.Error(t, err)
	assert.True(t, abacerr.Is(err, abacerr.AttributeTypeError))
}

func TestEvaluate_DateTimeOrdering(t *testing.T) {
	maps := subjectMaps("hired_at", attrtype.DateTime, "2020-01-01T00:00:00Z")
	ok, err := Evaluate(Spec{Category: model.Subject, Key: "hired_at", Operator: model.LessThan, ExpectedValue: "2024-01-01T00:00:00Z"}, maps)
	require.NoError(t, err)
	assert.True(t, ok)
}

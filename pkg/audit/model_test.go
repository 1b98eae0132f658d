package audit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/abacsys/decision-service/pkg/model"
)

func TestPage_Normalize(t *testing.T) {
	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, Page{}.Normalize())
	assert.Equal(t, Page{Number: 1, Size: MaxPageSize}, Page{Number: 0, Size: 9999}.Normalize())
	assert.Equal(t, Page{Number: 1, Size: MinPageSize}, Page{Size: -5}.Normalize())
	assert.Equal(t, 100, Page{Number: 3, Size: 50}.Offset())
}

func TestNewContext_TruncatesAt64(t *testing.T) {
	evaluated := make([]PolicyEvaluation, 100)
	for i := range evaluated {
		evaluated[i] = PolicyEvaluation{PolicyID: uuid.New(), Outcome: model.OutcomeNotApplicable}
	}
	c := NewContext(map[string]string{"ipAddress": "127.0.0.1"}, evaluated)
	assert.Len(t, c.EvaluatedPolicies, MaxEvaluatedPolicies)
	assert.True(t, c.Truncated)
}

func TestNewContext_NoTruncationUnderCap(t *testing.T) {
	evaluated := []PolicyEvaluation{{PolicyID: uuid.New(), Outcome: model.OutcomeApplies}}
	c := NewContext(nil, evaluated)
	assert.Len(t, c.EvaluatedPolicies, 1)
	assert.False(t, c.Truncated)
}

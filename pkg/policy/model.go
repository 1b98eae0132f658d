// Package policy implements the Policy Catalogue (C2): Policy,
// PolicyCondition, PolicyAction, and Action entities, storage, bundle
// import/export, and condition-grammar validation.
package policy

import (
	"sort"
	"time"

	"github.com/abacsys/decision-service/pkg/condition"
	"github.com/abacsys/decision-service/pkg/model"
)

// Condition is one leaf of a Policy's AND-conjunction (spec.md §3,
// §4.4). Category/Key select the attribute; Operator and ExpectedValue
// describe the comparison.
type Condition struct {
	ID            model.ID
	PolicyID      model.ID
	Category      model.AttributeCategory
	Key           string
	Operator      model.Operator
	ExpectedValue string
	Order         int
}

// Spec projects a stored Condition into the four-field shape the
// Condition Evaluator (C4) consumes.
func (c Condition) Spec() condition.Spec {
	return condition.Spec{
		Category:      c.Category,
		Key:           c.Key,
		Operator:      c.Operator,
		ExpectedValue: c.ExpectedValue,
	}
}

// Action is a registered operation a Policy's actions reference by code
// (e.g. "document.read").
type Action struct {
	ID          model.ID
	Code        string
	Description string
	CreatedAt   time.Time
	IsDeleted   bool
}

// PolicyAction binds a Policy to one of the Actions it governs.
type PolicyAction struct {
	ID       model.ID
	PolicyID model.ID
	ActionID model.ID
}

// Policy is a named, prioritized rule: when every Condition is true for
// one of its bound Actions, it contributes Effect to the combiner
// (spec.md §3, §4.6).
type Policy struct {
	ID          model.ID
	Name        string
	Description string
	Effect      model.Effect
	Priority    int
	IsActive    bool
	Conditions  []Condition
	ActionCodes []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	IsDeleted   bool
}

// Live reports whether the policy currently contributes to
// evaluation: active, not soft-deleted.
func (p Policy) Live() bool {
	return p.IsActive && !p.IsDeleted
}

// ConditionSpecs projects the policy's conditions, sorted by Order, for
// the Policy Evaluator (C5).
func (p Policy) ConditionSpecs() []condition.Spec {
	ordered := make([]Condition, len(p.Conditions))
	copy(ordered, p.Conditions)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	specs := make([]condition.Spec, len(ordered))
	for i, c := range ordered {
		specs[i] = c.Spec()
	}
	return specs
}

// GovernsAction reports whether code is one of the actions this policy
// is bound to.
func (p Policy) GovernsAction(code string) bool {
	for _, c := range p.ActionCodes {
		if c == code {
			return true
		}
	}
	return false
}

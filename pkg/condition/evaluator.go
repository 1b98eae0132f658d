// Package condition implements the Condition Evaluator (C4): a pure
// function, no I/O and no clock reads, that decides whether a single
// PolicyCondition holds against the three resolved attribute maps
// (spec.md §4.4).
package condition

import (
	"fmt"

	"github.com/abacsys/decision-service/pkg/abacerr"
	"github.com/abacsys/decision-service/pkg/attrtype"
	"github.com/abacsys/decision-service/pkg/model"
)

// Attribute is the resolved value for one attribute, carrying both
// its raw string (as stored) and its declared type so Evaluate can
// parse both operands consistently.
type Attribute struct {
	Type attrtype.Type
	Raw  string
}

// Maps bundles the three resolved attribute maps one Condition reads
// from, keyed by attribute key.
type Maps struct {
	Subject     map[string]Attribute
	Resource    map[string]Attribute
	Environment map[string]Attribute
}

func (m Maps) lookup(category model.AttributeCategory) (map[string]Attribute, bool) {
	switch category {
	case model.Subject:
		return m.Subject, true
	case model.Resource:
		return m.Resource, true
	case model.Environment:
		return m.Environment, true
	default:
		return nil, false
	}
}

// Spec is the four-field shape a PolicyCondition is persisted as
// (spec.md §6.2). It is intentionally not an expression string: the
// grammar is closed and cannot express anything beyond one typed
// comparison.
type Spec struct {
	Category      model.AttributeCategory
	Key           string
	Operator      model.Operator
	ExpectedValue string
}

// Evaluate decides one condition. A returned error is always an
// *abacerr.Error of kind AttributeMissing, AttributeTypeError, or
// ConditionMalformed — the policy evaluator (C5) turns that into
// Indeterminate.
func Evaluate(spec Spec, maps Maps) (bool, error) {
	if !spec.Category.Valid() {
		return false, abacerr.New(abacerr.ConditionMalformed, fmt.Sprintf("unknown attribute category %q", spec.Category))
	}
	if !spec.Operator.Valid() {
		return false, abacerr.New(abacerr.ConditionMalformed, fmt.Sprintf("unknown operator %q", spec.Operator))
	}

	bag, _ := maps.lookup(spec.Category)
	attr, ok := bag[spec.Key]
	if !ok {
		return false, abacerr.New(abacerr.AttributeMissing, fmt.Sprintf("%s attribute %q not resolved", spec.Category, spec.Key))
	}

	left, err := attrtype.Parse(attr.Type, attr.Raw)
	if err != nil {
		return false, abacerr.Wrap(abacerr.AttributeTypeError, fmt.Sprintf("left operand %q", spec.Key), err)
	}

	switch spec.Operator {
	case model.Equals, model.NotEquals:
		right, err := attrtype.Parse(attr.Type, spec.ExpectedValue)
		if err != nil {
			return false, abacerr.Wrap(abacerr.AttributeTypeError, fmt.Sprintf("right operand for %q", spec.Key), err)
		}
		eq, err := attrtype.Equal(left, right)
		if err != nil {
			return false, abacerr.Wrap(abacerr.AttributeTypeError, "equality", err)
		}
		if spec.Operator == model.NotEquals {
			return !eq, nil
		}
		return eq, nil

	case model.GreaterThan, model.LessThan, model.GreaterThanOrEqual, model.LessThanOrEqual:
		if attr.Type == attrtype.Boolean {
			return false, abacerr.New(abacerr.AttributeTypeError, "ordering is not defined for Boolean")
		}
		right, err := attrtype.Parse(attr.Type, spec.ExpectedValue)
		if err != nil {
			return false, abacerr.Wrap(abacerr.AttributeTypeError, fmt.Sprintf("right operand for %q", spec.Key), err)
		}
		cmp, err := attrtype.Compare(left, right)
		if err != nil {
			return false, abacerr.Wrap(abacerr.AttributeTypeError, "ordering", err)
		}
		switch spec.Operator {
		case model.GreaterThan:
			return cmp > 0, nil
		case model.LessThan:
			return cmp < 0, nil
		case model.GreaterThanOrEqual:
			return cmp >= 0, nil
		default: // LessThanOrEqual
			return cmp <= 0, nil
		}

	case model.Contains:
		if attr.Type != attrtype.String {
			return false, abacerr.New(abacerr.AttributeTypeError, "Contains only applies to String")
		}
		right, err := attrtype.Parse(attr.Type, spec.ExpectedValue)
		if err != nil {
			return false, abacerr.Wrap(abacerr.AttributeTypeError, fmt.Sprintf("right operand for %q", spec.Key), err)
		}
		ok, err := attrtype.Contains(left, right)
		if err != nil {
			return false, abacerr.Wrap(abacerr.AttributeTypeError, "contains", err)
		}
		return ok, nil

	case model.In, model.NotIn:
		list, err := attrtype.ParseList(attr.Type, spec.ExpectedValue)
		if err != nil {
			return false, abacerr.Wrap(abacerr.AttributeTypeError, fmt.Sprintf("right operand list for %q", spec.Key), err)
		}
		found := false
		for _, v := range list {
			eq, err := attrtype.Equal(left, v)
			if err != nil {
				return false, abacerr.Wrap(abacerr.AttributeTypeError, "in-list comparison", err)
			}
			if eq {
				found = true
				break
			}
		}
		if spec.Operator == model.NotIn {
			return !found, nil
		}
		return found, nil

	default:
		return false, abacerr.New(abacerr.ConditionMalformed, fmt.Sprintf("unhandled operator %q", spec.Operator))
	}
}

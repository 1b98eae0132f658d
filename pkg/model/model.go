// Package model holds the small closed-set enums shared across every
// layer of the decision engine: attribute categories, condition
// operators, policy effects, and per-policy/final decision outcomes.
// Keeping these in one leaf package avoids import cycles between
// pkg/attribute, pkg/policy, pkg/condition, and pkg/pdp.
package model

import (
	"regexp"

	"github.com/google/uuid"
)

// KeyPattern is the shared snake_case identifier shape spec.md requires
// for AttributeSchema.key and Action.code.
var KeyPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ID is the 128-bit opaque identifier used for every entity (spec.md §3).
type ID = uuid.UUID

// AttributeCategory is the source of an attribute referenced by a
// PolicyCondition.
type AttributeCategory string

const (
	Subject     AttributeCategory = "Subject"
	Resource    AttributeCategory = "Resource"
	Environment AttributeCategory = "Environment"
)

func (c AttributeCategory) Valid() bool {
	switch c {
	case Subject, Resource, Environment:
		return true
	}
	return false
}

// Operator is one of the nine comparison operators spec.md §4.4 defines.
type Operator string

const (
	Equals             Operator = "Equals"
	NotEquals          Operator = "NotEquals"
	GreaterThan        Operator = "GreaterThan"
	LessThan           Operator = "LessThan"
	GreaterThanOrEqual Operator = "GreaterThanOrEqual"
	LessThanOrEqual    Operator = "LessThanOrEqual"
	Contains           Operator = "Contains"
	In                 Operator = "In"
	NotIn              Operator = "NotIn"
)

func (o Operator) Valid() bool {
	switch o {
	case Equals, NotEquals, GreaterThan, LessThan, GreaterThanOrEqual, LessThanOrEqual, Contains, In, NotIn:
		return true
	}
	return false
}

// Effect is the verdict a Policy produces when it applies.
type Effect string

const (
	Permit Effect = "Permit"
	Deny   Effect = "Deny"
)

func (e Effect) Valid() bool {
	return e == Permit || e == Deny
}

// PolicyOutcome is the result of evaluating a single policy (C5,
// spec.md §4.5).
type PolicyOutcome string

const (
	OutcomeApplies       PolicyOutcome = "Applies"
	OutcomeNotApplicable PolicyOutcome = "NotApplicable"
	OutcomeIndeterminate PolicyOutcome = "Indeterminate"
)

// Result is the final decision a checkAccess call produces (C6/C9,
// also the AccessLog.result column, spec.md §3 and §4.6).
type Result string

const (
	ResultPermit        Result = "Permit"
	ResultDeny          Result = "Deny"
	ResultError         Result = "Error"
	ResultNotApplicable Result = "NotApplicable"
)

// Package attribute implements the Attribute Store (C1): persistence of
// attribute schemas and the typed values bound to subjects and
// resources, and point lookups by (owner, attribute).
package attribute

import (
	"time"

	"github.com/abacsys/decision-service/pkg/attrtype"
	"github.com/abacsys/decision-service/pkg/model"
)

// Schema is an AttributeSchema row (spec.md §3).
type Schema struct {
	ID          model.ID
	Name        string
	Key         string
	Type        attrtype.Type
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	IsDeleted   bool
}

// SubjectAttribute is a typed, optionally time-bounded value assigned to
// a subject.
type SubjectAttribute struct {
	ID          model.ID
	SubjectID   model.ID
	AttributeID model.ID
	Value       string
	ValidFrom   *time.Time
	ValidTo     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	IsDeleted   bool
}

// ActiveAt reports whether the assignment is in force at instant at,
// per spec.md §3's validity window.
func (a SubjectAttribute) ActiveAt(at time.Time) bool {
	if a.IsDeleted {
		return false
	}
	if a.ValidFrom != nil && at.Before(*a.ValidFrom) {
		return false
	}
	if a.ValidTo != nil && at.After(*a.ValidTo) {
		return false
	}
	return true
}

// ResourceAttribute is a typed value assigned to a resource; it has no
// temporal validity window.
type ResourceAttribute struct {
	ID          model.ID
	ResourceID  model.ID
	AttributeID model.ID
	Value       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	IsDeleted   bool
}

package attribute

import (
	"context"
	"time"

	"github.com/abacsys/decision-service/pkg/model"
)

// Store is the Attribute Store (C1) per spec.md §4.1: schema lookup and
// point reads of the attribute values bound to a subject or resource.
// Implementations must return defensive copies — callers are free to
// mutate the returned maps without affecting the store.
type Store interface {
	// GetSchemaByKey resolves a condition's attribute key to its
	// declared type. Returns an *abacerr.Error of kind
	// abacerr.ConditionMalformed if no such schema exists.
	GetSchemaByKey(ctx context.Context, key string) (Schema, error)

	// GetActiveSubjectAttributes returns every SubjectAttribute bound to
	// subjectID that is active at evalTime (spec.md §3's validity
	// window), keyed by schema key.
	GetActiveSubjectAttributes(ctx context.Context, subjectID model.ID, evalTime time.Time) (map[string]SubjectAttribute, error)

	// GetResourceAttributes returns every ResourceAttribute bound to
	// resourceID, keyed by schema key.
	GetResourceAttributes(ctx context.Context, resourceID model.ID) (map[string]ResourceAttribute, error)
}

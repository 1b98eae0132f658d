package policy

import (
	"context"

	"github.com/abacsys/decision-service/pkg/model"
)

// Store is the Policy Catalogue (C2) per spec.md §4.2: lookup of the
// live policies bound to an action, ordered for deterministic
// evaluation.
type Store interface {
	// ListApplicablePolicies returns every live Policy bound to
	// actionID, ordered by (priority DESC, id ASC) per spec.md §4.2,
	// each with its Conditions populated and ordered by Condition.Order.
	// An actionID with no registered action, or with no policies bound
	// to it, is not an error: it returns an empty slice so the caller
	// falls through to the combiner's "no applicable policy" Deny
	// rather than a store failure.
	ListApplicablePolicies(ctx context.Context, actionID model.ID) ([]Policy, error)

	// GetPolicy returns a single policy by ID, including its
	// conditions and bound action codes.
	GetPolicy(ctx context.Context, id model.ID) (Policy, error)

	// GetActionByCode resolves an action code to its registered row.
	// Used by bundle import/export tooling, which addresses actions by
	// their stable code rather than their generated id.
	GetActionByCode(ctx context.Context, code string) (Action, error)
}

// Package resource implements the thin existence-check surface the
// facade needs over the `resources` relation (spec.md §6.4): the PDE
// does not administer resources, but it must know whether one exists
// and is live before it can evaluate a request against it (spec.md §3
// invariant, §4.9 step 2, §7 ResourceNotFound).
package resource

import (
	"context"

	"github.com/abacsys/decision-service/pkg/model"
)

// Store answers the one question the facade needs: is this resource
// id live? Everything else about a Resource is opaque to the PDE and
// owned by the surrounding admin surface (spec.md §1).
type Store interface {
	// Exists reports whether id refers to a resource that is present
	// and not soft-deleted.
	Exists(ctx context.Context, id model.ID) (bool, error)
}

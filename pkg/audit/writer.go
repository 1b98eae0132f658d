package audit

import (
	"context"

	"github.com/abacsys/decision-service/pkg/model"
)

// Writer is the Audit Writer (C7): appends exactly one AccessLog per
// decision, synchronously, before the caller sees a result. A failed
// write must surface as abacerr.AuditWriteError and fail the whole
// evaluation (spec.md §4.7) — there is no buffered or async path.
type Writer interface {
	Append(ctx context.Context, log AccessLog) (model.ID, error)
}

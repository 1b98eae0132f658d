package audit

import "context"

// Reader is the Audit Reader (C8) per spec.md §4.8: paged/filterable
// queries and aggregate statistics over AccessLog rows. Every
// implementation excludes soft-deleted rows, per spec.md's uniformity
// note (access logs are never soft-deleted in practice, but the filter
// still applies for consistency with every other store in this
// service).
type Reader interface {
	// Query returns one page of AccessLog rows matching filter, sorted
	// per sort (defaulting to createdAt descending when Field is
	// empty), plus the total row count matching filter ignoring paging.
	Query(ctx context.Context, filter Filter, sort Sort, page Page) ([]AccessLog, int64, error)

	// Statistics summarizes decision outcomes in [from, to] (both
	// bounds inclusive).
	Statistics(ctx context.Context, r TimeRange) (Statistics, error)

	// TopResources returns the n resources with the most AccessLog
	// rows in r, most-requested first. n is clamped to [1, 100].
	TopResources(ctx context.Context, n int, r TimeRange) ([]ResourceCount, error)

	// TopSubjects returns the n subjects with the most AccessLog rows
	// in r, most-active first. n is clamped to [1, 100].
	TopSubjects(ctx context.Context, n int, r TimeRange) ([]SubjectCount, error)

	// DeniesByPolicy groups Deny-result rows by deciding policy in r,
	// most denials first. Rows with a null policyId are grouped
	// together under the zero model.ID.
	DeniesByPolicy(ctx context.Context, r TimeRange) ([]PolicyDenyCount, error)
}

// clampN enforces the [1, 100] bound spec.md §4.8 places on top-N
// query sizes.
func clampN(n int) int {
	switch {
	case n < 1:
		return 1
	case n > 100:
		return 100
	default:
		return n
	}
}

// Package audit implements the Audit Writer (C7) and Audit Reader (C8):
// an append-only record of every access decision, written synchronously
// before the decision is returned to the caller, and a read-side query
// surface for reporting and statistics (spec.md §4.7, §4.8).
package audit

import (
	"time"

	"github.com/abacsys/decision-service/pkg/model"
)

// PolicyEvaluation is one entry of the context blob's evaluated-policy
// list (spec.md §4.7): the policy considered and the outcome it
// produced, independent of whether it ended up deciding the request.
type PolicyEvaluation struct {
	PolicyID model.ID          `json:"policyId"`
	Outcome  model.PolicyOutcome `json:"outcome"`
}

// Context is the JSON shape serialized into AccessLog.ContextJSON: the
// resolved environment attribute bag plus the evaluated-policy list,
// capped at 64 entries per spec.md §4.7.
type Context struct {
	Environment      map[string]string  `json:"environment"`
	EvaluatedPolicies []PolicyEvaluation `json:"evaluatedPolicies"`
	Truncated        bool               `json:"truncated,omitempty"`
}

// MaxEvaluatedPolicies is the cap spec.md §4.7 places on the
// evaluated-policy list inside one audit record's context blob.
const MaxEvaluatedPolicies = 64

// NewContext builds a Context from the full set of evaluated policies,
// truncating to MaxEvaluatedPolicies and setting Truncated when it had
// to drop entries.
func NewContext(env map[string]string, evaluated []PolicyEvaluation) Context {
	c := Context{Environment: env}
	if len(evaluated) > MaxEvaluatedPolicies {
		c.EvaluatedPolicies = evaluated[:MaxEvaluatedPolicies]
		c.Truncated = true
	} else {
		c.EvaluatedPolicies = evaluated
	}
	return c
}

// AccessLog is one immutable record of a checkAccess decision (spec.md
// §3). Never mutated after insert; a Policy deletion nulls PolicyID
// rather than cascading, so history survives catalogue churn.
type AccessLog struct {
	ID          model.ID
	CreatedAt   time.Time
	SubjectID   model.ID
	ResourceID  *model.ID
	ActionID    *model.ID
	PolicyID    *model.ID
	Result      model.Result
	Reason      string
	ContextJSON string
	IPAddress   string
	IsDeleted   bool
}

// Filter narrows a Query to a subset of AccessLog rows (spec.md §4.8).
type Filter struct {
	SubjectID  *model.ID
	ResourceID *model.ID
	ActionID   *model.ID
	Result     *model.Result
	From       *time.Time
	To         *time.Time
}

// SortField is one of the closed set of columns §4.8 allows sorting on.
type SortField string

const (
	SortCreatedAt  SortField = "createdAt"
	SortResult     SortField = "result"
	SortSubjectID  SortField = "subjectId"
	SortResourceID SortField = "resourceId"
	SortActionID   SortField = "actionId"
)

func (f SortField) Valid() bool {
	switch f {
	case SortCreatedAt, SortResult, SortSubjectID, SortResourceID, SortActionID:
		return true
	}
	return false
}

// SortDirection is ascending or descending.
type SortDirection string

const (
	Ascending  SortDirection = "ASC"
	Descending SortDirection = "DESC"
)

// Sort pairs a field with a direction; the zero value sorts by
// createdAt descending (most recent first).
type Sort struct {
	Field     SortField
	Direction SortDirection
}

// DefaultPageSize and MaxPageSize bound Page.Size per spec.md §4.8.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
	MinPageSize     = 1
)

// Page requests one page of results, 1-indexed.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps Size into [MinPageSize, MaxPageSize] and Number to
// at least 1, applying DefaultPageSize when Size is unset.
func (p Page) Normalize() Page {
	out := p
	if out.Number < 1 {
		out.Number = 1
	}
	switch {
	case out.Size == 0:
		out.Size = DefaultPageSize
	case out.Size < MinPageSize:
		out.Size = MinPageSize
	case out.Size > MaxPageSize:
		out.Size = MaxPageSize
	}
	return out
}

// Offset returns the zero-based row offset for this page.
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Number - 1) * n.Size
}

// Statistics is the aggregate result of audit.Reader.Statistics.
type Statistics struct {
	Total      int64
	Permits    int64
	Denies     int64
	Errors     int64
	PermitRate float64
	DenyRate   float64
	ErrorRate  float64
}

// ResourceCount and SubjectCount back topResources/topSubjects.
type ResourceCount struct {
	ResourceID model.ID
	Count      int64
}

type SubjectCount struct {
	SubjectID model.ID
	Count     int64
}

// PolicyDenyCount backs deniesByPolicy.
type PolicyDenyCount struct {
	PolicyID model.ID
	Count    int64
}

// TimeRange bounds a statistics/top-N query; a nil field is unbounded.
type TimeRange struct {
	From *time.Time
	To   *time.Time
}

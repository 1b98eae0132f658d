//go:build property
// +build property

package pdp

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/abacsys/decision-service/pkg/attribute"
	"github.com/abacsys/decision-service/pkg/attrtype"
	"github.com/abacsys/decision-service/pkg/model"
	"github.com/abacsys/decision-service/pkg/policy"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestCheckAccess_DenySupremacyProperty verifies spec.md §8's universal
// property 2: the Deny policy's threshold is the generator's lower
// bound, so it applies to every generated clearance level, while the
// higher-priority Permit policy applies only to non-negative ones; in
// both cases the facade's own deny-overrides combination yields Deny,
// decided by the Deny policy.
func TestCheckAccess_DenySupremacyProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("deny policy anywhere in the catalogue forces Deny", prop.ForAll(
		func(clearance int) bool {
			actionCode := "document.read"
			actionID := model.ID(uuid.New())
			subjectID := model.ID(uuid.New())
			resourceID := model.ID(uuid.New())
			denyID := model.ID(uuid.New())

			policies := []policy.Policy{
				{
					ID: model.ID(uuid.New()), Effect: model.Permit, Priority: 20, IsActive: true,
					Conditions: []policy.Condition{{
						Category: model.Subject, Key: "clearanceLevel",
						Operator: model.GreaterThanOrEqual, ExpectedValue: "0",
					}},
				},
				{
					ID: denyID, Effect: model.Deny, Priority: 10, IsActive: true,
					Conditions: []policy.Condition{{
						Category: model.Subject, Key: "clearanceLevel",
						Operator: model.GreaterThanOrEqual, ExpectedValue: "-1000",
					}},
				},
			}

			facade := &Facade{
				Policies: &fakePolicyStore{
					actions:  map[model.ID]policy.Action{actionID: {ID: actionID, Code: actionCode}},
					policies: map[model.ID][]policy.Policy{actionID: policies},
				},
				Attributes: &fakeAttributeStore{
					schemas: map[string]attribute.Schema{"clearanceLevel": {Key: "clearanceLevel", Type: attrtype.Number}},
					subjectAttrs: map[string]attribute.SubjectAttribute{
						"clearanceLevel": {SubjectID: subjectID, Value: strconv.Itoa(clearance)},
					},
					resourceAttrs: map[string]attribute.ResourceAttribute{},
				},
				Resources: &fakeResourceStore{exists: true},
				Audit:     &fakeAuditWriter{},
				Now:       func() time.Time { return time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC) },
			}

			decision, err := facade.CheckAccess(context.Background(), CheckAccessRequest{
				SubjectID: subjectID, ResourceID: resourceID, ActionID: actionID,
			})
			if err != nil {
				return false
			}
			return decision.Result == model.ResultDeny && decision.DecidingPolicyID != nil && *decision.DecidingPolicyID == denyID
		},
		gen.IntRange(-1000, 1000),
	))

	properties.TestingRun(t)
}

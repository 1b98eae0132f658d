// Package pdp implements the Access Control Facade (C9): the single
// public operation of the decision engine, checkAccess, orchestrating
// every other component per spec.md §4.9 and its concurrency model
// (§5).
package pdp

import (
	"context"
	"sync"
	"time"

	"github.com/abacsys/decision-service/pkg/abacerr"
	"github.com/abacsys/decision-service/pkg/attribute"
	"github.com/abacsys/decision-service/pkg/attrtype"
	"github.com/abacsys/decision-service/pkg/audit"
	"github.com/abacsys/decision-service/pkg/canonicalize"
	"github.com/abacsys/decision-service/pkg/combiner"
	"github.com/abacsys/decision-service/pkg/condition"
	"github.com/abacsys/decision-service/pkg/environment"
	"github.com/abacsys/decision-service/pkg/model"
	"github.com/abacsys/decision-service/pkg/observability"
	"github.com/abacsys/decision-service/pkg/policy"
	"github.com/abacsys/decision-service/pkg/policyeval"
	"github.com/abacsys/decision-service/pkg/resource"
)

// reservedEnvTypes declares the primitive type of every reserved
// environment key (spec.md §6.3). Any other key a caller supplies
// through envOverrides is treated as String: §6.2 says an Environment
// condition's attributeKey is "a fixed known key", so the facade never
// consults a schema for it.
var reservedEnvTypes = map[string]attrtype.Type{
	environment.KeyIPAddress:       attrtype.String,
	environment.KeyRequestMethod:   attrtype.String,
	environment.KeyRequestPath:     attrtype.String,
	environment.KeyUserAgent:       attrtype.String,
	environment.KeyDayOfWeek:       attrtype.String,
	environment.KeyHourOfDay:       attrtype.Number,
	environment.KeyIsBusinessHours: attrtype.Boolean,
}

// CheckAccessRequest is the input to the facade's public operation
// (spec.md §6.1).
type CheckAccessRequest struct {
	SubjectID    model.ID
	ResourceID   model.ID
	ActionID     model.ID
	Environment  environment.Request
	EnvOverrides map[string]string
}

// Decision is the facade's public output (spec.md §6.1).
type Decision struct {
	Result               model.Result
	Reason               string
	DecidingPolicyID     *model.ID
	EvaluatedPolicyCount int
}

// Facade is the Access Control Facade (C9). Its store dependencies may
// be cache-wrapped (pkg/cache) or plain DAOs; the facade itself is
// stateless between calls (spec.md §5).
type Facade struct {
	Policies      policy.Store
	Attributes    attribute.Store
	Resources     resource.Store
	Audit         audit.Writer
	Observability *observability.Provider

	// EvaluationTimeout bounds one CheckAccess call end to end;
	// defaults to 5s (spec.md §5) when zero.
	EvaluationTimeout time.Duration
	// AuditTimeout bounds the best-effort audit write attempted after
	// an EvaluationTimeout fires; defaults to 1s when zero.
	AuditTimeout time.Duration
	// AuditContextCap bounds the evaluated-policy list recorded in one
	// audit record's context blob; defaults to audit.MaxEvaluatedPolicies
	// when zero.
	AuditContextCap int

	// Now returns the evaluation instant T; defaults to time.Now.
	// Overridable for deterministic tests.
	Now func() time.Time
}

func (f *Facade) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *Facade) evaluationTimeout() time.Duration {
	if f.EvaluationTimeout <= 0 {
		return 5 * time.Second
	}
	return f.EvaluationTimeout
}

func (f *Facade) auditTimeout() time.Duration {
	if f.AuditTimeout <= 0 {
		return 1 * time.Second
	}
	return f.AuditTimeout
}

func (f *Facade) auditContextCap() int {
	if f.AuditContextCap <= 0 {
		return audit.MaxEvaluatedPolicies
	}
	return f.AuditContextCap
}

// evalOutcome is the joined, in-memory result of one evaluation pass,
// carried from evaluate to the audit write regardless of whether the
// call ultimately succeeds or short-circuits.
type evalOutcome struct {
	decision  combiner.Decision
	env       map[string]string
	evaluated []audit.PolicyEvaluation
}

// CheckAccess is the decision engine's single public operation
// (spec.md §4.9, §6.1).
func (f *Facade) CheckAccess(ctx context.Context, req CheckAccessRequest) (decision Decision, err error) {
	callCtx, cancel := context.WithTimeout(ctx, f.evaluationTimeout())
	defer cancel()

	if f.Observability != nil {
		var finish func(result, decidingPolicyID string, evaluatedCount int, err error)
		callCtx, finish = f.Observability.TrackDecision(callCtx, req.ActionID.String())
		defer func() {
			var policyID string
			if decision.DecidingPolicyID != nil {
				policyID = decision.DecidingPolicyID.String()
			}
			finish(string(decision.Result), policyID, decision.EvaluatedPolicyCount, err)
		}()
	}

	outcome, resourceMissing, storeErr := f.evaluate(callCtx, req)

	switch {
	case callCtx.Err() != nil:
		decision, err = f.recordTimeout(req)
		return
	case resourceMissing:
		decision, err = f.recordShortCircuit(callCtx, req, outcome, "Resource not found", abacerr.ResourceNotFound)
		return
	case storeErr != nil:
		decision, err = f.recordShortCircuit(callCtx, req, outcome, "Store unavailable", abacerr.StoreUnavailable)
		return
	}

	if _, appendErr := f.Audit.Append(callCtx, f.buildAccessLog(req, outcome)); appendErr != nil {
		err = abacerr.Wrap(abacerr.AuditWriteError, "write access log", appendErr)
		return
	}

	decision = Decision{
		Result:               outcome.decision.Result,
		Reason:               outcome.decision.Reason,
		DecidingPolicyID:     outcome.decision.DecidingPolicyID,
		EvaluatedPolicyCount: outcome.decision.EvaluatedPolicyCount,
	}
	return
}

// fanOut is the joined output of the three concurrent reads step 2 of
// spec.md §4.9 allows (the resource's existence, the applicable
// policies, and the subject plus resource attributes).
type fanOut struct {
	resourceExists bool
	policies       []policy.Policy
	subjectAttrs   map[string]attribute.SubjectAttribute
	resourceAttrs  map[string]attribute.ResourceAttribute
	err            error
}

// evaluate runs steps 1-5 of spec.md §4.9: resolves T, fans out the
// three initial reads, builds the environment map, evaluates every
// applicable policy, and combines the result. It never writes audit;
// CheckAccess decides how to record the outcome based on what evaluate
// returns.
func (f *Facade) evaluate(ctx context.Context, req CheckAccessRequest) (evalOutcome, bool, error) {
	t := f.now()

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		fo fanOut
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		exists, err := f.Resources.Exists(ctx, req.ResourceID)
		mu.Lock()
		fo.resourceExists = exists
		if err != nil {
			fo.err = err
		}
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		policies, err := f.Policies.ListApplicablePolicies(ctx, req.ActionID)
		mu.Lock()
		fo.policies = policies
		if err != nil {
			fo.err = err
		}
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		subjectAttrs, sErr := f.Attributes.GetActiveSubjectAttributes(ctx, req.SubjectID, t)
		resourceAttrs, rErr := f.Attributes.GetResourceAttributes(ctx, req.ResourceID)
		mu.Lock()
		fo.subjectAttrs = subjectAttrs
		fo.resourceAttrs = resourceAttrs
		if sErr != nil {
			fo.err = sErr
		} else if rErr != nil {
			fo.err = rErr
		}
		mu.Unlock()
	}()
	wg.Wait()

	if ctx.Err() != nil {
		return evalOutcome{}, false, ctx.Err()
	}
	if !fo.resourceExists {
		return evalOutcome{}, true, nil
	}
	if fo.err != nil {
		return evalOutcome{}, false, fo.err
	}

	env := environment.Build(req.Environment, t, req.EnvOverrides)

	subjectMap, err := f.typedMap(ctx, subjectValues(fo.subjectAttrs))
	if err != nil {
		return evalOutcome{}, false, err
	}
	resourceMap, err := f.typedMap(ctx, resourceValues(fo.resourceAttrs))
	if err != nil {
		return evalOutcome{}, false, err
	}
	maps := condition.Maps{
		Subject:     subjectMap,
		Resource:    resourceMap,
		Environment: environmentAttributes(env),
	}

	evaluated := make([]combiner.Evaluated, 0, len(fo.policies))
	auditEntries := make([]audit.PolicyEvaluation, 0, len(fo.policies))
	for _, p := range fo.policies {
		outcome := policyeval.Evaluate(p.ConditionSpecs(), p.Effect, maps)
		evaluated = append(evaluated, combiner.Evaluated{PolicyID: p.ID, Outcome: outcome})
		auditEntries = append(auditEntries, audit.PolicyEvaluation{PolicyID: p.ID, Outcome: outcome.Result})
	}

	decision := combiner.Combine(evaluated)
	return evalOutcome{decision: decision, env: env, evaluated: auditEntries}, false, nil
}

func subjectValues(m map[string]attribute.SubjectAttribute) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v.Value
	}
	return out
}

func resourceValues(m map[string]attribute.ResourceAttribute) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v.Value
	}
	return out
}

// typedMap resolves each raw string value's declared schema type and
// produces the condition.Attribute map Evaluate needs. A key whose
// schema cannot be resolved (deleted or never registered) is simply
// omitted: any condition referencing it naturally fails with
// AttributeMissing rather than the facade inventing a new error kind.
func (f *Facade) typedMap(ctx context.Context, values map[string]string) (map[string]condition.Attribute, error) {
	out := make(map[string]condition.Attribute, len(values))
	for key, raw := range values {
		schema, err := f.Attributes.GetSchemaByKey(ctx, key)
		if err != nil {
			if abacerr.Is(err, abacerr.StoreUnavailable) {
				return nil, err
			}
			continue
		}
		out[key] = condition.Attribute{Type: schema.Type, Raw: raw}
	}
	return out, nil
}

func environmentAttributes(env map[string]string) map[string]condition.Attribute {
	out := make(map[string]condition.Attribute, len(env))
	for key, raw := range env {
		t, ok := reservedEnvTypes[key]
		if !ok {
			t = attrtype.String
		}
		out[key] = condition.Attribute{Type: t, Raw: raw}
	}
	return out
}

// recordShortCircuit writes a best-effort audit record for a
// non-timeout fatal path (resource not found, store unavailable) and
// returns the matching facade error (spec.md §4.9 step 2, §7).
func (f *Facade) recordShortCircuit(ctx context.Context, req CheckAccessRequest, outcome evalOutcome, reason string, kind abacerr.Kind) (Decision, error) {
	log := audit.AccessLog{
		SubjectID:  req.SubjectID,
		ResourceID: &req.ResourceID,
		ActionID:   &req.ActionID,
		Result:     model.ResultError,
		Reason:     reason,
	}
	if outcome.env != nil {
		log.IPAddress = outcome.env[environment.KeyIPAddress]
	}
	_, _ = f.Audit.Append(ctx, log)
	return Decision{}, abacerr.New(kind, reason)
}

// recordTimeout attempts a best-effort audit write on an independent,
// short deadline when the evaluation timeout elapses (spec.md §5).
func (f *Facade) recordTimeout(req CheckAccessRequest) (Decision, error) {
	bgCtx, cancel := context.WithTimeout(context.Background(), f.auditTimeout())
	defer cancel()
	log := audit.AccessLog{
		SubjectID:  req.SubjectID,
		ResourceID: &req.ResourceID,
		ActionID:   &req.ActionID,
		Result:     model.ResultError,
		Reason:     "Evaluation timeout",
	}
	_, _ = f.Audit.Append(bgCtx, log)
	return Decision{}, abacerr.New(abacerr.EvaluationTimeout, "Evaluation timeout")
}

// buildAccessLog projects a completed evaluation into the AccessLog
// row C7 persists (spec.md §4.7).
func (f *Facade) buildAccessLog(req CheckAccessRequest, outcome evalOutcome) audit.AccessLog {
	evaluated := outcome.evaluated
	capN := f.auditContextCap()
	truncated := false
	if len(evaluated) > capN {
		evaluated = evaluated[:capN]
		truncated = true
	}
	ctxBlob := audit.Context{Environment: outcome.env, EvaluatedPolicies: evaluated, Truncated: truncated}
	contextJSON, err := canonicalize.JCSString(ctxBlob)
	if err != nil {
		contextJSON = "{}"
	}

	return audit.AccessLog{
		SubjectID:   req.SubjectID,
		ResourceID:  &req.ResourceID,
		ActionID:    &req.ActionID,
		PolicyID:    outcome.decision.DecidingPolicyID,
		Result:      outcome.decision.Result,
		Reason:      outcome.decision.Reason,
		ContextJSON: contextJSON,
		IPAddress:   outcome.env[environment.KeyIPAddress],
	}
}

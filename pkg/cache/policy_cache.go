package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/abacsys/decision-service/pkg/model"
	"github.com/abacsys/decision-service/pkg/policy"
)

// CachedPolicyStore wraps a policy.Store with a short-TTL Cache in
// front of ListApplicablePolicies, the facade's hottest read (spec.md
// §5: caches are optional and must honour a TTL ≤ 60s or invalidate on
// write). GetPolicy and GetActionByCode pass straight through: they
// are not on the per-decision hot path.
type CachedPolicyStore struct {
	inner policy.Store
	cache Cache
	ttl   time.Duration
}

// NewCachedPolicyStore wraps inner with cache, clamping ttl to
// cache.MaxTTL.
func NewCachedPolicyStore(inner policy.Store, c Cache, ttl time.Duration) *CachedPolicyStore {
	return &CachedPolicyStore{inner: inner, cache: c, ttl: clamp(ttl)}
}

func policyCacheKey(actionID model.ID) string {
	return "policy:applicable:" + actionID.String()
}

func (s *CachedPolicyStore) ListApplicablePolicies(ctx context.Context, actionID model.ID) ([]policy.Policy, error) {
	key := policyCacheKey(actionID)
	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var cached []policy.Policy
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, nil
		}
	}

	policies, err := s.inner.ListApplicablePolicies(ctx, actionID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(policies); err == nil {
		_ = s.cache.Set(ctx, key, string(raw), s.ttl)
	}
	return policies, nil
}

func (s *CachedPolicyStore) GetPolicy(ctx context.Context, id model.ID) (policy.Policy, error) {
	return s.inner.GetPolicy(ctx, id)
}

func (s *CachedPolicyStore) GetActionByCode(ctx context.Context, code string) (policy.Action, error) {
	return s.inner.GetActionByCode(ctx, code)
}

// InvalidateAction drops the cached policy list for actionID. Admin
// operations that mutate a policy's conditions or bindings must call
// this so evaluators don't keep serving a stale catalogue past the
// TTL window.
func (s *CachedPolicyStore) InvalidateAction(ctx context.Context, actionID model.ID) error {
	return s.cache.Invalidate(ctx, policyCacheKey(actionID))
}

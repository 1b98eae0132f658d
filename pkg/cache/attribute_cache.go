package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/abacsys/decision-service/pkg/attribute"
	"github.com/abacsys/decision-service/pkg/model"
)

// CachedAttributeStore wraps an attribute.Store with a short-TTL Cache
// in front of schema and resource-attribute reads (spec.md §5).
// Subject attributes are not cached here: they carry a validity window
// keyed on the evaluation instant T, and caching them would require
// bucketing T coarsely enough to defeat the point of a short TTL, so
// every call reads through to inner.
type CachedAttributeStore struct {
	inner attribute.Store
	cache Cache
	ttl   time.Duration
}

// NewCachedAttributeStore wraps inner with cache, clamping ttl to
// cache.MaxTTL.
func NewCachedAttributeStore(inner attribute.Store, c Cache, ttl time.Duration) *CachedAttributeStore {
	return &CachedAttributeStore{inner: inner, cache: c, ttl: clamp(ttl)}
}

func schemaCacheKey(key string) string {
	return "attr:schema:" + key
}

func resourceAttrsCacheKey(resourceID model.ID) string {
	return "attr:resource:" + resourceID.String()
}

func (s *CachedAttributeStore) GetSchemaByKey(ctx context.Context, key string) (attribute.Schema, error) {
	cacheKey := schemaCacheKey(key)
	if raw, ok, err := s.cache.Get(ctx, cacheKey); err == nil && ok {
		var cached attribute.Schema
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, nil
		}
	}

	schema, err := s.inner.GetSchemaByKey(ctx, key)
	if err != nil {
		return attribute.Schema{}, err
	}

	if raw, err := json.Marshal(schema); err == nil {
		_ = s.cache.Set(ctx, cacheKey, string(raw), s.ttl)
	}
	return schema, nil
}

func (s *CachedAttributeStore) GetActiveSubjectAttributes(ctx context.Context, subjectID model.ID, evalTime time.Time) (map[string]attribute.SubjectAttribute, error) {
	return s.inner.GetActiveSubjectAttributes(ctx, subjectID, evalTime)
}

func (s *CachedAttributeStore) GetResourceAttributes(ctx context.Context, resourceID model.ID) (map[string]attribute.ResourceAttribute, error) {
	cacheKey := resourceAttrsCacheKey(resourceID)
	if raw, ok, err := s.cache.Get(ctx, cacheKey); err == nil && ok {
		var cached map[string]attribute.ResourceAttribute
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, nil
		}
	}

	attrs, err := s.inner.GetResourceAttributes(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(attrs); err == nil {
		_ = s.cache.Set(ctx, cacheKey, string(raw), s.ttl)
	}
	return attrs, nil
}

// InvalidateResource drops the cached attribute set for resourceID.
func (s *CachedAttributeStore) InvalidateResource(ctx context.Context, resourceID model.ID) error {
	return s.cache.Invalidate(ctx, resourceAttrsCacheKey(resourceID))
}

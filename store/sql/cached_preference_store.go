package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/innovatetogether/go-innovate/core"
)

const preferenceCacheKeyPrefix = "go-innovate::preference::v1"

type cachedPreference struct {
	Value   string
	Present bool
}

// CachedPreferenceStore is a read-through cache over a PreferenceStore.
// Absent keys are cached too; Set and Clear invalidate the entry.
type CachedPreferenceStore struct {
	base  core.PreferenceStore
	cache repositorycache.CacheService
}

func NewCachedPreferenceStore(
	base core.PreferenceStore,
	cacheService repositorycache.CacheService,
) (*CachedPreferenceStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base preference store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: preference cache service is required")
	}
	return &CachedPreferenceStore{base: base, cache: cacheService}, nil
}

// PreferenceCacheKey returns go-innovate::preference::v1::<key> with the key
// URL-path escaped.
func PreferenceCacheKey(key string) (string, error) {
	normalized, err := normalizePreferenceKey(key)
	if err != nil {
		return "", err
	}
	return preferenceCacheKeyPrefix + "::" + url.PathEscape(normalized), nil
}

func (s *CachedPreferenceStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return "", false, fmt.Errorf("sqlstore: cached preference store is not configured")
	}
	cacheKey, err := PreferenceCacheKey(key)
	if err != nil {
		return "", false, err
	}
	normalized := strings.TrimSpace(key)
	entry, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (cachedPreference, error) {
		value, ok, fetchErr := s.base.Get(ctx, normalized)
		if fetchErr != nil {
			return cachedPreference{}, fetchErr
		}
		return cachedPreference{Value: value, Present: ok}, nil
	})
	if err != nil {
		return "", false, err
	}
	return entry.Value, entry.Present, nil
}

func (s *CachedPreferenceStore) Set(ctx context.Context, key string, value string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached preference store is not configured")
	}
	if err := s.base.Set(ctx, key, value); err != nil {
		return err
	}
	return s.invalidate(ctx, key)
}

func (s *CachedPreferenceStore) Clear(ctx context.Context, key string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached preference store is not configured")
	}
	if err := s.base.Clear(ctx, key); err != nil {
		return err
	}
	return s.invalidate(ctx, key)
}

func (s *CachedPreferenceStore) invalidate(ctx context.Context, key string) error {
	cacheKey, err := PreferenceCacheKey(key)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

var _ core.PreferenceStore = (*CachedPreferenceStore)(nil)

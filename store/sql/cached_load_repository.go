package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/goliatone/go-loadrelay/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const loadCacheKeyPrefix = "go-loadrelay::loads::v1"

// CachedLoadRepository memoizes successful load reads for the cache TTL.
// Failed reads are not stored so the next call reaches the base repository.
type CachedLoadRepository struct {
	base  core.LoadRepository
	cache repositorycache.CacheService
}

func NewCachedLoadRepository(
	base core.LoadRepository,
	cacheService repositorycache.CacheService,
) (*CachedLoadRepository, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base load repository is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: load cache service is required")
	}
	return &CachedLoadRepository{base: base, cache: cacheService}, nil
}

// SearchCacheKey returns the cache key for a search:
// go-loadrelay::loads::v1::search::<origin>::<destination>::<weight>::<miles>::<rate_min>::<rate_max>::<limit>
// computed over the normalized query with lowercased, path escaped places.
func SearchCacheKey(query core.LoadQuery) string {
	query = query.Normalized()
	segments := []string{
		"search",
		url.PathEscape(strings.ToLower(query.Origin)),
		url.PathEscape(strings.ToLower(query.Destination)),
		floatSegment(query.Weight),
		floatSegment(query.Miles),
		floatSegment(query.RateMin),
		floatSegment(query.RateMax),
		strconv.Itoa(query.Limit),
	}
	return strings.Join(append([]string{loadCacheKeyPrefix}, segments...), "::")
}

func RecentCacheKey(limit int) string {
	if limit <= 0 {
		limit = core.DefaultRecentLimit
	}
	return loadCacheKeyPrefix + "::recent::" + strconv.Itoa(limit)
}

func ClosestCacheKey(target float64, limit int) string {
	if limit <= 0 {
		limit = core.DefaultClosestLimit
	}
	return loadCacheKeyPrefix + "::closest::" + strconv.FormatFloat(target, 'f', -1, 64) + "::" + strconv.Itoa(limit)
}

func (r *CachedLoadRepository) Search(ctx context.Context, query core.LoadQuery) ([]core.Load, error) {
	if r == nil || r.base == nil || r.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached load repository is not configured")
	}
	query = query.Normalized()
	return r.fetch(ctx, SearchCacheKey(query), func(ctx context.Context) ([]core.Load, error) {
		return r.base.Search(ctx, query)
	})
}

func (r *CachedLoadRepository) ClosestByWeight(ctx context.Context, target float64, limit int) ([]core.Load, error) {
	if r == nil || r.base == nil || r.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached load repository is not configured")
	}
	return r.fetch(ctx, ClosestCacheKey(target, limit), func(ctx context.Context) ([]core.Load, error) {
		return r.base.ClosestByWeight(ctx, target, limit)
	})
}

func (r *CachedLoadRepository) Recent(ctx context.Context, limit int) ([]core.Load, error) {
	if r == nil || r.base == nil || r.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached load repository is not configured")
	}
	return r.fetch(ctx, RecentCacheKey(limit), func(ctx context.Context) ([]core.Load, error) {
		return r.base.Recent(ctx, limit)
	})
}

// Forget drops cached entries so the next read refetches them.
func (r *CachedLoadRepository) Forget(ctx context.Context, keys ...string) error {
	if r == nil || r.cache == nil {
		return fmt.Errorf("sqlstore: cached load repository is not configured")
	}
	for _, key := range keys {
		if err := r.cache.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (r *CachedLoadRepository) fetch(
	ctx context.Context,
	key string,
	load func(context.Context) ([]core.Load, error),
) ([]core.Load, error) {
	loads, err := repositorycache.GetOrFetch(ctx, r.cache, key, func(ctx context.Context) ([]core.Load, error) {
		fetched, fetchErr := load(ctx)
		if fetchErr != nil {
			return nil, fetchErr
		}
		return cloneLoads(fetched), nil
	})
	if err != nil {
		return nil, err
	}
	return cloneLoads(loads), nil
}

func cloneLoads(loads []core.Load) []core.Load {
	if loads == nil {
		return []core.Load{}
	}
	return slices.Clone(loads)
}

func floatSegment(value *float64) string {
	if value == nil {
		return "-"
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

var _ core.LoadRepository = (*CachedLoadRepository)(nil)

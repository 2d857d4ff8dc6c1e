package core

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strings"
)

const (
	WeightToleranceFloor = 100.0
	WeightToleranceRatio = 0.10
	MilesTolerance       = 100.0
)

// WeightTolerance returns max(100, round(weight * 0.10)).
func WeightTolerance(weight float64) float64 {
	return math.Max(WeightToleranceFloor, math.Round(weight*WeightToleranceRatio))
}

func WeightWindow(weight float64) (float64, float64) {
	tol := WeightTolerance(weight)
	return weight - tol, weight + tol
}

func MilesWindow(miles float64) (float64, float64) {
	return miles - MilesTolerance, miles + MilesTolerance
}

// placeSpace is the whitespace trimmed around place names. The SQL
// repositories trim the same set.
const placeSpace = " \t\n\v\f\r"

// FoldPlace trims and lowercases a place name for comparison.
func FoldPlace(value string) string {
	return strings.ToLower(strings.Trim(value, placeSpace))
}

// MatchesPlace reports whether value equals or starts with query, ignoring
// case and surrounding whitespace. An empty query matches everything.
func MatchesPlace(value string, query string) bool {
	query = FoldPlace(query)
	if query == "" {
		return true
	}
	return strings.HasPrefix(FoldPlace(value), query)
}

func (q LoadQuery) Matches(load Load) bool {
	q = q.Normalized()
	if !MatchesPlace(load.Origin, q.Origin) || !MatchesPlace(load.Destination, q.Destination) {
		return false
	}
	if q.Weight != nil {
		lo, hi := WeightWindow(*q.Weight)
		if load.Weight == nil || *load.Weight < lo || *load.Weight > hi {
			return false
		}
	}
	if q.Miles != nil {
		lo, hi := MilesWindow(*q.Miles)
		if load.Miles == nil || *load.Miles < lo || *load.Miles > hi {
			return false
		}
	}
	if q.RateMin != nil || q.RateMax != nil {
		if load.Rate == nil {
			return false
		}
		if q.RateMin != nil && *load.Rate < *q.RateMin {
			return false
		}
		if q.RateMax != nil && *load.Rate > *q.RateMax {
			return false
		}
	}
	return true
}

// CompareSearchOrder orders by pickup ascending then rate descending, with
// missing values last on both keys.
func CompareSearchOrder(a, b Load) int {
	switch {
	case a.PickupAt == nil && b.PickupAt != nil:
		return 1
	case a.PickupAt != nil && b.PickupAt == nil:
		return -1
	case a.PickupAt != nil && b.PickupAt != nil:
		if c := a.PickupAt.Compare(*b.PickupAt); c != 0 {
			return c
		}
	}
	switch {
	case a.Rate == nil && b.Rate != nil:
		return 1
	case a.Rate != nil && b.Rate == nil:
		return -1
	case a.Rate != nil && b.Rate != nil:
		return cmp.Compare(*b.Rate, *a.Rate)
	}
	return 0
}

// MatchLoads applies the search policy to an in-memory candidate set.
func MatchLoads(loads []Load, query LoadQuery) []Load {
	query = query.Normalized()
	out := make([]Load, 0, len(loads))
	for _, load := range loads {
		if query.Matches(load) {
			out = append(out, load)
		}
	}
	slices.SortStableFunc(out, func(a, b Load) int {
		return cmp.Or(CompareSearchOrder(a, b), cmp.Compare(a.LoadID, b.LoadID))
	})
	return truncateLoads(out, query.Limit)
}

func ClosestLoadsByWeight(loads []Load, target float64, limit int) []Load {
	if limit <= 0 {
		limit = DefaultClosestLimit
	}
	out := make([]Load, 0, len(loads))
	for _, load := range loads {
		if load.Weight != nil {
			out = append(out, load)
		}
	}
	slices.SortStableFunc(out, func(a, b Load) int {
		return cmp.Or(
			cmp.Compare(math.Abs(*a.Weight-target), math.Abs(*b.Weight-target)),
			cmp.Compare(a.LoadID, b.LoadID),
		)
	})
	return truncateLoads(out, limit)
}

func RecentLoads(loads []Load, limit int) []Load {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	out := append([]Load(nil), loads...)
	slices.SortStableFunc(out, func(a, b Load) int {
		return cmp.Or(comparePickupDesc(a, b), cmp.Compare(a.LoadID, b.LoadID))
	})
	return truncateLoads(out, limit)
}

// comparePickupDesc orders by pickup descending with missing pickups last.
func comparePickupDesc(a, b Load) int {
	switch {
	case a.PickupAt == nil && b.PickupAt == nil:
		return 0
	case a.PickupAt == nil:
		return 1
	case b.PickupAt == nil:
		return -1
	}
	return b.PickupAt.Compare(*a.PickupAt)
}

func truncateLoads(loads []Load, limit int) []Load {
	if limit > 0 && len(loads) > limit {
		return loads[:limit]
	}
	return loads
}

// Matcher runs the load queries against a repository and never fails: any
// repository error is logged and answered with an empty result.
type Matcher struct {
	repo   LoadRepository
	logger Logger
}

func NewMatcher(repo LoadRepository, logger Logger) *Matcher {
	return &Matcher{repo: repo, logger: logger}
}

func (m *Matcher) Search(ctx context.Context, query LoadQuery) []Load {
	query = query.Normalized()
	if m == nil || m.repo == nil {
		return []Load{}
	}
	loads, err := m.repo.Search(ctx, query)
	if err != nil {
		m.warn(ctx, "load search failed", err)
		return []Load{}
	}
	return nonNilLoads(truncateLoads(loads, query.Limit))
}

func (m *Matcher) ClosestByWeight(ctx context.Context, target float64, limit int) []Load {
	if limit <= 0 {
		limit = DefaultClosestLimit
	}
	if m == nil || m.repo == nil {
		return []Load{}
	}
	loads, err := m.repo.ClosestByWeight(ctx, target, limit)
	if err != nil {
		m.warn(ctx, "closest by weight lookup failed", err)
		return []Load{}
	}
	return nonNilLoads(truncateLoads(loads, limit))
}

func (m *Matcher) Recent(ctx context.Context, limit int) []Load {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if m == nil || m.repo == nil {
		return []Load{}
	}
	loads, err := m.repo.Recent(ctx, limit)
	if err != nil {
		m.warn(ctx, "recent loads lookup failed", err)
		return []Load{}
	}
	return nonNilLoads(truncateLoads(loads, limit))
}

func (m *Matcher) warn(ctx context.Context, message string, err error) {
	if m.logger == nil {
		return
	}
	logger := m.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	logger.Warn(message, "error", err.Error())
}

func nonNilLoads(loads []Load) []Load {
	if loads == nil {
		return []Load{}
	}
	return loads
}

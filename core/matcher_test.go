package core

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestWeightTolerance(t *testing.T) {
	cases := map[float64]float64{
		0:     100,
		500:   100,
		1000:  100,
		1005:  101,
		2000:  200,
		12345: 1235,
	}
	for weight, want := range cases {
		if got := WeightTolerance(weight); got != want {
			t.Fatalf("tolerance(%v): expected %v, got %v", weight, want, got)
		}
		if got := WeightTolerance(weight); got < WeightToleranceFloor {
			t.Fatalf("tolerance(%v) below floor: %v", weight, got)
		}
	}
}

func TestWeightToleranceIsMonotonic(t *testing.T) {
	previous := WeightTolerance(0)
	for weight := 0.0; weight <= 50000; weight += 37 {
		current := WeightTolerance(weight)
		if current < previous {
			t.Fatalf("tolerance decreased at %v: %v < %v", weight, current, previous)
		}
		previous = current
	}
}

func TestMatchesPlace(t *testing.T) {
	if !MatchesPlace("Dallas, TX", "dallas, tx") {
		t.Fatalf("expected case-insensitive equality")
	}
	if !MatchesPlace("Dallas, TX", "dal") {
		t.Fatalf("expected case-insensitive prefix")
	}
	if MatchesPlace("Dallas, TX", "allas") {
		t.Fatalf("expected infix not to match")
	}
	if !MatchesPlace("anything", "  ") {
		t.Fatalf("expected blank query to match")
	}
	if !MatchesPlace("Zürich", "ZÜR") || !MatchesPlace("Ürümqi", "ürümqi") {
		t.Fatalf("expected non-ASCII letters to fold")
	}
	if !MatchesPlace(" Dallas\t", "dallas") {
		t.Fatalf("expected stored whitespace to be trimmed")
	}
}

func TestFoldPlace(t *testing.T) {
	if got := FoldPlace("\t Zürich, CH \n"); got != "zürich, ch" {
		t.Fatalf("unexpected folded place %q", got)
	}
}

func TestMatchers_BreakTiesByLoadID(t *testing.T) {
	loads := []Load{
		{LoadID: "T3", Weight: floatPtr(900)},
		{LoadID: "T1", Weight: floatPtr(1100)},
		{LoadID: "T2", Weight: floatPtr(1100)},
	}
	if ids := loadIDs(ClosestLoadsByWeight(loads, 1000, 0)); !slices.Equal(ids, []string{"T1", "T2", "T3"}) {
		t.Fatalf("expected equal distances ordered by load id, got %v", ids)
	}
	if ids := loadIDs(RecentLoads(loads, 0)); !slices.Equal(ids, []string{"T1", "T2", "T3"}) {
		t.Fatalf("expected missing pickups ordered by load id, got %v", ids)
	}
	if ids := loadIDs(MatchLoads(loads, LoadQuery{})); !slices.Equal(ids, []string{"T1", "T2", "T3"}) {
		t.Fatalf("expected search ties ordered by load id, got %v", ids)
	}
}

func TestMatchLoads_StructuredSearchOrdering(t *testing.T) {
	got := MatchLoads(fixtureLoads(), LoadQuery{
		Origin:      "dallas",
		Destination: "atlanta",
		Weight:      floatPtr(1000),
	})
	want := []string{"L3", "L2", "L1"}
	if ids := loadIDs(got); !slices.Equal(ids, want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
}

func TestMatchLoads_NullsLastOnBothKeys(t *testing.T) {
	got := MatchLoads(fixtureLoads(), LoadQuery{})
	want := []string{"L3", "L2", "L1", "L5", "L4"}
	if ids := loadIDs(got); !slices.Equal(ids, want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}

	sameTime := fixtureBase
	ordered := MatchLoads([]Load{
		{LoadID: "no-rate", PickupAt: &sameTime},
		{LoadID: "rate", PickupAt: &sameTime, Rate: floatPtr(10)},
	}, LoadQuery{})
	if ids := loadIDs(ordered); !slices.Equal(ids, []string{"rate", "no-rate"}) {
		t.Fatalf("expected missing rate last, got %v", ids)
	}
}

func TestMatchLoads_WindowsAreInclusive(t *testing.T) {
	loads := []Load{
		{LoadID: "low", Weight: floatPtr(900), Miles: floatPtr(600)},
		{LoadID: "high", Weight: floatPtr(1100), Miles: floatPtr(800)},
		{LoadID: "out", Weight: floatPtr(1101), Miles: floatPtr(700)},
	}
	got := MatchLoads(loads, LoadQuery{Weight: floatPtr(1000), Miles: floatPtr(700)})
	if ids := loadIDs(got); !slices.Equal(ids, []string{"low", "high"}) {
		t.Fatalf("expected window bounds to be inclusive, got %v", ids)
	}
}

func TestMatchLoads_ZeroWeightAndMilesImposeNoConstraint(t *testing.T) {
	got := MatchLoads(fixtureLoads(), LoadQuery{Weight: floatPtr(0), Miles: floatPtr(0)})
	if len(got) != len(fixtureLoads()) {
		t.Fatalf("expected all loads, got %v", loadIDs(got))
	}
}

func TestMatchLoads_RateBoundsExcludeMissingRate(t *testing.T) {
	got := MatchLoads(fixtureLoads(), LoadQuery{RateMin: floatPtr(2000)})
	if ids := loadIDs(got); !slices.Equal(ids, []string{"L3", "L1"}) {
		t.Fatalf("expected rated loads above 2000, got %v", ids)
	}
	got = MatchLoads(fixtureLoads(), LoadQuery{RateMin: floatPtr(2100), RateMax: floatPtr(2100)})
	if ids := loadIDs(got); !slices.Equal(ids, []string{"L1"}) {
		t.Fatalf("expected inclusive rate bounds, got %v", ids)
	}
}

func TestMatchLoads_Limit(t *testing.T) {
	got := MatchLoads(fixtureLoads(), LoadQuery{Limit: 2})
	if len(got) != 2 {
		t.Fatalf("expected 2 loads, got %d", len(got))
	}
}

func TestClosestLoadsByWeight(t *testing.T) {
	got := ClosestLoadsByWeight(fixtureLoads(), 1000, 0)
	want := []string{"L1", "L3", "L2", "L4"}
	if ids := loadIDs(got); !slices.Equal(ids, want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	if got := ClosestLoadsByWeight(fixtureLoads(), 1000, 1); len(got) != 1 || got[0].LoadID != "L1" {
		t.Fatalf("expected single closest load L1, got %v", loadIDs(got))
	}
}

func TestRecentLoads(t *testing.T) {
	got := RecentLoads(fixtureLoads(), 3)
	want := []string{"L5", "L1", "L2"}
	if ids := loadIDs(got); !slices.Equal(ids, want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	all := RecentLoads(fixtureLoads(), 0)
	if last := all[len(all)-1]; last.LoadID != "L4" {
		t.Fatalf("expected load without pickup last, got %s", last.LoadID)
	}
}

func TestMatcher_FailsSoft(t *testing.T) {
	repo := NewMemoryLoadRepository(fixtureLoads()...)
	repo.Err = errors.New("database unreachable")
	logger := newCaptureLogger()
	matcher := NewMatcher(repo, logger)

	ctx := context.Background()
	if got := matcher.Search(ctx, LoadQuery{Origin: "dallas"}); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil search result, got %#v", got)
	}
	if got := matcher.ClosestByWeight(ctx, 1000, 5); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil closest result, got %#v", got)
	}
	if got := matcher.Recent(ctx, 5); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil recent result, got %#v", got)
	}
	if !logger.hasLog("warn", "load search failed") {
		t.Fatalf("expected search failure to be logged")
	}
}

func TestMatcher_DefaultSearchLimit(t *testing.T) {
	loads := make([]Load, 0, 15)
	for i := 0; i < 15; i++ {
		loads = append(loads, Load{LoadID: string(rune('a' + i))})
	}
	matcher := NewMatcher(NewMemoryLoadRepository(loads...), nil)
	if got := matcher.Search(context.Background(), LoadQuery{}); len(got) != DefaultSearchLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultSearchLimit, len(got))
	}
}

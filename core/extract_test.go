package core

import "testing"

func TestExtractWeight(t *testing.T) {
	if weight, ok := ExtractWeight("need a truck for 1200 KG of steel"); !ok || weight != 1200 {
		t.Fatalf("expected 1200, got %v ok=%v", weight, ok)
	}
	if weight, ok := ExtractWeight(`{"text":"850kg then 900 kg"}`); !ok || weight != 850 {
		t.Fatalf("expected first match 850, got %v ok=%v", weight, ok)
	}
	if _, ok := ExtractWeight("no weight here, only 1200 lbs"); ok {
		t.Fatalf("expected no weight without a kg unit")
	}
}

func TestDecodeObject(t *testing.T) {
	if fields := DecodeObject([]byte(` {"origin":"Dallas"} `)); fields["origin"] != "Dallas" {
		t.Fatalf("expected decoded origin, got %#v", fields)
	}
	if fields := DecodeObject([]byte(`plain text 500kg`)); fields != nil {
		t.Fatalf("expected nil for free text, got %#v", fields)
	}
	if fields := DecodeObject([]byte(`[1,2]`)); fields != nil {
		t.Fatalf("expected nil for json array, got %#v", fields)
	}
}

func TestHasStructuredSearch(t *testing.T) {
	if !HasStructuredSearch(map[string]any{"rate_min": ""}) {
		t.Fatalf("expected key presence to select structured search")
	}
	if HasStructuredSearch(map[string]any{"job_id": "j", "text": "1000kg"}) {
		t.Fatalf("expected unrelated keys not to select structured search")
	}
	if HasStructuredSearch(nil) {
		t.Fatalf("expected nil body not to select structured search")
	}
}

func TestQueryFromFields_EmptyValuesAreAbsent(t *testing.T) {
	query := QueryFromFields(map[string]any{
		"origin":    "",
		"weight_kg": nil,
		"miles":     "0",
		"rate_min":  "",
		"rate_max":  "$2,500",
		"limit":     float64(3),
	})
	if query.Origin != "" || query.Weight != nil || query.Miles != nil || query.RateMin != nil {
		t.Fatalf("expected empty values to be absent, got %#v", query)
	}
	if query.RateMax == nil || *query.RateMax != 2500 {
		t.Fatalf("expected rate_max 2500, got %v", query.RateMax)
	}
	if query.Limit != 3 {
		t.Fatalf("expected limit 3, got %d", query.Limit)
	}
	if QueryFromFields(map[string]any{}).Limit != DefaultSearchLimit {
		t.Fatalf("expected default limit")
	}
}

func TestFloatValue(t *testing.T) {
	if got := FloatValue("  1,250.5 "); got == nil || *got != 1250.5 {
		t.Fatalf("expected 1250.5, got %v", got)
	}
	if got := FloatValue("abc"); got != nil {
		t.Fatalf("expected nil for non-numeric string")
	}
	if got := FloatValue(true); got != nil {
		t.Fatalf("expected nil for bool")
	}
}

func TestIntValue(t *testing.T) {
	if got := IntValue(" 42.9 "); got == nil || *got != 42 {
		t.Fatalf("expected 42, got %v", got)
	}
	if got := IntValue(-3.7); got == nil || *got != -3 {
		t.Fatalf("expected -3, got %v", got)
	}
	for _, value := range []any{1e300, -1e300, "9.3e18", "-9.3e18", "abc"} {
		if got := IntValue(value); got != nil {
			t.Fatalf("expected %v to read as absent, got %d", value, *got)
		}
	}
}

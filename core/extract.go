package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var weightPattern = regexp.MustCompile(`(?i)(\d+)\s*kg`)

// StructuredSearchFields are the body keys that select the structured search
// strategy. Presence of the key is enough, even with an empty value.
var StructuredSearchFields = []string{"origin", "destination", "weight_kg", "miles", "rate_min", "rate_max"}

// DecodeObject decodes a JSON object body. Any other body, including free
// text, yields nil without error.
func DecodeObject(raw []byte) map[string]any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}

func HasStructuredSearch(fields map[string]any) bool {
	for _, key := range StructuredSearchFields {
		if _, ok := fields[key]; ok {
			return true
		}
	}
	return false
}

func QueryFromFields(fields map[string]any) LoadQuery {
	query := LoadQuery{
		Origin:      StringValue(fields["origin"]),
		Destination: StringValue(fields["destination"]),
		Weight:      FloatValue(fields["weight_kg"]),
		Miles:       FloatValue(fields["miles"]),
		RateMin:     FloatValue(fields["rate_min"]),
		RateMax:     FloatValue(fields["rate_max"]),
	}
	if limit := IntValue(fields["limit"]); limit != nil && *limit > 0 {
		query.Limit = *limit
	}
	return query.Normalized()
}

// ExtractWeight finds the first integer immediately followed by a "kg" unit.
func ExtractWeight(text string) (float64, bool) {
	match := weightPattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return 0, false
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// FloatValue reads a JSON number or numeric string. Empty strings, nulls and
// anything unparsable are absent.
func FloatValue(value any) *float64 {
	var out float64
	switch typed := value.(type) {
	case nil:
		return nil
	case float64:
		out = typed
	case float32:
		out = float64(typed)
	case int:
		out = float64(typed)
	case int64:
		out = float64(typed)
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return nil
		}
		out = parsed
	case string:
		trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(typed), "$"))
		if trimmed == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", ""), 64)
		if err != nil {
			return nil
		}
		out = parsed
	default:
		return nil
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return nil
	}
	return &out
}

// IntValue truncates a numeric value toward zero. Values outside the int
// range read as absent.
func IntValue(value any) *int {
	number := FloatValue(value)
	if number == nil {
		return nil
	}
	truncated := math.Trunc(*number)
	if truncated >= float64(math.MaxInt) || truncated < float64(math.MinInt) {
		return nil
	}
	out := int(truncated)
	return &out
}

func StringValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}

func MapValue(value any) map[string]any {
	if typed, ok := value.(map[string]any); ok {
		return copyAnyMap(typed)
	}
	return map[string]any{}
}

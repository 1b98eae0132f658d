// Package attrtype implements the primitive type system shared by the
// attribute store and the condition evaluator: the four AttributeSchema
// types (String, Number, Boolean, DateTime), string<->value parsing, and
// the ordering/equality rules spec.md §4.4 requires.
package attrtype

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Type is one of the four AttributeSchema primitive types.
type Type string

const (
	String   Type = "String"
	Number   Type = "Number"
	Boolean  Type = "Boolean"
	DateTime Type = "DateTime"
)

func (t Type) Valid() bool {
	switch t {
	case String, Number, Boolean, DateTime:
		return true
	}
	return false
}

// Value is a parsed, typed attribute value.
type Value struct {
	Type Type
	Str  string
	Num  float64
	Bool bool
	Time time.Time
}

// Parse interprets raw per the given type. DateTime values without an
// explicit zone are interpreted as UTC (spec.md §4.4).
func Parse(t Type, raw string) (Value, error) {
	switch t {
	case String:
		return Value{Type: String, Str: raw}, nil
	case Number:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Value{}, fmt.Errorf("attrtype: %q is not a number: %w", raw, err)
		}
		if math.IsNaN(n) {
			return Value{}, fmt.Errorf("attrtype: NaN is not an orderable number")
		}
		return Value{Type: Number, Num: n}, nil
	case Boolean:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return Value{}, fmt.Errorf("attrtype: %q is not a boolean: %w", raw, err)
		}
		return Value{Type: Boolean, Bool: b}, nil
	case DateTime:
		ts, err := parseTime(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: DateTime, Time: ts}, nil
	default:
		return Value{}, fmt.Errorf("attrtype: unknown type %q", t)
	}
}

// parseTime accepts RFC3339 and falls back to a handful of common
// zone-less layouts, always normalizing to UTC.
func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("attrtype: %q is not a recognizable datetime", raw)
}

// Equal reports value equality. Strings are case-sensitive.
func Equal(a, b Value) (bool, error) {
	if a.Type != b.Type {
		return false, fmt.Errorf("attrtype: type mismatch %s vs %s", a.Type, b.Type)
	}
	switch a.Type {
	case String:
		return a.Str == b.Str, nil
	case Number:
		return a.Num == b.Num, nil
	case Boolean:
		return a.Bool == b.Bool, nil
	case DateTime:
		return a.Time.Equal(b.Time), nil
	default:
		return false, fmt.Errorf("attrtype: unknown type %q", a.Type)
	}
}

// Compare returns -1/0/1 for a<b, a==b, a>b. Only Number and DateTime
// support ordering (spec.md §4.4 — Boolean ordering is a type error).
func Compare(a, b Value) (int, error) {
	if a.Type != b.Type {
		return 0, fmt.Errorf("attrtype: type mismatch %s vs %s", a.Type, b.Type)
	}
	switch a.Type {
	case Number:
		switch {
		case a.Num < b.Num:
			return -1, nil
		case a.Num > b.Num:
			return 1, nil
		default:
			return 0, nil
		}
	case DateTime:
		switch {
		case a.Time.Before(b.Time):
			return -1, nil
		case a.Time.After(b.Time):
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("attrtype: %s does not support ordering", a.Type)
	}
}

// Contains reports whether needle.Str is a substring of haystack.Str.
// Only defined for String (spec.md §4.4).
func Contains(haystack, needle Value) (bool, error) {
	if haystack.Type != String || needle.Type != String {
		return false, fmt.Errorf("attrtype: Contains only applies to String")
	}
	return strings.Contains(haystack.Str, needle.Str), nil
}

// ParseList splits a comma-separated expectedValue into typed values per
// t, trimming whitespace around each element and ignoring empty
// elements (spec.md §4.4 `In`/`NotIn`).
func ParseList(t Type, raw string) ([]Value, error) {
	parts := strings.Split(raw, ",")
	out := make([]Value, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := Parse(t, p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

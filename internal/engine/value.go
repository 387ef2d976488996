package engine

import (
	"cmp"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/roach88/sieve/internal/ir"
)

// native normalizes a record value: integers to int64, floats to float64,
// literals to their Go form. Unknown types return ok=false.
func native(v any) (any, bool) {
	switch val := v.(type) {
	case nil, bool, string, int64, float64, time.Time, uuid.UUID, ir.Date,
		map[string]any, []any, orb.Geometry:
		return val, true
	case int:
		return int64(val), true
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case uint:
		return unsigned(uint64(val)), true
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		return unsigned(val), true
	case float32:
		return float64(val), true
	case ir.Literal:
		return literalValue(val), true
	default:
		return nil, false
	}
}

func unsigned(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

// literalValue converts a literal to the form native produces.
func literalValue(lit ir.Literal) any {
	switch v := lit.(type) {
	case ir.Bool:
		return bool(v)
	case ir.Int32:
		return int64(v)
	case ir.Int64:
		return int64(v)
	case ir.Float32:
		return float64(v)
	case ir.Float64:
		return float64(v)
	case ir.String:
		return string(v)
	case ir.Char:
		return string(rune(v))
	case ir.UUID:
		return uuid.UUID(v)
	case ir.Date:
		return v
	case ir.Timestamp:
		return v.Time
	default:
		return nil
	}
}

// compareValue orders a normalized record value against a literal.
// comparable is false when the two have no common ordering, e.g. a string
// field against a number.
func compareValue(v any, lit ir.Literal) (c int, comparable bool) {
	switch l := lit.(type) {
	case ir.Int32, ir.Int64:
		n := literalValue(l).(int64)
		switch fv := v.(type) {
		case int64:
			return cmp.Compare(fv, n), true
		case float64:
			return cmp.Compare(fv, float64(n)), true
		}
	case ir.Float32:
		// compare at the literal's precision so 0.1 == 0.1f
		switch fv := v.(type) {
		case int64:
			return cmp.Compare(float32(fv), float32(l)), true
		case float64:
			return cmp.Compare(float32(fv), float32(l)), true
		}
	case ir.Float64:
		switch fv := v.(type) {
		case int64:
			return cmp.Compare(float64(fv), float64(l)), true
		case float64:
			return cmp.Compare(fv, float64(l)), true
		}
	case ir.String:
		if s, ok := v.(string); ok {
			return strings.Compare(s, string(l)), true
		}
	case ir.Char:
		if s, ok := v.(string); ok {
			return strings.Compare(s, string(rune(l))), true
		}
	case ir.Bool:
		if b, ok := v.(bool); ok {
			if b == bool(l) {
				return 0, true
			}
			return 1, true
		}
	case ir.UUID:
		switch fv := v.(type) {
		case uuid.UUID:
			return strings.Compare(fv.String(), l.String()), true
		case string:
			if id, err := uuid.Parse(fv); err == nil {
				return strings.Compare(id.String(), l.String()), true
			}
		}
	case ir.Date:
		if d, ok := asDate(v); ok {
			return compareDates(d, l), true
		}
	case ir.Timestamp:
		if t, ok := asTime(v); ok {
			return t.Compare(l.Time), true
		}
	}
	return 0, false
}

func asDate(v any) (ir.Date, bool) {
	switch fv := v.(type) {
	case ir.Date:
		return fv, true
	case time.Time:
		y, m, d := fv.Date()
		return ir.Date{Year: y, Month: m, Day: d}, true
	case string:
		if t, err := time.Parse(time.DateOnly, fv); err == nil {
			y, m, d := t.Date()
			return ir.Date{Year: y, Month: m, Day: d}, true
		}
		if t, err := time.Parse(time.RFC3339Nano, fv); err == nil {
			y, m, d := t.Date()
			return ir.Date{Year: y, Month: m, Day: d}, true
		}
	}
	return ir.Date{}, false
}

func asTime(v any) (time.Time, bool) {
	switch fv := v.(type) {
	case time.Time:
		return fv, true
	case ir.Date:
		return fv.Time(), true
	case string:
		if t, err := time.Parse(time.RFC3339Nano, fv); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func compareDates(a, b ir.Date) int {
	if c := cmp.Compare(a.Year, b.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Month, b.Month); c != 0 {
		return c
	}
	return cmp.Compare(a.Day, b.Day)
}

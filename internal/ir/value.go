package ir

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the concrete type of a Literal.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	KindChar
	KindUUID
	KindDate
	KindTimestamp
)

var kindNames = [...]string{
	KindNull:      "null",
	KindBool:      "bool",
	KindInt32:     "int32",
	KindInt64:     "int64",
	KindFloat32:   "float32",
	KindFloat64:   "float64",
	KindString:    "string",
	KindChar:      "char",
	KindUUID:      "uuid",
	KindDate:      "date",
	KindTimestamp: "timestamp",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Argument is the right-hand side of a constraint: either a single Literal
// or a List of at least two literals.
//
// This is a sealed interface - only types in this package implement it.
type Argument interface {
	argument()
}

// Literal is a typed constraint value.
//
// Literal is sealed: Null, Bool, Int32, Int64, Float32, Float64, String,
// Char, UUID, Date and Timestamp are the only implementations, so backends
// can switch over them exhaustively. Literals are immutable.
type Literal interface {
	Argument
	Kind() Kind
	literal()
}

// List is a multi-value argument. A well-formed List has two or more elements.
type List []Literal

func (List) argument() {}

// Null is the null keyword.
type Null struct{}

// Bool is a boolean literal (true/false/yes/no).
type Bool bool

// Int32 is an unsuffixed integer literal.
type Int32 int32

// Int64 is an integer literal with an l/L suffix, or one too wide for Int32.
type Int64 int64

// Float32 is a decimal literal with an f/F suffix.
type Float32 float32

// Float64 is a decimal literal without suffix or with d/D.
type Float64 float64

// String is a quoted string literal, already unescaped.
type String string

// Char is a quoted string that decoded to exactly one rune.
type Char rune

// UUID is a hyphenated lowercase UUID literal.
type UUID uuid.UUID

// Date is a calendar date without zone. Year may be negative or wider than
// four digits.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Timestamp is a date-time with a fixed zone offset.
type Timestamp struct {
	Time time.Time
}

func (Null) argument()      {}
func (Bool) argument()      {}
func (Int32) argument()     {}
func (Int64) argument()     {}
func (Float32) argument()   {}
func (Float64) argument()   {}
func (String) argument()    {}
func (Char) argument()      {}
func (UUID) argument()      {}
func (Date) argument()      {}
func (Timestamp) argument() {}

func (Null) literal()      {}
func (Bool) literal()      {}
func (Int32) literal()     {}
func (Int64) literal()     {}
func (Float32) literal()   {}
func (Float64) literal()   {}
func (String) literal()    {}
func (Char) literal()      {}
func (UUID) literal()      {}
func (Date) literal()      {}
func (Timestamp) literal() {}

func (Null) Kind() Kind      { return KindNull }
func (Bool) Kind() Kind      { return KindBool }
func (Int32) Kind() Kind     { return KindInt32 }
func (Int64) Kind() Kind     { return KindInt64 }
func (Float32) Kind() Kind   { return KindFloat32 }
func (Float64) Kind() Kind   { return KindFloat64 }
func (String) Kind() Kind    { return KindString }
func (Char) Kind() Kind      { return KindChar }
func (UUID) Kind() Kind      { return KindUUID }
func (Date) Kind() Kind      { return KindDate }
func (Timestamp) Kind() Kind { return KindTimestamp }

// NewDate creates a Date, rejecting impossible month/day combinations.
func NewDate(year int, month time.Month, day int) (Date, error) {
	if month < time.January || month > time.December {
		return Date{}, fmt.Errorf("month %d out of range", month)
	}
	if day < 1 || day > daysIn(year, month) {
		return Date{}, fmt.Errorf("day %d out of range for %d-%02d", day, year, month)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// daysIn uses time.Date normalization: day 0 of the next month is the
// last day of this one.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// String returns the hyphenated lowercase form.
func (u UUID) String() string {
	return uuid.UUID(u).String()
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Offset returns the zone offset of the timestamp in seconds east of UTC.
func (t Timestamp) Offset() int {
	_, off := t.Time.Zone()
	return off
}

// ValueOf converts a native Go value to a Literal.
//
// Supported: nil, bool, int (Int32 when it fits, else Int64), int8..int64,
// uint8..uint32, float32, float64, string, rune via Char, uuid.UUID,
// time.Time (Timestamp) and any Literal, which is returned unchanged.
func ValueOf(v any) (Literal, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Literal:
		return val, nil
	case bool:
		return Bool(val), nil
	case int:
		if val >= math.MinInt32 && val <= math.MaxInt32 {
			return Int32(val), nil
		}
		return Int64(val), nil
	case int8:
		return Int32(val), nil
	case int16:
		return Int32(val), nil
	case int32:
		return Int32(val), nil
	case int64:
		return Int64(val), nil
	case uint8:
		return Int32(val), nil
	case uint16:
		return Int32(val), nil
	case uint32:
		return Int64(val), nil
	case float32:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil, fmt.Errorf("non-finite float: %v", val)
		}
		return Float32(val), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("non-finite float: %v", val)
		}
		return Float64(val), nil
	case string:
		return String(val), nil
	case uuid.UUID:
		return UUID(val), nil
	case time.Time:
		return Timestamp{Time: val}, nil
	default:
		return nil, fmt.Errorf("unsupported literal type: %T", v)
	}
}

// LiteralEqual reports whether two literals have the same kind and value.
// Timestamps are equal when they denote the same instant with the same offset.
func LiteralEqual(a, b Literal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Timestamp:
		bv := b.(Timestamp)
		return av.Time.Equal(bv.Time) && av.Offset() == bv.Offset()
	default:
		return a == b
	}
}

// ArgumentEqual compares two arguments element-wise.
func ArgumentEqual(a, b Argument) bool {
	switch av := a.(type) {
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !LiteralEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Literal:
		bv, ok := b.(Literal)
		return ok && LiteralEqual(av, bv)
	default:
		return a == nil && b == nil
	}
}

// Literals flattens an argument into its literal values.
func Literals(arg Argument) []Literal {
	switch v := arg.(type) {
	case List:
		return v
	case Literal:
		return []Literal{v}
	default:
		return nil
	}
}

package printer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/sieve/internal/ir"
)

// Argument renders a single literal or a bracketed list.
func Argument(arg ir.Argument) (string, error) {
	switch a := arg.(type) {
	case ir.List:
		if len(a) < 2 {
			return "", fmt.Errorf("list argument needs at least two values, got %d", len(a))
		}
		parts := make([]string, len(a))
		for i, lit := range a {
			s, err := Literal(lit)
			if err != nil {
				return "", fmt.Errorf("list[%d]: %w", i, err)
			}
			parts[i] = s
		}
		return "[" + strings.Join(parts, ",") + "]", nil
	case ir.Literal:
		return Literal(a)
	default:
		return "", fmt.Errorf("unsupported argument type: %T", arg)
	}
}

// Literal renders one literal so that the literal grammar reads back the
// same kind and value.
func Literal(lit ir.Literal) (string, error) {
	switch v := lit.(type) {
	case ir.Null:
		return "null", nil
	case ir.Bool:
		return strconv.FormatBool(bool(v)), nil
	case ir.Int32:
		return strconv.FormatInt(int64(v), 10), nil
	case ir.Int64:
		return strconv.FormatInt(int64(v), 10) + "L", nil
	case ir.Float32:
		s, err := decimal(float64(v), 32)
		if err != nil {
			return "", err
		}
		return s + "f", nil
	case ir.Float64:
		return decimal(float64(v), 64)
	case ir.String:
		return quote(string(v))
	case ir.Char:
		if !utf8.ValidRune(rune(v)) {
			return "", fmt.Errorf("invalid char U+%04X", rune(v))
		}
		return quote(string(rune(v)))
	case ir.UUID:
		return v.String(), nil
	case ir.Date:
		return ir.FormatDate(v), nil
	case ir.Timestamp:
		return ir.FormatTimestamp(v), nil
	case nil:
		return "", fmt.Errorf("nil literal")
	default:
		return "", fmt.Errorf("unsupported literal type: %T", lit)
	}
}

// decimal renders the shortest round-tripping form, always with a dot:
// 1 -> 1.0, 1e+21 -> 1.0e+21.
func decimal(f float64, bitSize int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("non-finite float %v has no literal form", f)
	}
	s := ir.FormatFloat(f, bitSize)
	if strings.ContainsRune(s, '.') {
		return s, nil
	}
	if e := strings.IndexByte(s, 'e'); e >= 0 {
		return s[:e] + ".0" + s[e:], nil
	}
	return s + ".0", nil
}

const upperHex = "0123456789ABCDEF"

// quote single-quotes s, percent-encoding the quote, the escape introducers
// and anything unprintable. An 'x' after '0' is encoded so it cannot start a
// 0xXXXX escape.
func quote(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("string %q is not valid UTF-8", s)
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	prev := rune(-1)
	for _, r := range s {
		switch {
		case r == '\'' || r == '%' || r == '#' || (r == 'x' && prev == '0') || !unicode.IsPrint(r):
			var buf [utf8.UTFMax]byte
			n := utf8.EncodeRune(buf[:], r)
			for _, c := range buf[:n] {
				b.WriteByte('%')
				b.WriteByte(upperHex[c>>4])
				b.WriteByte(upperHex[c&0xF])
			}
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	b.WriteByte('\'')
	return b.String(), nil
}

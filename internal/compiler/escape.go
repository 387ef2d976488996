package compiler

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// decodeString expands the escapes allowed inside a quoted string:
// %XX bytes (a run of them must form valid UTF-8), and #XXXX or 0xXXXX code
// points. Anything that does not form a complete escape is kept verbatim.
// On failure the returned offset points at the offending escape within raw.
func decodeString(raw string) (string, int, error) {
	if !strings.ContainsAny(raw, "%#x") {
		if !utf8.ValidString(raw) {
			return "", 0, fmt.Errorf("string is not valid UTF-8")
		}
		return raw, 0, nil
	}

	var b strings.Builder
	b.Grow(len(raw))
	runStart := -1 // offset of the current %XX run
	for i := 0; i < len(raw); {
		if raw[i] == '%' && i+2 < len(raw) && isHex(raw[i+1]) && isHex(raw[i+2]) {
			if runStart < 0 {
				runStart = b.Len()
			}
			b.WriteByte(hexVal(raw[i+1])<<4 | hexVal(raw[i+2]))
			i += 3
			continue
		}
		if runStart >= 0 {
			if !utf8.ValidString(b.String()[runStart:]) {
				return "", i, fmt.Errorf("percent-encoded bytes before offset %d are not valid UTF-8", i)
			}
			runStart = -1
		}
		switch {
		case raw[i] == '#' && hasHex4(raw, i+1):
			r := hex4(raw, i+1)
			if !utf8.ValidRune(r) {
				return "", i, fmt.Errorf("invalid code point U+%04X", r)
			}
			b.WriteRune(r)
			i += 5
		case raw[i] == '0' && i+1 < len(raw) && raw[i+1] == 'x' && hasHex4(raw, i+2):
			r := hex4(raw, i+2)
			if !utf8.ValidRune(r) {
				return "", i, fmt.Errorf("invalid code point U+%04X", r)
			}
			b.WriteRune(r)
			i += 6
		default:
			b.WriteByte(raw[i])
			i++
		}
	}
	out := b.String()
	if runStart >= 0 && !utf8.ValidString(out[runStart:]) {
		return "", len(raw), fmt.Errorf("percent-encoded bytes at end of string are not valid UTF-8")
	}
	if !utf8.ValidString(out) {
		return "", 0, fmt.Errorf("string is not valid UTF-8")
	}
	return out, 0, nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

func hasHex4(s string, i int) bool {
	if i+4 > len(s) {
		return false
	}
	for j := i; j < i+4; j++ {
		if !isHex(s[j]) {
			return false
		}
	}
	return true
}

func hex4(s string, i int) rune {
	var r rune
	for j := i; j < i+4; j++ {
		r = r<<4 | rune(hexVal(s[j]))
	}
	return r
}

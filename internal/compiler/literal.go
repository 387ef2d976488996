package compiler

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/roach88/sieve/internal/ir"
)

// literalRule tries one literal production at src[pos:]. It returns the end
// offset of the production's shape, or pos when the shape does not apply.
// A non-nil error means the shape matched but the value is unusable; it is
// only reported when the production is followed by a value terminator.
type literalRule func(p *parser, pos int) (ir.Literal, int, error)

// literalRules in priority order.
var literalRules = []literalRule{
	(*parser).uuidLiteral,
	(*parser).stringLiteral,
	(*parser).intLiteral,
	(*parser).doubleLiteral,
	(*parser).floatLiteral,
	(*parser).dateLiteral,
	(*parser).timestampLiteral,
	(*parser).boolLiteral,
	(*parser).nullLiteral,
}

// literal parses one value token.
func (p *parser) literal() (ir.Literal, error) {
	start := p.pos
	for _, rule := range literalRules {
		lit, end, err := rule(p, start)
		if end == start || !terminates(p.src, end) {
			continue
		}
		if err != nil {
			return nil, err
		}
		p.pos = end
		return lit, nil
	}
	return nil, p.errorf(GrammarMismatch, start, "expected literal value")
}

// terminates reports whether a literal may end at offset i: end of input, an
// operator or closing bracket, or a dot that is not the start of a fraction.
func terminates(src string, i int) bool {
	if i >= len(src) {
		return true
	}
	switch src[i] {
	case ',', ';', ':', ')', ']':
		return true
	case '.':
		return i+1 >= len(src) || !isDigit(src[i+1])
	}
	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// digits returns the end of a run of decimal digits starting at i.
func digits(src string, i int) int {
	for i < len(src) && isDigit(src[i]) {
		i++
	}
	return i
}

// sign skips an optional leading + or -.
func sign(src string, i int) int {
	if i < len(src) && (src[i] == '+' || src[i] == '-') {
		return i + 1
	}
	return i
}

const uuidLen = 36

func (p *parser) uuidLiteral(pos int) (ir.Literal, int, error) {
	if pos+uuidLen > len(p.src) {
		return nil, pos, nil
	}
	s := p.src[pos : pos+uuidLen]
	for i := 0; i < uuidLen; i++ {
		c := s[i]
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return nil, pos, nil
			}
		default:
			if !isDigit(c) && (c < 'a' || c > 'f') {
				return nil, pos, nil
			}
		}
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, pos + uuidLen, p.errorf(GrammarMismatch, pos, "invalid uuid: %v", err)
	}
	return ir.UUID(id), pos + uuidLen, nil
}

func (p *parser) stringLiteral(pos int) (ir.Literal, int, error) {
	if pos >= len(p.src) || p.src[pos] != '\'' {
		return nil, pos, nil
	}
	closing := strings.IndexByte(p.src[pos+1:], '\'')
	if closing < 0 {
		return nil, len(p.src), p.errorf(GrammarMismatch, pos, "unterminated string")
	}
	raw := p.src[pos+1 : pos+1+closing]
	end := pos + closing + 2
	decoded, at, err := decodeString(raw)
	if err != nil {
		return nil, end, p.errorf(GrammarMismatch, pos+1+at, "%v", err)
	}
	if utf8.RuneCountInString(decoded) == 1 {
		r, _ := utf8.DecodeRuneInString(decoded)
		return ir.Char(r), end, nil
	}
	return ir.String(decoded), end, nil
}

func (p *parser) intLiteral(pos int) (ir.Literal, int, error) {
	numStart := pos
	i := sign(p.src, pos)
	end := digits(p.src, i)
	if end == i {
		return nil, pos, nil
	}
	text := p.src[numStart:end]
	long := end < len(p.src) && (p.src[end] == 'l' || p.src[end] == 'L')
	if long {
		end++
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, end, p.errorf(GrammarMismatch, pos, "integer %s out of range", text)
	}
	if long || n < math.MinInt32 || n > math.MaxInt32 {
		return ir.Int64(n), end, nil
	}
	return ir.Int32(n), end, nil
}

// decimal scans sign? digits '.' digits ([eE] sign? digits)? and returns the
// end offset, or pos when the shape does not match.
func decimal(src string, pos int) int {
	i := sign(src, pos)
	j := digits(src, i)
	if j == i || j >= len(src) || src[j] != '.' {
		return pos
	}
	k := digits(src, j+1)
	if k == j+1 {
		return pos
	}
	if k < len(src) && (src[k] == 'e' || src[k] == 'E') {
		e := sign(src, k+1)
		if f := digits(src, e); f > e {
			k = f
		}
	}
	return k
}

func (p *parser) doubleLiteral(pos int) (ir.Literal, int, error) {
	end := decimal(p.src, pos)
	if end == pos {
		return nil, pos, nil
	}
	text := p.src[pos:end]
	if end < len(p.src) && (p.src[end] == 'd' || p.src[end] == 'D') {
		end++
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, end, p.errorf(GrammarMismatch, pos, "double %s out of range", text)
	}
	return ir.Float64(f), end, nil
}

func (p *parser) floatLiteral(pos int) (ir.Literal, int, error) {
	end := decimal(p.src, pos)
	if end == pos || end >= len(p.src) || (p.src[end] != 'f' && p.src[end] != 'F') {
		return nil, pos, nil
	}
	text := p.src[pos:end]
	f, err := strconv.ParseFloat(text, 32)
	if err != nil {
		return nil, end + 1, p.errorf(GrammarMismatch, pos, "float %s out of range", text)
	}
	return ir.Float32(f), end + 1, nil
}

// scanDate matches sign? YYYY+ '-' MM '-' DD. It returns pos as end when the
// shape does not match.
func (p *parser) scanDate(pos int) (ir.Date, int, error) {
	src := p.src
	i := sign(src, pos)
	j := digits(src, i)
	if j-i < 4 || j+6 > len(src) || src[j] != '-' || src[j+3] != '-' ||
		!isDigit(src[j+1]) || !isDigit(src[j+2]) || !isDigit(src[j+4]) || !isDigit(src[j+5]) {
		return ir.Date{}, pos, nil
	}
	end := j + 6
	year, err := strconv.Atoi(src[pos:j])
	if err != nil {
		return ir.Date{}, end, p.errorf(GrammarMismatch, pos, "year %s out of range", src[pos:j])
	}
	month, _ := strconv.Atoi(src[j+1 : j+3])
	day, _ := strconv.Atoi(src[j+4 : j+6])
	d, err := ir.NewDate(year, time.Month(month), day)
	if err != nil {
		return ir.Date{}, end, p.errorf(GrammarMismatch, pos, "invalid date: %v", err)
	}
	return d, end, nil
}

func (p *parser) dateLiteral(pos int) (ir.Literal, int, error) {
	d, end, err := p.scanDate(pos)
	if end == pos {
		return nil, pos, nil
	}
	if end < len(p.src) && p.src[end] == 'T' {
		return nil, pos, nil
	}
	return d, end, err
}

// twoDigits reads a two-digit field at i.
func twoDigits(src string, i int) (int, bool) {
	if i+2 > len(src) || !isDigit(src[i]) || !isDigit(src[i+1]) {
		return 0, false
	}
	return int(src[i]-'0')*10 + int(src[i+1]-'0'), true
}

func (p *parser) timestampLiteral(pos int) (ir.Literal, int, error) {
	src := p.src
	d, i, err := p.scanDate(pos)
	if i == pos || i >= len(src) || src[i] != 'T' {
		return nil, pos, nil
	}
	i++

	hour, ok := twoDigits(src, i)
	if !ok || i+2 >= len(src) || src[i+2] != ':' {
		return nil, pos, nil
	}
	minute, ok := twoDigits(src, i+3)
	if !ok {
		return nil, pos, nil
	}
	i += 5

	var second, nanos int
	if i < len(src) && src[i] == ':' {
		if second, ok = twoDigits(src, i+1); !ok {
			return nil, pos, nil
		}
		i += 3
		if i < len(src) && src[i] == '.' {
			j := digits(src, i+1)
			if j == i+1 || j-i-1 > 9 {
				return nil, pos, nil
			}
			frac := src[i+1 : j]
			nanos, _ = strconv.Atoi(frac + strings.Repeat("0", 9-len(frac)))
			i = j
		}
	}

	if i >= len(src) {
		return nil, pos, nil
	}
	var offset int
	switch src[i] {
	case 'Z':
		i++
	case '+', '-':
		oh, ok1 := twoDigits(src, i+1)
		if !ok1 || i+3 >= len(src) || src[i+3] != ':' {
			return nil, pos, nil
		}
		om, ok2 := twoDigits(src, i+4)
		if !ok2 {
			return nil, pos, nil
		}
		if oh > 18 || om > 59 {
			return nil, i + 6, p.errorf(GrammarMismatch, i, "zone offset out of range")
		}
		offset = oh*3600 + om*60
		if src[i] == '-' {
			offset = -offset
		}
		i += 6
	default:
		return nil, pos, nil
	}

	if err != nil {
		return nil, i, err
	}
	if hour > 23 || minute > 59 || second > 59 {
		return nil, i, p.errorf(GrammarMismatch, pos, "time of day out of range")
	}
	t := time.Date(d.Year, d.Month, d.Day, hour, minute, second, nanos, ir.FixedZone(offset))
	return ir.Timestamp{Time: t}, i, nil
}

// matchWord matches a case-insensitive keyword.
func (p *parser) matchWord(pos int, word string) bool {
	end := pos + len(word)
	return end <= len(p.src) && strings.EqualFold(p.src[pos:end], word)
}

func (p *parser) boolLiteral(pos int) (ir.Literal, int, error) {
	for _, w := range [...]struct {
		word  string
		value bool
	}{{"true", true}, {"false", false}, {"yes", true}, {"no", false}} {
		if p.matchWord(pos, w.word) && terminates(p.src, pos+len(w.word)) {
			return ir.Bool(w.value), pos + len(w.word), nil
		}
	}
	return nil, pos, nil
}

func (p *parser) nullLiteral(pos int) (ir.Literal, int, error) {
	if p.matchWord(pos, "null") {
		return ir.Null{}, pos + 4, nil
	}
	return nil, pos, nil
}

// describe is used in error messages for unexpected bytes.
func describe(src string, pos int) string {
	if pos >= len(src) {
		return "end of input"
	}
	r, _ := utf8.DecodeRuneInString(src[pos:])
	return fmt.Sprintf("%q", r)
}

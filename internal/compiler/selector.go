package compiler

import (
	"strings"

	"github.com/roach88/sieve/internal/ir"
)

// selector matches the longest allowed path at the cursor.
func (p *parser) selector() (string, error) {
	rest := p.src[p.pos:]
	if sel, ok := p.allowed.Match(rest); ok {
		p.pos += len(sel)
		return sel, nil
	}
	if rest == "" || !ir.IsIdentStart(rest[0]) {
		return "", p.errorf(GrammarMismatch, p.pos, "expected selector, found %s", describe(p.src, p.pos))
	}
	return "", p.errorf(UnknownSelector, p.pos, "selector %q is not allowed", scanPath(rest))
}

// scanPath returns the identifier path at the start of s, for error messages.
func scanPath(s string) string {
	i := 0
	for i < len(s) {
		if !ir.IsIdentStart(s[i]) {
			break
		}
		i++
		for i < len(s) && ir.IsIdentChar(s[i]) {
			i++
		}
		if i+1 < len(s) && s[i] == '.' && ir.IsIdentStart(s[i+1]) {
			i++
			continue
		}
		break
	}
	return s[:i]
}

// comparison matches the longest comparison sign at the cursor.
func (p *parser) comparison() (ir.Comparison, error) {
	cmp, sign, ok := ir.MatchComparison(p.src[p.pos:])
	if !ok {
		return 0, p.errorf(GrammarMismatch, p.pos, "expected comparison (%s), found %s",
			strings.Join(canonicalSigns(), " "), describe(p.src, p.pos))
	}
	p.pos += len(sign)
	return cmp, nil
}

func canonicalSigns() []string {
	var out []string
	for c := ir.Equal; c <= ir.Intersects; c++ {
		out = append(out, c.Sign())
	}
	return out
}

// constraint parses selector comparison (literal | '[' literal (',' literal)+ ']').
func (p *parser) constraint() (*ir.ConstraintNode, error) {
	sel, err := p.selector()
	if err != nil {
		return nil, err
	}
	cmp, err := p.comparison()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.src) && p.src[p.pos] == '[' {
		list, err := p.list()
		if err != nil {
			return nil, err
		}
		return ir.NewConstraint(sel, cmp, list), nil
	}
	lit, err := p.literal()
	if err != nil {
		return nil, err
	}
	return ir.NewConstraint(sel, cmp, lit), nil
}

func (p *parser) list() (ir.List, error) {
	open := p.pos
	p.pos++ // '['
	if p.pos < len(p.src) && p.src[p.pos] == ']' {
		return nil, p.errorf(MalformedSequence, open, "bracket list needs at least two values")
	}
	var list ir.List
	for {
		lit, err := p.literal()
		if err != nil {
			return nil, err
		}
		list = append(list, lit)
		if p.pos >= len(p.src) {
			return nil, p.errorf(GrammarMismatch, p.pos, "unterminated bracket list")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
			continue
		case ']':
			p.pos++
		default:
			return nil, p.errorf(GrammarMismatch, p.pos, "expected ',' or ']' in list, found %s", describe(p.src, p.pos))
		}
		break
	}
	if len(list) < 2 {
		return nil, p.errorf(MalformedSequence, open, "bracket list needs at least two values")
	}
	return list, nil
}

package compiler

import (
	"github.com/roach88/sieve/internal/ir"
)

// parser is the per-call grammar state. It is never shared between calls.
type parser struct {
	src     string
	pos     int
	allowed ir.Selectors
	tokens  []token
}

func newParser(query string, allowed ir.Selectors) *parser {
	return &parser{src: query, allowed: allowed}
}

func (p *parser) errorf(kind ErrorKind, pos int, format string, args ...any) *CompileError {
	return newError(kind, p.src, pos, format, args...)
}

func (p *parser) done() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) emit(t token) { p.tokens = append(p.tokens, t) }

// parse runs the expression grammar and returns the flat token sequence.
func (p *parser) parse() ([]token, error) {
	if p.src == "" {
		return nil, p.errorf(MalformedSequence, 0, "empty expression")
	}
	if err := checkBalance(p.src); err != nil {
		return nil, err
	}
	if err := p.expression(); err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, p.errorf(UnbalancedGrouping, p.pos, "unexpected ')'")
	}
	return p.tokens, nil
}

// expression := term (op term)*
func (p *parser) expression() error {
	for {
		if err := p.term(); err != nil {
			return err
		}
		if p.done() || p.peek() == ')' {
			return nil
		}
		op, ok := ir.LookupOperator(p.peek())
		if !ok {
			if p.peek() == '(' {
				return p.errorf(MalformedSequence, p.pos, "missing operator before '('")
			}
			return p.errorf(GrammarMismatch, p.pos, "expected operator, found %s", describe(p.src, p.pos))
		}
		p.emit(operatorToken(op, p.pos))
		p.pos++
	}
}

// term := constraint | '(' expression ')'
func (p *parser) term() error {
	if p.done() {
		return p.errorf(MalformedSequence, p.pos, "dangling operator at end of expression")
	}
	switch c := p.peek(); {
	case c == '(':
		open := p.pos
		p.emit(operatorToken(ir.Left, open))
		p.pos++
		if !p.done() && p.peek() == ')' {
			return p.errorf(MalformedSequence, open, "empty group")
		}
		if err := p.expression(); err != nil {
			return err
		}
		if p.done() {
			return p.errorf(UnbalancedGrouping, open, "unclosed '('")
		}
		p.emit(operatorToken(ir.Right, p.pos))
		p.pos++
		return nil
	case c == ')':
		return p.errorf(MalformedSequence, p.pos, "dangling operator before ')'")
	case isOperatorChar(c):
		if n := len(p.tokens); n > 0 && p.tokens[n-1].op.Logical() {
			return p.errorf(MalformedSequence, p.pos, "adjacent operators")
		}
		return p.errorf(MalformedSequence, p.pos, "operator %q without left operand", c)
	}
	start := p.pos
	leaf, err := p.constraint()
	if err != nil {
		return err
	}
	p.emit(constraintToken(leaf, start))
	return nil
}

func isOperatorChar(c byte) bool {
	_, ok := ir.LookupOperator(c)
	return ok
}

// checkBalance verifies parentheses outside quoted strings before any grammar
// runs, so unbalanced input always reports UnbalancedGrouping.
func checkBalance(query string) error {
	var open []int
	inString := false
	for i := 0; i < len(query); i++ {
		switch c := query[i]; {
		case c == '\'':
			inString = !inString
		case inString:
		case c == '(':
			open = append(open, i)
		case c == ')':
			if len(open) == 0 {
				return newError(UnbalancedGrouping, query, i, "unmatched ')'")
			}
			open = open[:len(open)-1]
		}
	}
	if len(open) > 0 {
		return newError(UnbalancedGrouping, query, open[len(open)-1], "unclosed '('")
	}
	return nil
}

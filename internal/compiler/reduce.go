package compiler

import (
	"github.com/roach88/sieve/internal/ir"
)

// checkSequence verifies the shape operand (op operand)* with balanced
// Left/Right before reduction. Both Parse and the builder go through it.
func checkSequence(tokens []token, query string) error {
	if len(tokens) == 0 {
		return newError(MalformedSequence, query, posOf(tokens, 0, query), "empty expression")
	}
	wantOperand := true
	depth := 0
	var prev token
	for i, t := range tokens {
		switch {
		case t.isConstraint():
			if !wantOperand {
				return newError(MalformedSequence, query, t.pos, "missing operator before %s", t)
			}
			wantOperand = false
		case t.op == ir.Left:
			if !wantOperand {
				return newError(MalformedSequence, query, t.pos, "missing operator before '('")
			}
			depth++
		case t.op == ir.Right:
			if depth == 0 {
				return newError(UnbalancedGrouping, query, t.pos, "unmatched ')'")
			}
			if wantOperand {
				if i > 0 && prev.op == ir.Left {
					return newError(MalformedSequence, query, t.pos, "empty group")
				}
				return newError(MalformedSequence, query, t.pos, "dangling operator before ')'")
			}
			depth--
		case t.op.Logical():
			if wantOperand {
				if i > 0 && prev.op.Logical() {
					return newError(MalformedSequence, query, t.pos, "adjacent operators")
				}
				return newError(MalformedSequence, query, t.pos, "operator %s without left operand", t.op)
			}
			wantOperand = true
		default:
			return newError(MalformedSequence, query, t.pos, "invalid token %s", t)
		}
		prev = t
	}
	if depth > 0 {
		return newError(UnbalancedGrouping, query, posOf(tokens, len(tokens), query), "unclosed '('")
	}
	if wantOperand {
		return newError(MalformedSequence, query, posOf(tokens, len(tokens), query), "dangling operator at end of expression")
	}
	return nil
}

// posOf returns the position of tokens[i], or the end of the query.
func posOf(tokens []token, i int, query string) int {
	if i < len(tokens) {
		return tokens[i].pos
	}
	if query == "" {
		return -1
	}
	return len(query)
}

// reduce turns a flat token sequence into a tree.
//
// Reduction: constraints go to the output stack. Tight operators and Left go
// to the pending stack. A loose operator first moves every tight operator on
// top of the pending stack to the output, then is pushed. Right moves pending
// operators to the output until it meets its Left, which is discarded.
//
// Assembly: popping the output stack, an operator's first resolved operand is
// its right child and the second its left child.
func reduce(tokens []token, query string) (ir.Node, error) {
	if err := checkSequence(tokens, query); err != nil {
		return nil, err
	}

	output := make([]token, 0, len(tokens))
	var pending []token
	for _, t := range tokens {
		switch {
		case t.isConstraint():
			output = append(output, t)
		case t.op == ir.Right:
			closed := false
			for len(pending) > 0 {
				top := pending[len(pending)-1]
				pending = pending[:len(pending)-1]
				if top.op == ir.Left {
					closed = true
					break
				}
				output = append(output, top)
			}
			if !closed {
				return nil, newError(UnbalancedGrouping, query, t.pos, "unmatched ')'")
			}
		case t.op == ir.Left || t.op.Tight():
			pending = append(pending, t)
		default:
			for len(pending) > 0 {
				top := pending[len(pending)-1]
				if top.op == ir.Left || !top.op.Tight() {
					break
				}
				output = append(output, top)
				pending = pending[:len(pending)-1]
			}
			pending = append(pending, t)
		}
	}
	for len(pending) > 0 {
		top := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if top.op == ir.Left {
			return nil, newError(UnbalancedGrouping, query, top.pos, "unclosed '('")
		}
		output = append(output, top)
	}

	a := assembler{stack: output, query: query}
	root, err := a.node()
	if err != nil {
		return nil, err
	}
	if len(a.stack) > 0 {
		return nil, newError(MalformedSequence, query, a.stack[len(a.stack)-1].pos, "missing operator")
	}
	return root, nil
}

type assembler struct {
	stack []token
	query string
}

func (a *assembler) node() (ir.Node, error) {
	if len(a.stack) == 0 {
		return nil, newError(MalformedSequence, a.query, posOf(nil, 0, a.query), "missing operand")
	}
	t := a.stack[len(a.stack)-1]
	a.stack = a.stack[:len(a.stack)-1]
	if t.isConstraint() {
		return t.leaf, nil
	}
	if !t.op.Logical() {
		return nil, newError(MalformedSequence, a.query, t.pos, "unexpected %s", t.op)
	}
	right, err := a.node()
	if err != nil {
		return nil, err
	}
	left, err := a.node()
	if err != nil {
		return nil, err
	}
	return ir.NewOperation(t.op, left, right), nil
}

package compiler

import "github.com/roach88/sieve/internal/ir"

// token is one element of the flat sequence shared by the grammar and the
// fluent builder: either a constraint or an operator (including Left/Right).
type token struct {
	leaf *ir.ConstraintNode
	op   ir.Operator
	// pos is the byte offset in the query, -1 for builder tokens.
	pos int
}

func constraintToken(leaf *ir.ConstraintNode, pos int) token {
	return token{leaf: leaf, pos: pos}
}

func operatorToken(op ir.Operator, pos int) token {
	return token{op: op, pos: pos}
}

func (t token) isConstraint() bool { return t.leaf != nil }

func (t token) String() string {
	if t.isConstraint() {
		return t.leaf.Selector
	}
	return t.op.String()
}

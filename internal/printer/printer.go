// Package printer renders ir trees back into filter query syntax.
package printer

import (
	"fmt"

	"github.com/roach88/sieve/internal/ir"
)

// Printer is the canonical ir.Visitor[string].
//
// Parenthesization depends on the parent operator, which is passed down the
// recursion explicitly, so a Printer holds no state and is safe to reuse. A
// child operation is grouped when it is loose under a tight parent, or when
// it is the left child and shares its parent's binding class (the reducer
// associates same-class chains to the right). Parsing the output with the
// tree's selectors yields a structurally equal tree.
type Printer struct{}

// Print renders a tree in canonical form.
func Print(root ir.Node) (string, error) {
	return ir.Start[string](Printer{}, root)
}

// MustPrint is like Print but panics on error.
// Use only in tests or for trees known to be valid.
func MustPrint(root ir.Node) string {
	s, err := Print(root)
	if err != nil {
		panic(err)
	}
	return s
}

// VisitConstraint renders selector, canonical sign and argument.
func (p Printer) VisitConstraint(n *ir.ConstraintNode) (string, error) {
	if !n.Comparison.Valid() {
		return "", fmt.Errorf("selector %q: invalid comparison %d", n.Selector, uint8(n.Comparison))
	}
	arg, err := Argument(n.Argument)
	if err != nil {
		return "", fmt.Errorf("selector %q: %w", n.Selector, err)
	}
	return n.Selector + n.Comparison.Sign() + arg, nil
}

// VisitOperation renders both children around the operator sign.
func (p Printer) VisitOperation(n *ir.OperationNode) (string, error) {
	if !n.Operator.Logical() {
		return "", fmt.Errorf("operator %s cannot appear in a tree", n.Operator)
	}
	left, err := p.child(n.Operator, n.Left, true)
	if err != nil {
		return "", err
	}
	right, err := p.child(n.Operator, n.Right, false)
	if err != nil {
		return "", err
	}
	return left + n.Operator.Sign() + right, nil
}

func (p Printer) child(parent ir.Operator, child ir.Node, left bool) (string, error) {
	s, err := ir.Visit[string](p, child)
	if err != nil {
		return "", err
	}
	if op, ok := child.(*ir.OperationNode); ok && needsGroup(parent, op.Operator, left) {
		return "(" + s + ")", nil
	}
	return s, nil
}

// needsGroup reports whether a child operation must be parenthesized under
// parent to survive a parse.
func needsGroup(parent, child ir.Operator, left bool) bool {
	if parent.Tight() && !child.Tight() {
		return true
	}
	return left && parent.Tight() == child.Tight()
}

package ir

// Node is a filter expression tree node.
//
// This is a sealed interface - only *ConstraintNode and *OperationNode
// implement it. Trees are built once by the compiler and treated as
// read-only afterwards; subtrees are never shared between parents.
type Node interface {
	node()
}

// Constraint is a leaf predicate: selector, comparison and argument.
type Constraint struct {
	Selector   string
	Comparison Comparison
	Argument   Argument
}

// ConstraintNode is a leaf of the tree.
type ConstraintNode struct {
	Constraint
}

func (*ConstraintNode) node() {}

// OperationNode is an interior node. It always has exactly two children.
type OperationNode struct {
	Operator Operator
	Left     Node
	Right    Node
}

func (*OperationNode) node() {}

// NewConstraint creates a leaf node.
func NewConstraint(selector string, cmp Comparison, arg Argument) *ConstraintNode {
	return &ConstraintNode{Constraint: Constraint{Selector: selector, Comparison: cmp, Argument: arg}}
}

// NewOperation creates an interior node.
func NewOperation(op Operator, left, right Node) *OperationNode {
	return &OperationNode{Operator: op, Left: left, Right: right}
}

// Values returns the constraint's argument as a slice of literals.
func (c Constraint) Values() []Literal {
	return Literals(c.Argument)
}

// Multi reports whether the argument is a list.
func (c Constraint) Multi() bool {
	_, ok := c.Argument.(List)
	return ok
}

// TreeEqual reports whether two trees are structurally identical.
func TreeEqual(a, b Node) bool {
	switch an := a.(type) {
	case nil:
		return b == nil
	case *ConstraintNode:
		bn, ok := b.(*ConstraintNode)
		if !ok || an == nil || bn == nil {
			return ok && an == bn
		}
		return an.Selector == bn.Selector &&
			an.Comparison == bn.Comparison &&
			ArgumentEqual(an.Argument, bn.Argument)
	case *OperationNode:
		bn, ok := b.(*OperationNode)
		if !ok || an == nil || bn == nil {
			return ok && an == bn
		}
		return an.Operator == bn.Operator &&
			TreeEqual(an.Left, bn.Left) &&
			TreeEqual(an.Right, bn.Right)
	default:
		return false
	}
}

// SelectorsOf returns the distinct selectors used in a tree, in first-seen order.
func SelectorsOf(root Node) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case *ConstraintNode:
			if !seen[v.Selector] {
				seen[v.Selector] = true
				out = append(out, v.Selector)
			}
		case *OperationNode:
			walk(v.Left)
			walk(v.Right)
		}
	}
	walk(root)
	return out
}

package compiler

import (
	"fmt"

	"github.com/roach88/sieve/internal/ir"
)

// Validation error codes (E210-E219)
const (
	ErrNilNode             = "E210" // nil node or nil child
	ErrInvalidSelector     = "E211" // empty or malformed selector path
	ErrSelectorNotAllowed  = "E212" // selector outside the allow-list
	ErrInvalidComparison   = "E213" // comparison outside the sign table
	ErrInvalidOperator     = "E214" // grouping or unknown operator in a tree
	ErrInvalidTreeArgument = "E215" // nil argument, nil list element, short list
	ErrSharedSubtree       = "E216" // a node reachable twice
)

// ValidationError represents a tree validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a tree built outside the grammar, typically by hand or by a
// decoder, against the invariants Parse guarantees. Selector membership is
// only checked when allowed is non-empty.
// Returns all errors found (does not fail-fast).
func Validate(root ir.Node, allowed ir.Selectors) []ValidationError {
	v := &validator{allowed: allowed, seen: make(map[ir.Node]bool)}
	v.node(root, "root")
	return v.errs
}

// TreeError reports every validation error of one tree.
type TreeError struct {
	Errors []ValidationError
}

func (e *TreeError) Error() string {
	if len(e.Errors) == 1 {
		return "invalid tree: " + e.Errors[0].Error()
	}
	return fmt.Sprintf("invalid tree: %s (and %d more)", e.Errors[0].Error(), len(e.Errors)-1)
}

// Check is Validate reduced to one error. It returns nil for a valid tree and
// a *TreeError otherwise.
func Check(root ir.Node, allowed ir.Selectors) error {
	if errs := Validate(root, allowed); len(errs) > 0 {
		return &TreeError{Errors: errs}
	}
	return nil
}

type validator struct {
	allowed ir.Selectors
	seen    map[ir.Node]bool
	errs    []ValidationError
}

func (v *validator) add(field, code, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func (v *validator) node(n ir.Node, field string) {
	switch node := n.(type) {
	case *ir.ConstraintNode:
		if node == nil {
			v.add(field, ErrNilNode, "nil constraint node")
			return
		}
		if v.visited(node, field) {
			return
		}
		v.constraint(node.Constraint, field)
	case *ir.OperationNode:
		if node == nil {
			v.add(field, ErrNilNode, "nil operation node")
			return
		}
		if v.visited(node, field) {
			return
		}
		if !node.Operator.Logical() {
			v.add(field+".operator", ErrInvalidOperator, "operator %s cannot appear in a tree", node.Operator)
		}
		v.node(node.Left, field+".left")
		v.node(node.Right, field+".right")
	case nil:
		v.add(field, ErrNilNode, "missing node")
	default:
		v.add(field, ErrNilNode, "unsupported node type %T", n)
	}
}

// visited records n and reports whether it was already reached. Trees own
// their subtrees exclusively, so a second visit means sharing or a cycle.
func (v *validator) visited(n ir.Node, field string) bool {
	if v.seen[n] {
		v.add(field, ErrSharedSubtree, "node is reachable more than once")
		return true
	}
	v.seen[n] = true
	return false
}

func (v *validator) constraint(c ir.Constraint, field string) {
	// E211/E212: selector shape and membership
	if err := ir.ValidatePath(c.Selector); err != nil {
		v.add(field+".selector", ErrInvalidSelector, "%v", err)
	} else if v.allowed.Len() > 0 && !v.allowed.Contains(c.Selector) {
		v.add(field+".selector", ErrSelectorNotAllowed, "selector %q is not allowed", c.Selector)
	}

	// E213: comparison
	if !c.Comparison.Valid() {
		v.add(field+".comparison", ErrInvalidComparison, "invalid comparison %d", uint8(c.Comparison))
	}

	// E215: argument
	switch arg := c.Argument.(type) {
	case nil:
		v.add(field+".argument", ErrInvalidTreeArgument, "missing argument")
	case ir.List:
		if len(arg) < 2 {
			v.add(field+".argument", ErrInvalidTreeArgument, "list argument needs at least two values, got %d", len(arg))
		}
		for i, lit := range arg {
			if lit == nil {
				v.add(fmt.Sprintf("%s.argument[%d]", field, i), ErrInvalidTreeArgument, "nil list element")
			}
		}
	}
}

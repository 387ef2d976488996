package ir

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNilNode is returned when a traversal reaches a nil node.
var ErrNilNode = errors.New("nil node")

// Visitor is implemented by every tree traversal: the canonical printer and
// the backend translators.
//
// Implementations hold per-traversal state only; use one visitor value per
// traversal when that state is mutable.
type Visitor[T any] interface {
	VisitConstraint(n *ConstraintNode) (T, error)
	VisitOperation(n *OperationNode) (T, error)
}

// Start is the traversal entry point.
func Start[T any](v Visitor[T], root Node) (T, error) {
	return Visit(v, root)
}

// Visit dispatches n to the visitor method for its variant. Visitors call it
// to descend into children.
func Visit[T any](v Visitor[T], n Node) (T, error) {
	var zero T
	switch node := n.(type) {
	case *ConstraintNode:
		if node == nil {
			return zero, ErrNilNode
		}
		return v.VisitConstraint(node)
	case *OperationNode:
		if node == nil {
			return zero, ErrNilNode
		}
		return v.VisitOperation(node)
	case nil:
		return zero, ErrNilNode
	default:
		return zero, fmt.Errorf("unsupported node type: %T", n)
	}
}

// Config is optional configuration consumed by backend visitors. The
// compiler and printer ignore it.
type Config struct {
	// FieldMapping renames selectors to backend field names. Selectors not
	// in the map are used as-is.
	FieldMapping map[string]string

	// WildcardEquality makes == and != against a string containing '*'
	// behave as a pattern match.
	WildcardEquality bool
}

// Field returns the backend field for a selector.
func (c Config) Field(selector string) string {
	if mapped, ok := c.FieldMapping[selector]; ok {
		return mapped
	}
	return selector
}

// IsWildcard reports whether an equality constraint should be treated as a
// pattern match under this configuration.
func (c Config) IsWildcard(con Constraint) bool {
	if !c.WildcardEquality {
		return false
	}
	if con.Comparison != Equal && con.Comparison != NotEqual {
		return false
	}
	s, ok := con.Argument.(String)
	return ok && strings.ContainsRune(string(s), '*')
}

// Package testutil provides shorthands for building expected trees in tests.
package testutil

import (
	"fmt"

	"github.com/roach88/sieve/internal/ir"
)

// C builds a constraint leaf. Go values are converted with ir.ValueOf; two or
// more values make a list argument. It panics on unconvertible values.
func C(selector string, cmp ir.Comparison, values ...any) *ir.ConstraintNode {
	lits := make([]ir.Literal, len(values))
	for i, v := range values {
		lit, err := ir.ValueOf(v)
		if err != nil {
			panic(fmt.Sprintf("testutil.C(%q): %v", selector, err))
		}
		lits[i] = lit
	}
	switch len(lits) {
	case 0:
		panic(fmt.Sprintf("testutil.C(%q): no values", selector))
	case 1:
		return ir.NewConstraint(selector, cmp, lits[0])
	default:
		return ir.NewConstraint(selector, cmp, ir.List(lits))
	}
}

// And builds an AND node.
func And(l, r ir.Node) ir.Node { return ir.NewOperation(ir.And, l, r) }

// Or builds an OR node.
func Or(l, r ir.Node) ir.Node { return ir.NewOperation(ir.Or, l, r) }

// Nand builds a NAND node.
func Nand(l, r ir.Node) ir.Node { return ir.NewOperation(ir.Nand, l, r) }

// Nor builds a NOR node.
func Nor(l, r ir.Node) ir.Node { return ir.NewOperation(ir.Nor, l, r) }

// Selectors builds an allow-list, panicking on invalid paths.
func Selectors(paths ...string) ir.Selectors {
	return ir.MustSelectors(paths...)
}

// Record builds a nested record from dotted keys:
//
//	Record("a.b", 1, "c", "x") == map[string]any{"a": map[string]any{"b": 1}, "c": "x"}
func Record(kv ...any) map[string]any {
	if len(kv)%2 != 0 {
		panic("testutil.Record: odd number of arguments")
	}
	out := make(map[string]any)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("testutil.Record: key %v is not a string", kv[i]))
		}
		put(out, key, kv[i+1])
	}
	return out
}

func put(m map[string]any, key string, v any) {
	for i := 0; i < len(key); i++ {
		if key[i] != '.' {
			continue
		}
		child, ok := m[key[:i]].(map[string]any)
		if !ok {
			child = make(map[string]any)
			m[key[:i]] = child
		}
		put(child, key[i+1:], v)
		return
	}
	m[key] = v
}
